package stats

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"budget/internal/cache"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/store"
)

// AllAccounts selects every account in a DistributionQuery.
const AllAccounts = "all"

const (
	CacheBalances      = "balances"
	CacheDistributions = "distributions"
)

// DistributionQuery selects the transactions fed to CategoryDistribution.
// An empty AccountID or AllAccounts merges every account.
type DistributionQuery struct {
	AccountID string
	From      core.Date
	To        core.Date
	Direction core.Direction
}

func (q DistributionQuery) allAccounts() bool {
	return q.AccountID == "" || q.AccountID == AllAccounts
}

func (q DistributionQuery) key() string {
	scope := "all/"
	if !q.allAccounts() {
		scope = accountPrefix(q.AccountID)
	}
	return fmt.Sprintf("%sdist/%s/%s/%s", scope, q.From, q.To, q.Direction)
}

type ServiceConfig struct {
	CacheSize int
	CacheTTL  time.Duration
	// OnLookup observes every cache lookup.
	OnLookup func(cacheName string, hit bool)
}

// Service serves the projections of the accounts held by a store.Reader.
// Results are cached until the underlying account changes or the TTL expires.
type Service struct {
	reader        store.Reader
	balances      *cache.LRUCache[[]core.DailyBalance]
	distributions *cache.LRUCache[[]core.CategoryTotal]
	group         singleflight.Group
	generation    atomic.Uint64
	onLookup      func(string, bool)
}

func NewService(r store.Reader, cfg ServiceConfig) *Service {
	onLookup := cfg.OnLookup
	if onLookup == nil {
		onLookup = func(string, bool) {}
	}
	return &Service{
		reader:        r,
		balances:      cache.NewLRUCache[[]core.DailyBalance](cfg.CacheSize, cfg.CacheTTL),
		distributions: cache.NewLRUCache[[]core.CategoryTotal](cfg.CacheSize, cfg.CacheTTL),
		onLookup:      onLookup,
	}
}

// Caches exposes the service caches for periodic cleanup.
func (s *Service) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.balances, s.distributions}
}

// MonthlyBalance returns the daily balance series of one account.
func (s *Service) MonthlyBalance(ctx context.Context, accountID string, year int, month time.Month) ([]core.DailyBalance, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	key := fmt.Sprintf("%s%04d-%02d", accountPrefix(accountID), year, month)
	return cached(ctx, s, s.balances, CacheBalances, key, slices.Clone[[]core.DailyBalance], func() ([]core.DailyBalance, error) {
		a, err := s.reader.Account(accountID)
		if err != nil {
			return nil, err
		}
		return MonthlyBalance(a, year, month), nil
	})
}

// Distribution returns the category totals selected by q.
func (s *Service) Distribution(ctx context.Context, q DistributionQuery) ([]core.CategoryTotal, error) {
	if !q.Direction.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidDirection, q.Direction)
	}
	if q.To.Before(q.From.Time) {
		return nil, fmt.Errorf("%w: range ends before it starts", core.ErrInvalidDate)
	}
	return cached(ctx, s, s.distributions, CacheDistributions, q.key(), cloneTotals, func() ([]core.CategoryTotal, error) {
		var txs []core.Transaction
		if q.allAccounts() {
			txs = s.reader.AllTransactions()
		} else {
			var err error
			txs, err = s.reader.Transactions(q.AccountID, store.TransactionFilter{})
			if err != nil {
				return nil, err
			}
		}
		return CategoryDistribution(txs, q.From, q.To, q.Direction), nil
	})
}

// Invalidate drops every cached projection affected by c.
func (s *Service) Invalidate(ctx context.Context, c store.Change) {
	s.generation.Add(1)
	prefix := accountPrefix(c.AccountID)
	n := s.balances.DeletePrefix(prefix)
	n += s.distributions.DeletePrefix(prefix)
	n += s.distributions.DeletePrefix("all/")
	slog.DebugContext(ctx, "Stats cache invalidated",
		applog.FieldComponent, applog.ComponentStats,
		applog.FieldKind, c.Kind,
		applog.FieldAccountID, c.AccountID,
		"removed", n)
}

// cached looks key up in c and computes it on a miss. Concurrent misses for
// the same key share one computation. A result computed while an
// invalidation happened is returned but not stored. Callers get clone(v),
// never the cached slice.
func cached[T any](ctx context.Context, s *Service, c *cache.LRUCache[[]T], name, key string, clone func([]T) []T, compute func() ([]T, error)) ([]T, error) {
	if v, ok := c.Get(key); ok {
		s.onLookup(name, true)
		return clone(v), nil
	}
	s.onLookup(name, false)

	gen := s.generation.Load()
	ch := s.group.DoChan(fmt.Sprintf("%s:%s:%d", name, key, gen), func() (any, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		if s.generation.Load() == gen {
			c.Set(key, v)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]T)), nil
	}
}

// cloneTotals copies groups along with their Percent values.
func cloneTotals(groups []core.CategoryTotal) []core.CategoryTotal {
	out := slices.Clone(groups)
	for i := range out {
		if p := out[i].Percent; p != nil {
			v := *p
			out[i].Percent = &v
		}
	}
	return out
}

func accountPrefix(id string) string {
	return "acct/" + id + "/"
}
