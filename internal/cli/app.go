package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/cache"
	"budget/internal/config"
	"budget/internal/events"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/stats"
	"budget/internal/store"
)

const (
	cacheCleanupInterval = 10 * time.Minute
	publishTimeout       = 5 * time.Second
	shutdownTimeout      = 30 * time.Second
)

// App is the wired application: a seeded store, the projections served from
// it and every observer of its changes.
type App struct {
	Config    *config.Config
	Logger    *applog.Logger
	Store     *store.Store
	Stats     *stats.Service
	Metrics   *metrics.Registry
	Caches    *cache.Manager
	Publisher events.Publisher
	Seed      uint64
}

// NewApp seeds the store with demo data generated as of now. A nil publisher
// disables the change feed.
func NewApp(cfg *config.Config, logger *applog.Logger, publisher events.Publisher, now time.Time) (*App, error) {
	if publisher == nil {
		publisher = events.Nop{}
	}
	app := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics.New(),
		Caches:    cache.NewManager(),
		Publisher: publisher,
	}

	seed, usedSeed := SeedAccounts(cfg, now)
	app.Seed = usedSeed

	st, err := store.New(seed, store.Options{
		StrictBalances: cfg.StrictBalances,
		OnChange:       app.onChange(),
	})
	if err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}
	app.Store = st
	app.Stats = stats.NewService(st, stats.ServiceConfig{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		OnLookup:  app.Metrics.ObserveCacheLookup,
	})
	app.Caches.Register(app.Stats.Caches()...)
	app.Metrics.SetAccounts(st.Len())

	logger.Info("Store seeded",
		"seed", usedSeed,
		"months", cfg.SeedMonths,
		"accounts", st.Len(),
		"strict_balances", cfg.StrictBalances)
	return app, nil
}

// onChange fans a committed mutation out to the caches, the metrics, the log
// and the change feed, in that order.
func (a *App) onChange() func(context.Context, store.Change) {
	forward := events.Forward(a.Publisher, publishTimeout)
	mutations := applog.NewStructuredLogger(a.Logger)
	return func(ctx context.Context, c store.Change) {
		a.Stats.Invalidate(ctx, c)
		a.Metrics.ObserveMutation(string(c.Kind))
		a.Metrics.SetAccounts(a.Store.Len())
		mutations.LogMutation(ctx, string(c.Kind), c.AccountID, c.TransactionID)
		forward(ctx, c)
	}
}

// NewServer builds the HTTP API listening on the configured port.
func (a *App) NewServer() *apphttp.Server {
	return apphttp.NewServer(net.JoinHostPort("", a.Config.Port), apphttp.Options{
		Store:          a.Store,
		Stats:          a.Stats,
		Metrics:        a.Metrics,
		Logger:         a.Logger,
		RateLimit:      a.Config.RateLimitPerMinute,
		TrustedProxies: a.Config.TrustedProxies,
	})
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context, srv *apphttp.Server) error {
	a.Caches.StartCleanup(cacheCleanupInterval)
	defer a.Caches.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("Starting budget server", applog.FieldOperation, applog.OpStartup, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		a.Logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
		return nil
	})
	return g.Wait()
}
