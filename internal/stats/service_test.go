package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/store"
)

type lookups struct {
	mu   sync.Mutex
	hits map[string]int
	miss map[string]int
}

func (l *lookups) observe(name string, hit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if hit {
		l.hits[name]++
	} else {
		l.miss[name]++
	}
}

func newService(t *testing.T) (*Service, *store.Store, *lookups) {
	t.Helper()
	l := &lookups{hits: map[string]int{}, miss: map[string]int{}}
	var svc *Service
	st, err := store.New([]core.Account{
		{ID: "c", Label: "Courant", Type: core.Checking, InitialBalance: dec("100")},
		{ID: "l", Label: "Livret", Type: core.LivretA, InitialBalance: dec("10")},
	}, store.Options{OnChange: func(ctx context.Context, c store.Change) { svc.Invalidate(ctx, c) }})
	require.NoError(t, err)
	svc = NewService(st, ServiceConfig{CacheSize: 16, CacheTTL: time.Minute, OnLookup: l.observe})
	return svc, st, l
}

func input(day int, cat core.Category, dir core.Direction, amount string) store.TransactionInput {
	return store.TransactionInput{
		Date:      core.NewDate(2024, time.March, day),
		Label:     "t",
		Category:  cat,
		Direction: dir,
		Amount:    dec(amount),
		Validated: true,
	}
}

func TestServiceMonthlyBalanceCachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newService(t)

	series, err := svc.MonthlyBalance(ctx, "c", 2024, time.March)
	require.NoError(t, err)
	require.Len(t, series, 31)
	assert.True(t, series[30].Validated.Equal(dec("100")))

	_, err = svc.MonthlyBalance(ctx, "c", 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, 1, l.hits[CacheBalances])
	assert.Equal(t, 1, l.miss[CacheBalances])

	_, err = st.AddTransaction(ctx, "c", input(5, core.Food, core.Debit, "40"))
	require.NoError(t, err)

	series, err = svc.MonthlyBalance(ctx, "c", 2024, time.March)
	require.NoError(t, err)
	assert.True(t, series[30].Validated.Equal(dec("60")), "stale series after a mutation")
	assert.Equal(t, 2, l.miss[CacheBalances])
}

func TestServiceMonthlyBalanceErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.MonthlyBalance(ctx, "missing", 2024, time.March)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	_, err = svc.MonthlyBalance(ctx, "c", 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestServiceDistribution(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newService(t)

	_, err := st.AddTransaction(ctx, "c", input(1, core.Food, core.Debit, "30"))
	require.NoError(t, err)
	_, err = st.AddTransaction(ctx, "l", input(2, core.Transport, core.Debit, "5"))
	require.NoError(t, err)

	q := DistributionQuery{
		AccountID: AllAccounts,
		From:      core.NewDate(2024, time.March, 1),
		To:        core.NewDate(2024, time.March, 31),
		Direction: core.Debit,
	}
	all, err := svc.Distribution(ctx, q)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, core.Food, all[0].Category)

	q.AccountID = "l"
	one, err := svc.Distribution(ctx, q)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, core.Transport, one[0].Category)

	// A change to account c drops the merged result but keeps account l's.
	_, err = st.AddTransaction(ctx, "c", input(3, core.Transport, core.Debit, "50"))
	require.NoError(t, err)

	_, err = svc.Distribution(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, l.hits[CacheDistributions])

	q.AccountID = ""
	all, err = svc.Distribution(ctx, q)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, core.Transport, all[0].Category)
	assert.True(t, all[0].Total.Equal(dec("55")))
}

func TestServiceDistributionErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	day := core.NewDate(2024, time.March, 1)

	_, err := svc.Distribution(ctx, DistributionQuery{AccountID: "missing", From: day, To: day, Direction: core.Debit})
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	_, err = svc.Distribution(ctx, DistributionQuery{From: day, To: day, Direction: "UP"})
	assert.ErrorIs(t, err, core.ErrInvalidDirection)

	_, err = svc.Distribution(ctx, DistributionQuery{From: day, To: core.NewDate(2024, time.February, 1), Direction: core.Debit})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestServiceReturnsCopies(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	first, err := svc.MonthlyBalance(ctx, "c", 2024, time.March)
	require.NoError(t, err)
	first[0].Day = 99

	again, err := svc.MonthlyBalance(ctx, "c", 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, 1, again[0].Day)
}

func TestServiceDistributionReturnsCopies(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService(t)
	_, err := st.AddTransaction(ctx, "c", input(1, core.Food, core.Debit, "30"))
	require.NoError(t, err)

	q := DistributionQuery{
		AccountID: "c",
		From:      core.NewDate(2024, time.March, 1),
		To:        core.NewDate(2024, time.March, 31),
		Direction: core.Debit,
	}
	first, err := svc.Distribution(ctx, q)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NotNil(t, first[0].Percent)
	*first[0].Percent = dec("-1")
	first[0].Total = dec("0")

	again, err := svc.Distribution(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, again[0].Percent)
	assert.True(t, again[0].Percent.Equal(dec("100")), again[0].Percent.String())
	assert.True(t, again[0].Total.Equal(dec("30")))
}

func TestServiceCancelledContext(t *testing.T) {
	svc, _, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cached value is still served; a miss may observe the cancellation.
	_, err := svc.MonthlyBalance(ctx, "c", 2024, time.April)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
