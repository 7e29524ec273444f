package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/stats"
	"budget/internal/store"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedAccounts() []core.Account {
	return []core.Account{
		{
			ID: "1", Label: "Compte Courant", Type: core.Checking, InitialBalance: dec("1000"), BankID: "lbp",
			Transactions: []core.Transaction{
				{ID: "t3", Date: core.NewDate(2024, 3, 10), Label: "Courses", Category: core.Food, Direction: core.Debit, Amount: dec("50"), Validated: false},
				{ID: "t2", Date: core.NewDate(2024, 3, 1), Label: "Salaire", Category: core.Salary, Direction: core.Credit, Amount: dec("200"), Validated: true},
				{ID: "t1", Date: core.NewDate(2024, 2, 20), Label: "Navigo", Category: core.Transport, Direction: core.Debit, Amount: dec("10"), Validated: true},
			},
		},
		{ID: "2", Label: "Livret A", Type: core.LivretA, InitialBalance: dec("50")},
	}
}

type testEnv struct {
	server  *Server
	store   *store.Store
	metrics *metrics.Registry
}

func newTestEnv(t *testing.T, rateLimit int) *testEnv {
	t.Helper()
	var svc *stats.Service
	st, err := store.New(seedAccounts(), store.Options{
		OnChange: func(ctx context.Context, c store.Change) { svc.Invalidate(ctx, c) },
	})
	require.NoError(t, err)
	svc = stats.NewService(st, stats.ServiceConfig{CacheSize: 16, CacheTTL: time.Minute})

	reg := metrics.New()
	srv := NewServer(":0", Options{
		Store:     st,
		Stats:     svc,
		Metrics:   reg,
		Logger:    applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard}),
		RateLimit: rateLimit,
		Now:       func() time.Time { return fixedNow },
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{server: srv, store: st, metrics: reg}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "203.0.113.7:5555"
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, 60)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())
}

func TestCommonHeaders(t *testing.T) {
	env := newTestEnv(t, 60)
	rec := env.do(t, http.MethodGet, "/api/banks", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	banks := decode[[]core.Bank](t, rec)
	assert.Len(t, banks, 3)
}

func TestListAccountsCarriesBalances(t *testing.T) {
	env := newTestEnv(t, 60)
	rec := env.do(t, http.MethodGet, "/api/accounts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	views := decode[[]AccountView](t, rec)
	require.Len(t, views, 2)

	checking := views[0]
	assert.Equal(t, "1", checking.ID)
	assert.True(t, checking.TotalBalance.Equal(dec("1190")), checking.TotalBalance.String())
	assert.True(t, checking.ProjectedBalance.Equal(dec("1140")), checking.ProjectedBalance.String())
	assert.Equal(t, core.TonePositive, checking.Tone)
	assert.Equal(t, "Compte Courant", checking.TypeLabel)
	require.NotNil(t, checking.Bank)
	assert.Equal(t, "La Banque Postale", checking.Bank.Name)
	assert.Equal(t, 3, checking.Transactions)

	assert.Equal(t, core.ToneMuted, views[1].Tone)
	assert.Nil(t, views[1].Bank)

	// Amounts travel as decimal strings.
	assert.Contains(t, rec.Body.String(), `"totalBalance":"1190"`)
}

func TestGroupedAccounts(t *testing.T) {
	env := newTestEnv(t, 60)
	rec := env.do(t, http.MethodGet, "/api/accounts/grouped", "")
	require.Equal(t, http.StatusOK, rec.Code)

	g := decode[GroupedView](t, rec)
	require.Len(t, g.Checking, 1)
	require.Len(t, g.Savings, 1)
	assert.Equal(t, "2", g.Savings[0].ID)
}

func TestAccountLifecycle(t *testing.T) {
	env := newTestEnv(t, 60)

	rec := env.do(t, http.MethodPost, "/api/accounts", `{"label":"  PEA  ","type":"PEA","initialBalance":"250.50","bankId":"fortuneo"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[AccountView](t, rec)
	assert.Equal(t, "PEA", created.Label)
	assert.Equal(t, "/api/accounts/"+created.ID, rec.Header().Get("Location"))

	rec = env.do(t, http.MethodPatch, "/api/accounts/"+created.ID, `{"label":"PEA Fortuneo"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[AccountView](t, rec)
	assert.Equal(t, "PEA Fortuneo", updated.Label)
	assert.True(t, updated.InitialBalance.Equal(dec("250.5")))

	rec = env.do(t, http.MethodGet, "/api/accounts/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/accounts/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/accounts/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountErrors(t *testing.T) {
	env := newTestEnv(t, 60)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantError  string
	}{
		{"malformed json", http.MethodPost, "/api/accounts", `{"label":`, http.StatusBadRequest, ""},
		{"empty body", http.MethodPost, "/api/accounts", "", http.StatusBadRequest, ""},
		{"unknown field", http.MethodPost, "/api/accounts", `{"label":"x","type":"PEA","color":"red"}`, http.StatusBadRequest, ""},
		{"unknown type", http.MethodPost, "/api/accounts", `{"label":"x","type":"CRYPTO"}`, http.StatusUnprocessableEntity, ""},
		{"empty label", http.MethodPost, "/api/accounts", `{"label":" ","type":"PEA"}`, http.StatusUnprocessableEntity, ""},
		{"negative savings", http.MethodPost, "/api/accounts", `{"label":"x","type":"LDDS","initialBalance":"-1"}`, http.StatusUnprocessableEntity, core.ErrInvalidBalance.Error()},
		{"negative patch", http.MethodPatch, "/api/accounts/2", `{"initialBalance":"-10"}`, http.StatusUnprocessableEntity, core.ErrInvalidBalance.Error()},
		{"missing account", http.MethodPatch, "/api/accounts/404", `{"label":"x"}`, http.StatusNotFound, ""},
		{"delete missing", http.MethodDelete, "/api/accounts/404", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decode[ErrorBody](t, rec)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, rec.Header().Get("X-Request-ID"), body.RequestID)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			}
		})
	}

	// A rejected mutation leaves the account untouched.
	a, err := env.store.Account("2")
	require.NoError(t, err)
	assert.True(t, a.InitialBalance.Equal(dec("50")))
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t, 60)

	rec := env.do(t, http.MethodPost, "/api/accounts/1/transactions",
		`{"date":"2024-03-12","label":"Metro","category":"TRANSPORT","direction":"DEBIT","amount":"2.15"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Transaction](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Validated)
	assert.Equal(t, "/api/accounts/1/transactions/"+created.ID, rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/api/accounts/1/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]core.Transaction](t, rec)
	require.Len(t, all, 4)
	assert.Equal(t, created.ID, all[0].ID, "new transactions come first")

	rec = env.do(t, http.MethodPost, "/api/accounts/1/transactions/"+created.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[core.Transaction](t, rec).Validated)

	rec = env.do(t, http.MethodPut, "/api/accounts/1/transactions/"+created.ID,
		`{"date":"2024-03-12","label":"Metro","category":"TRANSPORT","direction":"DEBIT","amount":"4.30","validated":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[core.Transaction](t, rec).Amount.Equal(dec("4.3")))

	rec = env.do(t, http.MethodDelete, "/api/accounts/1/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/accounts/1/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactionsFilters(t *testing.T) {
	env := newTestEnv(t, 60)

	rec := env.do(t, http.MethodGet, "/api/accounts/1/transactions?year=2024&month=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Transaction](t, rec), 2)

	rec = env.do(t, http.MethodGet, "/api/accounts/1/transactions?year=2024&month=3&unvalidated=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	txs := decode[[]core.Transaction](t, rec)
	require.Len(t, txs, 1)
	assert.Equal(t, "t3", txs[0].ID)

	rec = env.do(t, http.MethodGet, "/api/accounts/2/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/accounts/1/transactions?month=13", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/accounts/404/transactions", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionErrors(t *testing.T) {
	env := newTestEnv(t, 60)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
	}{
		{"negative amount", "/api/accounts/1/transactions", `{"date":"2024-03-12","label":"x","category":"FOOD","direction":"DEBIT","amount":"-1"}`, http.StatusUnprocessableEntity},
		{"unknown category", "/api/accounts/1/transactions", `{"date":"2024-03-12","label":"x","category":"GIFTS","direction":"DEBIT","amount":"1"}`, http.StatusUnprocessableEntity},
		{"invalid date", "/api/accounts/1/transactions", `{"date":"2024-02-30","label":"x","category":"FOOD","direction":"DEBIT","amount":"1"}`, http.StatusUnprocessableEntity},
		{"malformed amount", "/api/accounts/1/transactions", `{"date":"2024-03-12","label":"x","category":"FOOD","direction":"DEBIT","amount":"abc"}`, http.StatusUnprocessableEntity},
		{"missing date", "/api/accounts/1/transactions", `{"label":"x","category":"FOOD","direction":"DEBIT","amount":"1"}`, http.StatusUnprocessableEntity},
		{"empty date", "/api/accounts/1/transactions", `{"date":"","label":"x","category":"FOOD","direction":"DEBIT","amount":"1"}`, http.StatusUnprocessableEntity},
		{"unknown field", "/api/accounts/1/transactions", `{"date":"2024-03-12","label":"x","category":"FOOD","direction":"DEBIT","amount":"1","memo":"y"}`, http.StatusBadRequest},
		{"missing account", "/api/accounts/404/transactions", `{"date":"2024-03-12","label":"x","category":"FOOD","direction":"DEBIT","amount":"1"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec := env.do(t, http.MethodPost, "/api/accounts/1/transactions/missing/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAmountsAreRoundedToCents(t *testing.T) {
	env := newTestEnv(t, 60)

	rec := env.do(t, http.MethodPost, "/api/accounts/2/transactions",
		`{"date":"2024-03-12","label":"Interets","category":"SALARY","direction":"CREDIT","amount":"0.005","validated":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decode[core.Transaction](t, rec).Amount.Equal(dec("0.01")))

	rec = env.do(t, http.MethodPost, "/api/accounts/2/transactions",
		`{"date":"2024-03-13","label":"Virement","category":"SALARY","direction":"CREDIT","amount":"12,345"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decode[core.Transaction](t, rec).Amount.Equal(dec("12.35")))

	rec = env.do(t, http.MethodPost, "/api/accounts", `{"label":"Courant","type":"CHECKING","initialBalance":-10.125}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decode[AccountView](t, rec).InitialBalance.Equal(dec("-10.13")))

	rec = env.do(t, http.MethodPatch, "/api/accounts/2", `{"initialBalance":"60.004"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[AccountView](t, rec)
	assert.True(t, view.InitialBalance.Equal(dec("60")))
	assert.True(t, view.TotalBalance.Equal(dec("60.01")), view.TotalBalance.String())
}

func TestMonthlyBalance(t *testing.T) {
	env := newTestEnv(t, 60)

	rec := env.do(t, http.MethodGet, "/api/accounts/1/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[BalanceView](t, rec)
	assert.Equal(t, 2024, view.Year)
	assert.Equal(t, 3, view.Month)
	require.Len(t, view.Days, 31)
	assert.True(t, view.Days[0].Validated.Equal(dec("1200")))
	assert.True(t, view.Closing.Validated.Equal(dec("1200")))
	assert.True(t, view.Closing.Projected.Equal(dec("1150")))

	rec = env.do(t, http.MethodGet, "/api/accounts/1/balance?year=2024&month=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[BalanceView](t, rec)
	require.Len(t, view.Days, 29)
	assert.True(t, view.Closing.Validated.Equal(dec("990")))

	// A new transaction is reflected despite the cached series.
	rec = env.do(t, http.MethodPost, "/api/accounts/1/transactions",
		`{"date":"2024-03-20","label":"Loyer","category":"RENT","direction":"DEBIT","amount":"800","validated":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/accounts/1/balance?year=2024&month=3", "")
	assert.True(t, decode[BalanceView](t, rec).Closing.Validated.Equal(dec("400")))

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodGet, "/api/accounts/1/balance?month=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/accounts/1/balance?year=abc", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/accounts/404/balance", "").Code)
}

func TestDistribution(t *testing.T) {
	env := newTestEnv(t, 60)

	rec := env.do(t, http.MethodGet, "/api/distribution", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[DistributionView](t, rec)
	assert.Equal(t, stats.AllAccounts, view.Account)
	assert.Equal(t, core.Debit, view.Direction)
	assert.Equal(t, "2024-02-14", view.From.String())
	assert.Equal(t, "2024-03-15", view.To.String())
	require.Len(t, view.Groups, 2)
	assert.Equal(t, core.Food, view.Groups[0].Category)
	assert.True(t, view.Total.Equal(dec("60")))
	require.NotNil(t, view.Groups[0].Percent)
	assert.True(t, view.Groups[0].Percent.Equal(dec("83.33")))

	rec = env.do(t, http.MethodGet, "/api/distribution?account=1&from=2024-03-01&to=2024-03-31&direction=credit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[DistributionView](t, rec)
	require.Len(t, view.Groups, 1)
	assert.Equal(t, core.Salary, view.Groups[0].Category)

	rec = env.do(t, http.MethodGet, "/api/distribution?account=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"groups":[]`)

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodGet, "/api/distribution?direction=SIDEWAYS", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodGet, "/api/distribution?from=2024-03-10&to=2024-03-01", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/distribution?from=yesterday", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/distribution?account=404", "").Code)
}

func TestRateLimitAppliesToMutationsOnly(t *testing.T) {
	env := newTestEnv(t, 2)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/accounts", "").Code)
	}

	body := `{"label":"x","type":"PEL","initialBalance":"1"}`
	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/accounts", body).Code)
	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/accounts", body).Code)

	rec := env.do(t, http.MethodPost, "/api/accounts", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, decode[ErrorBody](t, rec).Error)
	assert.Len(t, env.store.Accounts(), 4)

	metricsBody := env.do(t, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, `budget_http_requests_total{method="POST",route="POST /api/accounts",status="429"} 1`)
	assert.Contains(t, metricsBody, `budget_http_requests_total{method="POST",route="POST /api/accounts",status="201"} 2`)
}

func TestTrustedProxiesSeparateForwardedClients(t *testing.T) {
	newServer := func(trusted []string) *Server {
		st, err := store.New(seedAccounts(), store.Options{})
		require.NoError(t, err)
		srv := NewServer(":0", Options{
			Store:          st,
			Stats:          stats.NewService(st, stats.ServiceConfig{CacheSize: 16, CacheTTL: time.Minute}),
			Logger:         applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard}),
			RateLimit:      1,
			TrustedProxies: trusted,
		})
		t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
		return srv
	}
	post := func(srv *Server, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"label":"x","type":"PEL"}`))
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		return rec.Code
	}

	untrusted := newServer(nil)
	assert.Equal(t, http.StatusCreated, post(untrusted, "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, post(untrusted, "198.51.100.2"))

	trusted := newServer([]string{"203.0.113.0/24", "not-a-cidr"})
	assert.Equal(t, http.StatusCreated, post(trusted, "198.51.100.1"))
	assert.Equal(t, http.StatusCreated, post(trusted, "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, post(trusted, "198.51.100.1"))
}

func TestFailedRequestsAreLoggedWithTheirCategory(t *testing.T) {
	var buf bytes.Buffer
	st, err := store.New(seedAccounts(), store.Options{})
	require.NoError(t, err)
	srv := NewServer(":0", Options{
		Store:     st,
		Stats:     stats.NewService(st, stats.ServiceConfig{CacheSize: 16, CacheTTL: time.Minute}),
		Logger:    applog.New(applog.Config{Level: slog.LevelWarn, Format: "text", Output: &buf}),
		RateLimit: 60,
		Now:       func() time.Time { return fixedNow },
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	env := &testEnv{server: srv, store: st}

	tests := []struct {
		method, target, body string
		want                 []string
	}{
		{http.MethodGet, "/api/accounts/404", "", []string{"error_type=not_found_error", "operation=read", "account_id=404"}},
		{http.MethodPatch, "/api/accounts/2", `{"initialBalance":"-1"}`, []string{"error_type=balance_error", "operation=update"}},
		{http.MethodPost, "/api/accounts/1/transactions", `{"label":"x","category":"FOOD","direction":"DEBIT","amount":"1"}`, []string{"error_type=validation_error", "operation=create"}},
		{http.MethodPost, "/api/accounts", `{"label":`, []string{"error_type=request_error", "operation=parse"}},
		{http.MethodPost, "/api/accounts/1/transactions/nope/toggle", "", []string{"error_type=not_found_error", "operation=toggle", "transaction_id=nope"}},
		{http.MethodGet, "/api/accounts/1/balance?month=13", "", []string{"error_type=validation_error", "operation=read"}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			buf.Reset()
			env.do(t, tt.method, tt.target, tt.body)
			out := buf.String()
			assert.Contains(t, out, `msg="Request failed"`)
			assert.Contains(t, out, "level=WARN")
			assert.Contains(t, out, "request_id=req_")
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 60)
	env.do(t, http.MethodGet, "/api/accounts/1", "")
	env.do(t, http.MethodGet, "/nowhere", "")

	rec := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `budget_http_requests_total{method="GET",route="GET /api/accounts/{id}",status="200"} 1`)
	assert.Contains(t, body, `route="unmatched",status="404"`)
}

func TestUnsupportedMethod(t *testing.T) {
	env := newTestEnv(t, 60)
	rec := env.do(t, http.MethodPut, "/api/accounts", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
