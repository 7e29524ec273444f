package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/stats"
	"budget/internal/store"
)

// AccountStore is the state container served by the API.
type AccountStore interface {
	store.ReadWriter
	Grouped() store.Groups
}

// Options wires the server to its collaborators. Metrics and Logger are optional.
type Options struct {
	Store     AccountStore
	Stats     *stats.Service
	Metrics   *metrics.Registry
	Logger    *applog.Logger
	RateLimit int

	// TrustedProxies are CIDRs added to the proxies whose forwarding headers are believed.
	TrustedProxies []string
	// Now defaults to time.Now; it picks the default month and date range.
	Now func() time.Time
}

type Server struct {
	http.Server
	store   AccountStore
	stats   *stats.Service
	metrics *metrics.Registry
	mux     *http.ServeMux
	limiter *ratelimit.Limiter
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		store:   opts.Store,
		stats:   opts.Stats,
		metrics: opts.Metrics,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		now:     now,
	}

	mux := http.NewServeMux()
	s.mux = mux
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /api/banks", s.handleListBanks)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("GET /api/accounts/grouped", s.handleGroupedAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/accounts/{id}/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/accounts/{id}/transactions/{txID}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/accounts/{id}/transactions/{txID}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/accounts/{id}/transactions/{txID}/toggle", s.handleToggleTransaction)

	mux.HandleFunc("GET /api/accounts/{id}/balance", s.handleMonthlyBalance)
	mux.HandleFunc("GET /api/distribution", s.handleDistribution)

	ips := security.NewIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := ips.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "error", err)
		}
	}

	var h http.Handler = mux
	if s.metrics != nil {
		// Innermost, so the matched pattern is visible once the mux returns.
		h = s.metrics.Middleware(h)
	}
	h = s.limiter.Middleware(ips.ClientIP, s.handleRateLimited,
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(logger.WithComponent(applog.ComponentHTTP), ips.ClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.store == nil || s.stats == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleRateLimited answers a throttled request. The metrics middleware never
// sees it, so it is counted here under the route it would have matched.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request, _ time.Duration) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	if s.metrics != nil {
		_, route := s.mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRejected(r.Method, route, http.StatusTooManyRequests)
	}
	ErrorResponse(r, http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}
