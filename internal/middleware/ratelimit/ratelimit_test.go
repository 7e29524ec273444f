package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func allowed(rl *Limiter, clientIP string) bool {
	_, ok := rl.allow(clientIP)
	return ok
}

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowWithinWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !allowed(rl, "a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if allowed(rl, "a") {
		t.Fatal("fourth request should be limited")
	}
	if !allowed(rl, "b") {
		t.Fatal("other clients are independent")
	}

	// Steady traffic must not extend the window.
	*now = now.Add(59 * time.Second)
	if allowed(rl, "a") {
		t.Fatal("still inside the first window")
	}
	*now = now.Add(2 * time.Second)
	if !allowed(rl, "a") {
		t.Fatal("a new window should start")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 3)
	allowed(rl, "a")
	allowed(rl, "b")
	*now = now.Add(2 * time.Minute)
	allowed(rl, "c")

	rl.cleanupStaleEntries()
	if got := len(rl.clients); got != 1 {
		t.Fatalf("tracked clients = %d, want 1", got)
	}
}

func TestMiddlewareOnlyLimitsListedMethods(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	var limited int
	h := rl.Middleware(
		func(*http.Request) string { return "client" },
		func(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
		http.MethodPost, http.MethodDelete,
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	do := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/accounts", nil))
		return rec
	}

	for i := 0; i < 5; i++ {
		if rec := do(http.MethodGet); rec.Code != http.StatusOK {
			t.Fatalf("GET must not be limited, got %d", rec.Code)
		}
	}
	if rec := do(http.MethodPost); rec.Code != http.StatusOK {
		t.Fatalf("first POST allowed, got %d", rec.Code)
	}
	rec := do(http.MethodDelete)
	if rec.Code != http.StatusTooManyRequests || limited != 1 {
		t.Fatalf("second mutation should be limited, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
