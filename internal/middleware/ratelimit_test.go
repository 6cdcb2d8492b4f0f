package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewRateLimiter(100, 5, nil)
	handler := rl.Handler(okHandler(nil))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/v1/streams", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimiterBlocksBurstOverflow(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, nil)
	handler := rl.Handler(okHandler(nil))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/v1/streams", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	req := httptest.NewRequest("GET", "/v1/streams", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("overflow status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set on 429")
	}
}

func TestRateLimiterKeysClientsSeparately(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, nil)
	handler := rl.Handler(okHandler(nil))

	first := httptest.NewRequest("GET", "/v1/streams", nil)
	first.RemoteAddr = "10.0.0.3:1111"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first client status = %d, want 200", rec.Code)
	}

	// Same client again is over budget.
	again := httptest.NewRequest("GET", "/v1/streams", nil)
	again.RemoteAddr = "10.0.0.3:2222"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("same client status = %d, want 429", rec.Code)
	}

	// A different client has its own bucket.
	other := httptest.NewRequest("GET", "/v1/streams", nil)
	other.RemoteAddr = "10.0.0.4:1111"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterUsesAuthenticatedUser(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, nil)
	handler := rl.Handler(okHandler(nil))

	// Two requests from different IPs but the same user share one bucket.
	req := httptest.NewRequest("GET", "/v1/streams", nil)
	req.RemoteAddr = "10.0.0.5:1111"
	req = req.WithContext(WithUserID(req.Context(), "user-9"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("GET", "/v1/streams", nil)
	req.RemoteAddr = "10.0.0.6:1111"
	req = req.WithContext(WithUserID(req.Context(), "user-9"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", rec.Code)
	}
}
