package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRateLimitByIP_EnforcesLimit verifies the per-IP request cap
func TestRateLimitByIP_EnforcesLimit(t *testing.T) {
	mw := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 5})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/managers/logins", nil)
		req.RemoteAddr = "192.168.1.1:8080"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("request %d failed with status %d, expected 200", i+1, recorder.Code)
		}
	}

	// 6th request should be rate limited
	req := httptest.NewRequest("POST", "/managers/logins", nil)
	req.RemoteAddr = "192.168.1.1:8080"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
}

// TestRateLimitByIP_IsolatesClientBuckets verifies separate limits per IP
func TestRateLimitByIP_IsolatesClientBuckets(t *testing.T) {
	mw := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 3})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First IP exhausts its bucket
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/managers/logins", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusOK {
			t.Errorf("first IP request %d failed", i+1)
		}
	}

	// A different IP still gets through
	req := httptest.NewRequest("POST", "/managers/logins", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("second IP should have an independent bucket, got status %d", recorder.Code)
	}
}

func TestDefaultRateLimits(t *testing.T) {
	if got := DefaultLoginRateLimit().RequestsPerMinute; got != 10 {
		t.Errorf("login rate limit: got %d, want 10", got)
	}
	if got := DefaultSubmissionRateLimit().RequestsPerMinute; got != 30 {
		t.Errorf("submission rate limit: got %d, want 30", got)
	}
}
