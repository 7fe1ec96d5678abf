package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/occurrences", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/occurrences", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected other client to be allowed, got %d", rr.Code)
	}
}

func TestRateLimiterCleanupDropsIdleClients(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 10)
	rl.now = func() time.Time { return now }

	rl.getLimiter("10.0.0.1")
	now = now.Add(2 * time.Hour)
	rl.getLimiter("10.0.0.2")

	rl.CleanupLimiters(time.Hour)

	if rl.Len() != 1 {
		t.Fatalf("expected one client left, got %d", rl.Len())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		value    string
		remote   string
		expected string
	}{
		{"forwarded chain", "X-Forwarded-For", "203.0.113.7, 10.0.0.1", "10.0.0.1:80", "203.0.113.7"},
		{"real ip", "X-Real-IP", "203.0.113.8", "10.0.0.1:80", "203.0.113.8"},
		{"remote addr", "", "", "192.0.2.1:4321", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			if got := clientIP(req); got != tt.expected {
				t.Fatalf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
