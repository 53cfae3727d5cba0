package courier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestRateLimitPacesCalls(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// One token available immediately, then 20ms per token.
	limiter := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)
	client := New(WithBaseURL(server.URL)).Use(RateLimit(limiter))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "/", nil); err != nil {
			t.Fatalf("Get() returned error: %v", err)
		}
	}

	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 transport calls, got %d", calls)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Expected at least two pacing waits, finished in %v", elapsed)
	}
}

func TestRateLimitAbortsOnCancelledContext(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// Empty bucket: any call must wait a full second for a token.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	limiter.Allow()

	client := New(WithBaseURL(server.URL)).Use(RateLimit(limiter))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.Get(ctx, "/", nil); err == nil {
		t.Fatal("Expected the interrupted wait to fail the call")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("Expected no transport contact, got %d calls", calls)
	}
}
