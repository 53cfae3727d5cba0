package courier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/courierhttp/courier/internal/backoff"
)

func fastBackoff() backoff.Config {
	return backoff.Config{Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2.0}
}

func TestRetryOnFailureRecoversAfterTransientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL)).Use(RetryOnFailure(3, fastBackoff(), nil))

	resp, err := client.Get(context.Background(), "/flaky", nil)
	if err != nil {
		t.Fatalf("Expected recovery, got %v", err)
	}
	if resp.Body != "recovered" {
		t.Errorf("Expected final envelope, got %v", resp.Body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 transport calls, got %d", calls)
	}
}

func TestRetryOnFailureExhaustsAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL)).Use(RetryOnFailure(2, fastBackoff(), nil))

	_, err := client.Get(context.Background(), "/down", nil)
	if status, ok := IsHTTP(err); !ok || status != http.StatusInternalServerError {
		t.Fatalf("Expected the final failure to surface, got %v", err)
	}
	// Initial call plus two retries.
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 transport calls, got %d", calls)
	}
}

func TestRetryOnFailureSkipsNonRetryableStatuses(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL)).Use(RetryOnFailure(3, fastBackoff(), nil))

	_, err := client.Get(context.Background(), "/missing", nil)
	if status, ok := IsHTTP(err); !ok || status != http.StatusNotFound {
		t.Fatalf("Expected the 404 to surface, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected no retries for a 4xx, got %d calls", calls)
	}
}

func TestRetryOnFailureCustomCondition(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	only429 := func(failure *Error) bool {
		return failure.StatusCode == http.StatusTooManyRequests
	}
	client := New(WithBaseURL(server.URL)).Use(RetryOnFailure(1, fastBackoff(), only429))

	if _, err := client.Get(context.Background(), "/limited", nil); err == nil {
		t.Fatal("Expected failure")
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected one retry under the custom condition, got %d calls", calls)
	}
}

func TestDefaultRetryCondition(t *testing.T) {
	tests := []struct {
		failure *Error
		want    bool
	}{
		{&Error{Type: ErrorTypeTransport}, true},
		{&Error{Type: ErrorTypeTimeout, StatusCode: 408}, true},
		{&Error{Type: ErrorTypeHTTP, StatusCode: 500}, true},
		{&Error{Type: ErrorTypeHTTP, StatusCode: 503}, true},
		{&Error{Type: ErrorTypeHTTP, StatusCode: 404}, false},
		{&Error{Type: ErrorTypeValidation}, false},
	}
	for _, tt := range tests {
		if got := defaultRetryCondition(tt.failure); got != tt.want {
			t.Errorf("defaultRetryCondition(%s/%d) = %v, want %v",
				tt.failure.Type, tt.failure.StatusCode, got, tt.want)
		}
	}
}
