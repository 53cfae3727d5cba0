package courier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": time.Now().Add(expiresIn).Unix(), "sub": "tester"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func authServer(t *testing.T, seen *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = append(*seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBearerAuthCachesNonJWTToken(t *testing.T) {
	var seen []string
	server := authServer(t, &seen)

	var fetches int32
	client := New(WithBaseURL(server.URL)).Use(BearerAuth(
		func(ctx context.Context) (string, error) {
			atomic.AddInt32(&fetches, 1)
			return "opaque-token", nil
		}))

	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "/", nil); err != nil {
			t.Fatalf("Get() returned error: %v", err)
		}
	}

	if atomic.LoadInt32(&fetches) != 1 {
		t.Errorf("Expected a single token fetch, got %d", fetches)
	}
	for _, header := range seen {
		if header != "Bearer opaque-token" {
			t.Errorf("Expected bearer header on every call, got %q", header)
		}
	}
}

func TestBearerAuthRefreshesExpiringJWT(t *testing.T) {
	var seen []string
	server := authServer(t, &seen)

	// The first token is already inside the refresh window, so the second
	// call fetches again.
	tokens := []string{signedToken(t, 5*time.Second), signedToken(t, time.Hour)}
	var fetches int32
	client := New(WithBaseURL(server.URL)).Use(BearerAuth(
		func(ctx context.Context) (string, error) {
			n := atomic.AddInt32(&fetches, 1)
			return tokens[n-1], nil
		}))

	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "/", nil); err != nil {
			t.Fatalf("Get() returned error: %v", err)
		}
	}

	if atomic.LoadInt32(&fetches) != 2 {
		t.Errorf("Expected a refresh for the near-expiry token, got %d fetches", fetches)
	}
	if seen[1] != "Bearer "+tokens[1] || seen[2] != "Bearer "+tokens[1] {
		t.Error("Expected the long-lived token reused after refresh")
	}
}

func TestBearerAuthExplicitHeaderWins(t *testing.T) {
	var seen []string
	server := authServer(t, &seen)

	var fetches int32
	client := New(WithBaseURL(server.URL)).Use(BearerAuth(
		func(ctx context.Context) (string, error) {
			atomic.AddInt32(&fetches, 1)
			return "from-source", nil
		}))

	_, err := client.Get(context.Background(), "/", &Request{
		Headers: map[string]string{"Authorization": "Bearer explicit"},
	})
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}

	if atomic.LoadInt32(&fetches) != 0 {
		t.Error("Expected no token fetch when the call sets Authorization")
	}
	if seen[0] != "Bearer explicit" {
		t.Errorf("Expected the explicit header, got %q", seen[0])
	}
}

func TestBearerAuthSourceFailureAbortsCall(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	sourceErr := errors.New("token endpoint down")
	client := New(WithBaseURL(server.URL)).Use(BearerAuth(
		func(ctx context.Context) (string, error) {
			return "", sourceErr
		}))

	_, err := client.Get(context.Background(), "/", nil)
	if !errors.Is(err, sourceErr) {
		t.Fatalf("Expected the source failure to propagate, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("Expected no transport contact, got %d calls", calls)
	}
}

func TestTokenExpiry(t *testing.T) {
	token := signedToken(t, time.Hour)
	exp := tokenExpiry(token)
	if exp.IsZero() {
		t.Fatal("Expected an exp claim")
	}
	if until := time.Until(exp); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("Expected expiry about an hour out, got %v", until)
	}

	if !tokenExpiry("not-a-jwt").IsZero() {
		t.Error("Expected zero expiry for an opaque token")
	}
}
