package courier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource produces a bearer token, typically by calling a token
// endpoint. It is invoked lazily and again whenever the cached token is
// about to expire.
type TokenSource func(ctx context.Context) (string, error)

// bearerRefreshWindow is how close to the exp claim a token may get before
// it is refreshed.
const bearerRefreshWindow = 30 * time.Second

// BearerAuth returns a request-hook middleware attaching an Authorization
// header. Tokens are cached; when the token is a JWT its exp claim is
// inspected (without signature verification, the token is ours) and the
// source is consulted again near expiry. Non-JWT tokens are fetched once
// and reused. An explicit Authorization header on the call wins.
func BearerAuth(source TokenSource) Middleware {
	var (
		mu        sync.Mutex
		token     string
		expiresAt time.Time
	)

	return Middleware{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			if _, explicit := req.Header("Authorization"); explicit {
				return req, nil
			}

			mu.Lock()
			defer mu.Unlock()

			stale := token == "" ||
				(!expiresAt.IsZero() && time.Until(expiresAt) < bearerRefreshWindow)
			if stale {
				fresh, err := source(ctx)
				if err != nil {
					return nil, fmt.Errorf("courier: fetch bearer token: %w", err)
				}
				token = fresh
				expiresAt = tokenExpiry(fresh)
			}

			req.SetHeader("Authorization", "Bearer "+token)
			return req, nil
		},
	}
}

// tokenExpiry extracts the exp claim from a JWT, or zero when the token is
// not a parseable JWT.
func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
