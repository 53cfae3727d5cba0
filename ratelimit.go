package courier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimit returns a request-hook middleware that waits on a token-bucket
// limiter before the transport is contacted. Waiting respects the call
// context, so a timeout or external cancellation interrupts the wait and
// the call fails before any transport contact.
func RateLimit(limiter *rate.Limiter) Middleware {
	return Middleware{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return req, nil
		},
	}
}
