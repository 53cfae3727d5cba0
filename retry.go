package courier

import (
	"context"
	"time"

	"github.com/courierhttp/courier/internal/backoff"
)

type retryAttemptKey struct{}

// RetryOnFailure returns an error-hook middleware that re-issues failing
// calls through the retry capability, up to maxAttempts additional
// attempts with exponential backoff between them. Only transport-originated
// failures reach error hooks, so this never fires for hook bugs.
//
// The pipeline itself never retries; registering this middleware is the
// explicit opt-in. By default only transport and timeout failures and 5xx
// statuses are retried; pass a condition to override.
func RetryOnFailure(maxAttempts int, cfg backoff.Config, condition func(*Error) bool) Middleware {
	if condition == nil {
		condition = defaultRetryCondition
	}
	return Middleware{
		Error: func(ctx context.Context, failure *Error, retry Retry) (ErrorOutcome, error) {
			attempt, _ := ctx.Value(retryAttemptKey{}).(int)
			if attempt >= maxAttempts || !condition(failure) {
				return Continue(), nil
			}

			delay := cfg.Delay(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Continue(), nil
			}

			resp, err := retry(context.WithValue(ctx, retryAttemptKey{}, attempt+1))
			if err != nil {
				if replacement, ok := err.(*Error); ok {
					return Replace(replacement), nil
				}
				return Continue(), err
			}
			return Recover(resp), nil
		},
	}
}

func defaultRetryCondition(failure *Error) bool {
	switch failure.Type {
	case ErrorTypeTransport, ErrorTypeTimeout:
		return true
	case ErrorTypeHTTP:
		return failure.StatusCode >= 500
	}
	return false
}
