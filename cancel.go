package courier

import (
	"context"
	"fmt"
	"time"
)

// timeoutCause is the cancellation cause installed for the internally
// derived timeout source. Its presence in context.Cause identifies which
// source fired, so the classifier can tell a timeout (408) apart from an
// external cancellation or network abort (0).
type timeoutCause struct {
	timeout time.Duration
}

func (c *timeoutCause) Error() string {
	return fmt.Sprintf("timeout of %s exceeded", c.timeout)
}

// callContext merges the externally supplied context with an internal
// timeout source. The returned cancel func must always run on completion,
// success or failure, so the timer never fires post-hoc.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, *timeoutCause) {
	if timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	cause := &timeoutCause{timeout: timeout}
	ctx, cancel := context.WithTimeoutCause(ctx, timeout, cause)
	return ctx, cancel, cause
}

// firedTimeout reports whether the call context was cancelled by the
// internal timeout source rather than the external token.
func firedTimeout(ctx context.Context, cause *timeoutCause) bool {
	return cause != nil && context.Cause(ctx) == cause
}
