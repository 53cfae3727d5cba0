// Package backoff provides delay calculation for callers that re-issue
// failed requests, such as retrying error hooks.
package backoff

import (
	"math/rand"
	"time"
)

// Config bounds the exponential delay curve.
type Config struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is the fraction of the computed delay randomized on top of it,
	// clamped to [0, 1].
	Jitter float64
}

// Default is a reasonable curve for remote HTTP services.
var Default = Config{
	Initial:    100 * time.Millisecond,
	Max:        10 * time.Second,
	Multiplier: 2.0,
	Jitter:     0.1,
}

// Delay returns the wait before the given attempt (0-based).
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the exponent so the float math cannot overflow.
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(c.Initial) * pow(c.Multiplier, attempt))
	if delay < 0 || delay > c.Max {
		delay = c.Max
	}

	jitter := c.Jitter
	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}
	if jitter > 0 {
		extra := time.Duration(float64(delay) * jitter * rand.Float64())
		if delay+extra > c.Max {
			delay = c.Max
		} else {
			delay += extra
		}
	}
	return delay
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
