package courier

import (
	"context"
	"sync"
	"time"
)

// CircuitState represents the state of the circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
}

// CircuitBreaker tracks consecutive outcomes and short-circuits calls while
// open. It is shared across concurrent calls and guarded by a mutex.
type CircuitBreaker struct {
	mu          sync.Mutex
	config      BreakerConfig
	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time
}

// NewCircuitBreaker creates a breaker, filling zero thresholds with
// defaults.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 2
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Allow reports whether a call may proceed, transitioning open → half-open
// once the recovery timeout has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) >= cb.config.RecoveryTimeout {
			cb.state = StateHalfOpen
			cb.successes = 0
			return true
		}
		return false
	default:
		return false
	}
}

// RecordFailure counts a failed call and opens the circuit at the
// threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()
	if cb.state != StateOpen && cb.failures >= cb.config.FailureThreshold {
		cb.state = StateOpen
	}
}

// RecordSuccess counts a successful call; enough successes in half-open
// close the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failures = 0
		}
	case StateClosed:
		cb.failures = 0
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Breaker returns middleware wiring a circuit breaker into the pipeline:
// the request hook rejects calls while the circuit is open, the response
// hook records successes, and the error hook records failures without
// altering the record.
func Breaker(cb *CircuitBreaker) Middleware {
	return Middleware{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			if !cb.Allow() {
				return nil, &Error{
					Type:      ErrorTypeTransport,
					Message:   "circuit breaker is open",
					Timestamp: time.Now(),
				}
			}
			return req, nil
		},
		Response: func(ctx context.Context, resp *Response) (*Response, error) {
			cb.RecordSuccess()
			return resp, nil
		},
		Error: func(ctx context.Context, failure *Error, retry Retry) (ErrorOutcome, error) {
			cb.RecordFailure()
			return Continue(), nil
		},
	}
}
