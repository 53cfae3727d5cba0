package courier

import (
	"errors"
	"fmt"
	"time"
)

// Error type labels used in the failure taxonomy.
const (
	// ErrorTypeTransport marks a call that never completed: network failure
	// or external cancellation. StatusCode sentinel is 0.
	ErrorTypeTransport = "Transport"

	// ErrorTypeTimeout marks a call whose configured timeout fired before
	// the transport completed. StatusCode sentinel is 408.
	ErrorTypeTimeout = "Timeout"

	// ErrorTypeHTTP marks a completed exchange whose status is outside the
	// success range (>= 400).
	ErrorTypeHTTP = "HTTP"

	// ErrorTypeValidation marks invalid client configuration.
	ErrorTypeValidation = "Validation"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrRequestTimeout is matched by errors.Is for timeout failures.
	ErrRequestTimeout = errors.New("courier: request timeout")

	// ErrTransport is matched by errors.Is for transport-level failures.
	ErrTransport = errors.New("courier: transport failure")
)

// Error is the failure record produced by the pipeline. StatusCode carries
// the taxonomy sentinel: 0 for transport failures, 408 for timeouts, the
// actual status for HTTP failures. Response holds a best-effort decoded
// error envelope. HookFaults collects secondary failures raised by error
// hooks themselves; they are never surfaced as the primary cause.
type Error struct {
	Type       string
	Message    string
	StatusCode int
	Response   *Response
	Cause      error
	HookFaults []error

	RequestID string
	Method    string
	URL       string
	Timestamp time.Time
	Duration  time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is, and maps the taxonomy onto the
// package sentinels.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrRequestTimeout:
		return e.Type == ErrorTypeTimeout
	case ErrTransport:
		return e.Type == ErrorTypeTransport
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *Error) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	for i, fault := range e.HookFaults {
		info += fmt.Sprintf("Hook Fault %d: %v\n", i, fault)
	}
	return info
}

// IsTimeout reports whether err is a timeout failure (status 408).
func IsTimeout(err error) bool {
	return errors.Is(err, ErrRequestTimeout)
}

// IsTransport reports whether err is a transport failure (status 0).
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsHTTP reports whether err is an HTTP failure, and returns its status.
func IsHTTP(err error) (int, bool) {
	var ce *Error
	if errors.As(err, &ce) && ce.Type == ErrorTypeHTTP {
		return ce.StatusCode, true
	}
	return 0, false
}
