package courier

import "context"

// RequestHook rewrites the request description before the transport is
// contacted. Hooks run in registration order; hook i+1 receives exactly the
// value returned by hook i. Returning nil keeps the prior value. A hook
// error aborts the remaining chain and the whole call with that error.
//
// Hooks are pure transformations: the pipeline runs them on every call,
// cache hits included, so relying on per-call side effects is unsupported.
type RequestHook func(ctx context.Context, req *Request) (*Request, error)

// ResponseHook transforms a successful response envelope. Hooks run in
// registration order over the prior hook's output and never run on a
// failure path. A hook error is a fatal pipeline fault, not a remote
// condition: it propagates directly and is never routed to error hooks.
type ResponseHook func(ctx context.Context, resp *Response) (*Response, error)

// Retry re-executes the same endpoint and request description as a fresh
// pipeline call. It is handed to error hooks; the pipeline never invokes it
// on its own.
type Retry func(ctx context.Context) (*Response, error)

// ErrorHook inspects a classified failure and decides the outcome:
// Continue leaves the record unchanged for the next hook, Recover resolves
// the call successfully with the given envelope, Replace swaps in an
// updated failure record. A hook's own error is appended to the record's
// HookFaults and the next hook still runs with the prior record.
type ErrorHook func(ctx context.Context, failure *Error, retry Retry) (ErrorOutcome, error)

// Middleware bundles the optional hooks registered by one Use call.
type Middleware struct {
	Request  RequestHook
	Response ResponseHook
	Error    ErrorHook
}

type outcomeKind int

const (
	outcomeContinue outcomeKind = iota
	outcomeRecover
	outcomeReplace
)

// ErrorOutcome is the explicit result of an error hook. The zero value is
// Continue.
type ErrorOutcome struct {
	kind     outcomeKind
	response *Response
	failure  *Error
}

// Continue defers to the next error hook with the record unchanged.
func Continue() ErrorOutcome {
	return ErrorOutcome{kind: outcomeContinue}
}

// Recover resolves the call successfully with resp; remaining hooks are
// skipped.
func Recover(resp *Response) ErrorOutcome {
	return ErrorOutcome{kind: outcomeRecover, response: resp}
}

// Replace continues to the next hook with an updated failure record.
func Replace(failure *Error) ErrorOutcome {
	return ErrorOutcome{kind: outcomeReplace, failure: failure}
}
