package courier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RoundTripper is the transport capability invoked by the pipeline.
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc adapts a function to the RoundTripper interface.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Client executes logical request descriptions through a middleware
// pipeline with response caching, content negotiation and structured error
// recovery. It is safe for concurrent use once middleware registration has
// stabilized; Use is not synchronized against in-flight calls.
type Client struct {
	transport       RoundTripper
	baseURL         string
	headers         map[string]string
	timeout         time.Duration
	cache           Cache
	middleware      []Middleware
	logger          Logger
	metrics         *MetricsCollector
	debug           *DebugConfig
	validationError error
}

// New constructs a Client using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		// The client owns timeout handling through the call context, so
		// the underlying http.Client must not carry its own deadline.
		transport: RoundTripperFunc((&http.Client{}).Do),
		headers:   map[string]string{},
		timeout:   30 * time.Second,
		logger:    nil,
		debug:     DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Use registers middleware and returns the client for chaining. Register
// everything before concurrent traffic begins; the registry is read-mostly
// and not protected against mutation during iteration.
func (c *Client) Use(middleware ...Middleware) *Client {
	c.middleware = append(c.middleware, middleware...)
	return c
}

// Get issues a GET request for endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, spec *Request) (*Response, error) {
	return c.withMethod(ctx, http.MethodGet, endpoint, spec)
}

// Post issues a POST request for endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, spec *Request) (*Response, error) {
	return c.withMethod(ctx, http.MethodPost, endpoint, spec)
}

// Put issues a PUT request for endpoint.
func (c *Client) Put(ctx context.Context, endpoint string, spec *Request) (*Response, error) {
	return c.withMethod(ctx, http.MethodPut, endpoint, spec)
}

// Patch issues a PATCH request for endpoint.
func (c *Client) Patch(ctx context.Context, endpoint string, spec *Request) (*Response, error) {
	return c.withMethod(ctx, http.MethodPatch, endpoint, spec)
}

// Delete issues a DELETE request for endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string, spec *Request) (*Response, error) {
	return c.withMethod(ctx, http.MethodDelete, endpoint, spec)
}

func (c *Client) withMethod(ctx context.Context, method, endpoint string, spec *Request) (*Response, error) {
	spec = spec.Clone()
	spec.Method = method
	return c.Request(ctx, endpoint, spec)
}

// Request runs the full pipeline for one call: header merge, pre-hooks,
// cache lookup, body encoding, cancellation, transport, decoding,
// classification, post-hooks or error hooks, cache population. The supplied
// context is the external cancellation token; it is merged with any
// configured timeout.
func (c *Client) Request(ctx context.Context, endpoint string, spec *Request) (*Response, error) {
	start := time.Now()

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	// The retry capability replays the original description, not the
	// pre-hook-rewritten one, as a fresh pipeline call.
	original := spec.Clone()

	working := spec.Clone()
	working.Headers = mergeHeaders(c.headers, working.Headers)

	method := working.Method
	if method == "" {
		method = http.MethodGet
	}

	if c.debug != nil && c.debug.Enabled && c.debug.LogRequests && c.logger != nil {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "endpoint", endpoint)
	}
	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, endpoint)
		defer c.metrics.RecordRequestEnd(method, endpoint)
	}

	// Pre-hooks run sequentially; each receives the prior hook's output and
	// may rewrite any field including the base URL. A hook error aborts
	// before any transport contact and propagates directly.
	for _, m := range c.middleware {
		if m.Request == nil {
			continue
		}
		next, err := m.Request(ctx, working)
		if err != nil {
			if c.metrics != nil {
				c.metrics.RecordError("PreHook", method, endpoint)
			}
			return nil, err
		}
		if next != nil {
			working = next
		}
	}
	if working.Method != "" {
		method = working.Method
	}

	base := working.BaseURL
	if base == "" {
		base = c.baseURL
	}
	resolvedURL, err := resolveURL(base, endpoint, working.Query)
	if err != nil {
		return nil, err
	}

	key := cacheKey(working.CachePrefix, resolvedURL)
	if c.cache != nil {
		if entry, found := c.cache.Get(key); found {
			if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
				c.logger.Debug("Cache hit", "requestID", requestID, "cacheKey", key)
			}
			if c.metrics != nil {
				c.metrics.RecordCacheHit(method, endpoint)
				c.metrics.RecordRequest(method, endpoint, entry.Response.Status, time.Since(start))
			}
			return entry.Response.Clone(), nil
		}
		if c.metrics != nil {
			c.metrics.RecordCacheMiss(method, endpoint)
		}
	}

	body, err := encodeBody(working)
	if err != nil {
		return nil, err
	}

	// The request description is frozen from here on.
	timeout := working.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	callCtx, cancel, cause := callContext(ctx, timeout)
	defer cancel()

	envelope, failure := c.invokeTransport(callCtx, cause, method, endpoint, resolvedURL, working.Headers, body, requestID)

	if failure == nil && envelope.Status >= 400 {
		failure = &Error{
			Type:       ErrorTypeHTTP,
			Message:    fmt.Sprintf("request failed with status %d %s", envelope.Status, envelope.StatusText),
			StatusCode: envelope.Status,
			Response:   envelope,
			RequestID:  requestID,
			Method:     method,
			URL:        resolvedURL,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
		}
	}

	if failure != nil {
		if c.metrics != nil {
			c.metrics.RecordError(failure.Type, method, endpoint)
			c.metrics.RecordRequest(method, endpoint, failure.StatusCode, time.Since(start))
		}
		retry := func(ctx context.Context) (*Response, error) {
			return c.Request(ctx, endpoint, original)
		}
		return c.runErrorHooks(ctx, failure, retry, key, method, endpoint, requestID)
	}

	// Post-hooks observe the envelope in registration order, each receiving
	// the prior hook's output. A post-hook error indicates a bug in the
	// hook, not a remote condition: it is fatal and bypasses error hooks.
	processed := envelope
	for _, m := range c.middleware {
		if m.Response == nil {
			continue
		}
		next, hookErr := m.Response(ctx, processed)
		if hookErr != nil {
			if c.metrics != nil {
				c.metrics.RecordError("PostHook", method, endpoint)
			}
			return nil, hookErr
		}
		if next != nil {
			processed = next
		}
	}

	c.storeInCache(key, processed, requestID)

	if c.metrics != nil {
		c.metrics.RecordRequest(method, endpoint, processed.Status, time.Since(start))
	}
	return processed, nil
}

// invokeTransport performs the exchange and decodes whatever body is
// available. It returns either a decoded envelope or a classified
// transport/timeout failure; HTTP-status classification is the caller's job.
func (c *Client) invokeTransport(ctx context.Context, cause *timeoutCause, method, endpoint, url string, headers map[string]string, body io.Reader, requestID string) (*Response, *Error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, c.classifyAbort(ctx, cause, err, method, url, requestID)
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.transport.RoundTrip(req)
	if err != nil {
		return nil, c.classifyAbort(ctx, cause, err, method, url, requestID)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		// A partially read body is discarded, not returned.
		return nil, c.classifyAbort(ctx, cause, err, method, url, requestID)
	}

	decoded, clean := decodeBody(resp.Header, raw, c.sink())
	if !clean && c.metrics != nil {
		c.metrics.RecordDecodeFallback(method, endpoint)
	}

	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    resp.Header.Clone(),
		Body:       decoded,
		RawBody:    raw,
	}, nil
}

// classifyAbort builds the failure record for a call that never completed,
// distinguishing the internal timeout source (408) from external
// cancellation and network failures (0). Both carry a synthesized
// diagnostic envelope.
func (c *Client) classifyAbort(ctx context.Context, cause *timeoutCause, err error, method, url, requestID string) *Error {
	if firedTimeout(ctx, cause) {
		message := cause.Error()
		return &Error{
			Type:       ErrorTypeTimeout,
			Message:    message,
			StatusCode: http.StatusRequestTimeout,
			Response: &Response{
				Status:     http.StatusRequestTimeout,
				StatusText: http.StatusText(http.StatusRequestTimeout),
				Headers:    http.Header{},
				Body:       message,
			},
			Cause:     err,
			RequestID: requestID,
			Method:    method,
			URL:       url,
			Timestamp: time.Now(),
		}
	}

	message := "network request failed"
	return &Error{
		Type:       ErrorTypeTransport,
		Message:    message,
		StatusCode: 0,
		Response: &Response{
			Status:  0,
			Headers: http.Header{},
			Body:    message,
		},
		Cause:     err,
		RequestID: requestID,
		Method:    method,
		URL:       url,
		Timestamp: time.Now(),
	}
}

// runErrorHooks drives the recovery protocol: each hook may continue,
// recover with an envelope, or replace the record; a hook's own fault is
// swallowed into HookFaults and the chain proceeds. An unrecovered failure
// always reaches the caller.
func (c *Client) runErrorHooks(ctx context.Context, failure *Error, retry Retry, key, method, endpoint, requestID string) (*Response, error) {
	for _, m := range c.middleware {
		if m.Error == nil {
			continue
		}
		outcome, hookErr := m.Error(ctx, failure, retry)
		if hookErr != nil {
			failure.HookFaults = append(failure.HookFaults, hookErr)
			if c.debug != nil && c.debug.Enabled && c.debug.LogHooks && c.logger != nil {
				c.logger.Warn("Error hook fault swallowed", "requestID", requestID, "error", hookErr.Error())
			}
			if c.metrics != nil {
				c.metrics.RecordHookFault(method, endpoint)
			}
			continue
		}
		switch outcome.kind {
		case outcomeRecover:
			if c.metrics != nil {
				c.metrics.RecordRecovery(method, endpoint)
			}
			c.storeInCache(key, outcome.response, requestID)
			return outcome.response, nil
		case outcomeReplace:
			if outcome.failure != nil {
				failure = outcome.failure
			}
		}
	}
	return nil, failure
}

// storeInCache populates the cache when the envelope's status class and
// freshness directive call for it.
func (c *Client) storeInCache(key string, resp *Response, requestID string) {
	if c.cache == nil || resp == nil {
		return
	}
	ttl, ok := freshnessTTL(resp)
	if !ok {
		return
	}
	c.cache.Set(key, &Entry{Response: resp.Clone()}, ttl)

	if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
		c.logger.Debug("Response cached", "requestID", requestID, "cacheKey", key, "ttl", ttl)
	}
	if c.metrics != nil {
		if mc, okCache := c.cache.(*MemoryCache); okCache {
			c.metrics.RecordCacheSize("default", mc.Len())
		}
	}
}

// sink returns the diagnostic sink, never nil.
func (c *Client) sink() Logger {
	if c.logger != nil {
		return c.logger
	}
	return NoopLogger{}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}
