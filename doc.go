// Package courier provides an HTTP request client built around an explicit
// request execution pipeline:
//
//   - Pre / post / error middleware hooks applied in registration order
//   - Response caching driven by Cache-Control max-age, with a bounded
//     FIFO in-memory store and pluggable cache backends
//   - Content negotiation: media-type driven body encoding and decoding
//     (JSON, text, multipart, binary blobs)
//   - Timeout and cancellation coordination with a failure taxonomy that
//     distinguishes timeouts (408) from transport aborts (0) and HTTP errors
//   - Structured error recovery: error hooks may ignore a failure, replace
//     it, or recover with a response, and may re-issue the call through a
//     retry capability
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Safe concurrent use of a single *Client instance
//   - Extensibility via user supplied middleware & pluggable cache / metrics
//
// Typical usage:
//
//	client := courier.New(
//	    courier.WithBaseURL("https://api.example.com"),
//	    courier.WithTimeout(10*time.Second),
//	    courier.WithCache(courier.NewMemoryCache(256)),
//	)
//
//	resp, err := client.Get(ctx, "/users/123", nil)
//
// The pipeline never retries on its own; retry is a capability handed to
// error hooks (see RetryOnFailure for an opt-in policy). The library avoids
// opinionated logging: provide a Logger (e.g. via WithSimpleLogger) + enable
// debug flags selectively (WithDebug / WithDebugConfig) for insight without noise.
package courier
