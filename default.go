package courier

import "sync"

// Process-scoped default instance. It is created lazily on first use or by
// an explicit Configure call; nothing is constructed at load time.
var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-scoped client, creating it with default
// options on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient == nil {
		defaultClient = New()
	}
	return defaultClient
}

// Configure replaces the process-scoped client with one built from the
// given options and returns it.
func Configure(options ...Option) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultClient = New(options...)
	return defaultClient
}

// ResetDefault discards the process-scoped client so the next Default call
// constructs a fresh one. Intended for test isolation.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultClient = nil
}
