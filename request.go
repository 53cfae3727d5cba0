package courier

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request describes one logical call. It is mutable only while pre-hooks
// run; the pipeline freezes it before the transport is invoked. A nil
// *Request is equivalent to the zero value.
type Request struct {
	// BaseURL overrides the client's base URL for this call.
	BaseURL string

	// Method defaults to GET when empty.
	Method string

	// Headers are merged over the client's default headers; keys are
	// unique, last write wins, and an empty value drops the header.
	Headers map[string]string

	// Query parameters are appended to the resolved URL. Scalar values are
	// stringified; slices, maps and structs are serialized to JSON text
	// before percent-encoding.
	Query map[string]interface{}

	// Body is the outgoing payload: string, []byte, url.Values, *FormData,
	// *Blob, or any JSON-serializable value. Nil means no body.
	Body interface{}

	// Timeout overrides the client's default timeout for this call.
	Timeout time.Duration

	// CachePrefix is prepended to the resolved URL when forming the cache
	// key as prefix + "-" + url.
	CachePrefix string
}

// Clone returns a deep copy so hooks can rewrite fields without aliasing
// the caller's value. The body is shared; hooks replace it, never mutate it.
func (r *Request) Clone() *Request {
	if r == nil {
		return &Request{}
	}
	out := *r
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	if r.Query != nil {
		out.Query = make(map[string]interface{}, len(r.Query))
		for k, v := range r.Query {
			out.Query[k] = v
		}
	}
	return &out
}

// Header returns the value for key, matching case-insensitively.
func (r *Request) Header(key string) (string, bool) {
	canonical := http.CanonicalHeaderKey(key)
	for k, v := range r.Headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return v, true
		}
	}
	return "", false
}

// SetHeader sets key to value, replacing any case-insensitive match.
func (r *Request) SetHeader(key, value string) {
	r.DeleteHeader(key)
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

// DeleteHeader removes every case-insensitive match for key.
func (r *Request) DeleteHeader(key string) {
	canonical := http.CanonicalHeaderKey(key)
	for k := range r.Headers {
		if http.CanonicalHeaderKey(k) == canonical {
			delete(r.Headers, k)
		}
	}
}

// mergeHeaders layers call headers over client defaults. Call-level entries
// win on collision and an absent (empty) value drops the header entirely.
func mergeHeaders(defaults, call map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(call))
	for k, v := range defaults {
		if v != "" {
			merged[http.CanonicalHeaderKey(k)] = v
		}
	}
	for k, v := range call {
		canonical := http.CanonicalHeaderKey(k)
		if v == "" {
			delete(merged, canonical)
			continue
		}
		merged[canonical] = v
	}
	return merged
}

// resolveURL joins the effective base URL with the endpoint and appends the
// encoded query string.
func resolveURL(base, endpoint string, query map[string]interface{}) (string, error) {
	full := joinURL(base, endpoint)
	if len(query) == 0 {
		return full, nil
	}

	values := url.Values{}
	for key, raw := range query {
		encoded, err := encodeQueryValue(raw)
		if err != nil {
			return "", fmt.Errorf("courier: encode query parameter %q: %w", key, err)
		}
		values.Set(key, encoded)
	}

	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	return full + sep + values.Encode(), nil
}

func joinURL(base, endpoint string) string {
	if base == "" {
		return endpoint
	}
	if endpoint == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(endpoint, "/")
}

// encodeQueryValue stringifies scalars and JSON-serializes composite values.
func encodeQueryValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(val), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// cacheKey forms the lookup key for a resolved URL: prefix + "-" + url,
// with an empty prefix when unset.
func cacheKey(prefix, resolvedURL string) string {
	return prefix + "-" + resolvedURL
}
