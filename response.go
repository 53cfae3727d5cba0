package courier

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the normalized envelope produced once per call: status,
// headers and the decoded body. Post-hooks receive the prior hook's output
// and return a new value; Clone supports that without shared mutation.
type Response struct {
	// Status is the numeric HTTP status code.
	Status int

	// StatusText is the standard reason phrase for Status.
	StatusText string

	// Headers holds the response header mapping.
	Headers http.Header

	// Body is the decoded payload selected by media type: parsed JSON
	// (any), string, *FormData, *Blob, or []byte. Nil when the body was
	// absent or could not be decoded.
	Body interface{}

	// RawBody preserves the undecoded bytes for typed re-decoding.
	RawBody []byte
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Clone returns a copy with its own header map. Body values are shared;
// hooks replace the Body field rather than mutating it in place.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	if r.Headers != nil {
		out.Headers = r.Headers.Clone()
	}
	if r.RawBody != nil {
		out.RawBody = append([]byte(nil), r.RawBody...)
	}
	return &out
}

// DecodeJSON unmarshals the raw body into v. An empty body leaves v
// untouched.
func (r *Response) DecodeJSON(v interface{}) error {
	if r == nil || len(r.RawBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.RawBody, v); err != nil {
		return fmt.Errorf("courier: failed to unmarshal response: %w", err)
	}
	return nil
}

// As decodes a response body into a concrete type. If the decoded body
// already holds a T it is returned directly; otherwise the raw bytes are
// unmarshaled as JSON.
func As[T any](r *Response) (T, error) {
	var out T
	if r == nil {
		return out, nil
	}
	if typed, ok := r.Body.(T); ok {
		return typed, nil
	}
	err := r.DecodeJSON(&out)
	return out, err
}
