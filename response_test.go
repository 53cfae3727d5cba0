package courier

import (
	"net/http"
	"testing"
)

func TestResponseOK(t *testing.T) {
	tests := []struct {
		status int
		ok     bool
	}{
		{200, true},
		{201, true},
		{299, true},
		{199, false},
		{300, false},
		{404, false},
		{0, false},
	}
	for _, tt := range tests {
		resp := &Response{Status: tt.status}
		if resp.OK() != tt.ok {
			t.Errorf("Status %d: OK() = %v, want %v", tt.status, resp.OK(), tt.ok)
		}
	}

	var nilResp *Response
	if nilResp.OK() {
		t.Error("Expected nil response not to be OK")
	}
}

func TestResponseClone(t *testing.T) {
	original := &Response{
		Status:     200,
		StatusText: "OK",
		Headers:    http.Header{"X-Trace": {"abc"}},
		Body:       map[string]interface{}{"id": float64(1)},
		RawBody:    []byte(`{"id":1}`),
	}

	clone := original.Clone()
	clone.Headers.Set("X-Trace", "changed")
	clone.RawBody[0] = 'X'

	if original.Headers.Get("X-Trace") != "abc" {
		t.Error("Expected header map to be copied")
	}
	if original.RawBody[0] != '{' {
		t.Error("Expected raw body to be copied")
	}
	if clone.Status != 200 || clone.StatusText != "OK" {
		t.Error("Expected scalar fields carried over")
	}

	var nilResp *Response
	if nilResp.Clone() != nil {
		t.Error("Expected nil clone for nil response")
	}
}

func TestResponseDecodeJSON(t *testing.T) {
	resp := &Response{RawBody: []byte(`{"name": "ada", "age": 36}`)}

	var out struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	if err := resp.DecodeJSON(&out); err != nil {
		t.Fatalf("DecodeJSON() returned error: %v", err)
	}
	if out.Name != "ada" || out.Age != 36 {
		t.Errorf("DecodeJSON() = %+v", out)
	}

	empty := &Response{}
	out.Name = "untouched"
	if err := empty.DecodeJSON(&out); err != nil {
		t.Errorf("Expected empty body to be a no-op, got %v", err)
	}
	if out.Name != "untouched" {
		t.Error("Expected empty body to leave the target unchanged")
	}

	malformed := &Response{RawBody: []byte(`{oops`)}
	if err := malformed.DecodeJSON(&out); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestAsReturnsTypedBodyDirectly(t *testing.T) {
	resp := &Response{Body: "already a string"}
	value, err := As[string](resp)
	if err != nil {
		t.Fatalf("As() returned error: %v", err)
	}
	if value != "already a string" {
		t.Errorf("As() = %q", value)
	}
}

func TestAsRedecodesFromRawBody(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}
	resp := &Response{
		Body:    map[string]interface{}{"name": "ada"},
		RawBody: []byte(`{"name": "ada"}`),
	}

	value, err := As[user](resp)
	if err != nil {
		t.Fatalf("As() returned error: %v", err)
	}
	if value.Name != "ada" {
		t.Errorf("As() = %+v", value)
	}
}

func TestAsNilResponse(t *testing.T) {
	value, err := As[int](nil)
	if err != nil || value != 0 {
		t.Errorf("As(nil) = (%v, %v)", value, err)
	}
}
