package main

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeAPIResponse_Success(t *testing.T) {
	var out struct {
		RequestID string `json:"request_id"`
	}
	if err := decodeAPIResponse(fakeResponse(202, `{"request_id": "req_1"}`), &out); err != nil {
		t.Fatalf("decodeAPIResponse: %v", err)
	}
	if got, want := out.RequestID, "req_1"; got != want {
		t.Errorf("request_id = %q, want %q", got, want)
	}
}

func TestDecodeAPIResponse_NilOut(t *testing.T) {
	if err := decodeAPIResponse(fakeResponse(200, `{"anything": true}`), nil); err != nil {
		t.Errorf("decodeAPIResponse with nil out = %v, want nil", err)
	}
}

func TestDecodeAPIResponse_ServerError(t *testing.T) {
	err := decodeAPIResponse(fakeResponse(409, `{"error": "session busy"}`), nil)
	if err == nil {
		t.Fatal("expected an error for a 409")
	}
	if got, want := err.Error(), "server: session busy (status 409)"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestDecodeAPIResponse_ServerErrorWithoutJSON(t *testing.T) {
	err := decodeAPIResponse(fakeResponse(500, "boom"), nil)
	if err == nil || !strings.Contains(err.Error(), "server returned status 500") {
		t.Errorf("error = %v, want the bare status message", err)
	}
}

func TestDecodeAPIResponse_BadJSON(t *testing.T) {
	var out map[string]interface{}
	err := decodeAPIResponse(fakeResponse(200, `{`), &out)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Errorf("error = %v, want the decode failure", err)
	}
}

func TestNewAPIClient_TrimsTrailingSlash(t *testing.T) {
	c := newAPIClient("http://localhost:8080/")
	if got, want := c.baseURL, "http://localhost:8080"; got != want {
		t.Errorf("baseURL = %q, want %q", got, want)
	}
}
