package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func pollJSON(status string, events []map[string]interface{}, nextAfter int, extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"request_id": "req_abcd1234",
		"status":     status,
		"events":     events,
		"next_after": nextAfter,
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func TestPollCmd_Completed(t *testing.T) {
	var gotAfter string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAfter = r.URL.Query().Get("after")
		json.NewEncoder(w).Encode(pollJSON("completed", []map[string]interface{}{
			{"seq": 1, "kind": "assistant_text", "payload": map[string]string{"text": "outline"}},
			{"seq": 2, "kind": "tool_call", "payload": map[string]string{"name": "add_slide"}},
		}, 2, map[string]interface{}{
			"result": map[string]interface{}{"title": "Deck", "slides": []interface{}{}},
		}))
	}))
	defer srv.Close()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"poll", "req_abcd1234", "--server", srv.URL})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	if gotAfter != "0" {
		t.Errorf("after = %q, want %q", gotAfter, "0")
	}
	out := buf.String()
	if !strings.Contains(out, "[1] assistant_text") {
		t.Errorf("expected first event line, got: %s", out)
	}
	if !strings.Contains(out, "[2] tool_call") {
		t.Errorf("expected second event line, got: %s", out)
	}
	if !strings.Contains(out, "Request req_abcd1234 completed.") {
		t.Errorf("expected completion line, got: %s", out)
	}
	if !strings.Contains(out, `"title":"Deck"`) {
		t.Errorf("expected the result JSON, got: %s", out)
	}
}

func TestPollCmd_PendingWithoutWatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pollJSON("pending", nil, 0, nil))
	}))
	defer srv.Close()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"poll", "req_abcd1234", "--server", srv.URL})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if !strings.Contains(buf.String(), "is pending (resume with --after 0)") {
		t.Errorf("expected the pending line, got: %s", buf.String())
	}
}

func TestPollCmd_FailedReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pollJSON("failed", nil, 0, map[string]interface{}{
			"error": "generation failed: model returned garbage",
		}))
	}))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"poll", "req_abcd1234", "--server", srv.URL})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected a failed request to surface as an error")
	}
	if !strings.Contains(err.Error(), "generation failed: model returned garbage") {
		t.Errorf("error = %q, want the stored failure message", err)
	}
}

func TestPollCmd_WatchFollowsCursorToCompletion(t *testing.T) {
	var calls atomic.Int32
	var afters []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		afters = append(afters, r.URL.Query().Get("after"))
		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode(pollJSON("running", []map[string]interface{}{
				{"seq": 1, "kind": "assistant_text", "payload": map[string]string{"text": "outline"}},
			}, 1, nil))
			return
		}
		json.NewEncoder(w).Encode(pollJSON("completed", []map[string]interface{}{
			{"seq": 2, "kind": "tool_result", "payload": map[string]string{"result": "done"}},
		}, 2, map[string]interface{}{
			"result": map[string]interface{}{"title": "Deck"},
		}))
	}))
	defer srv.Close()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"poll", "req_abcd1234", "--server", srv.URL, "--watch", "--interval", "10ms"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("poll --watch failed: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("polls = %d, want 2", got)
	}
	if len(afters) != 2 || afters[0] != "0" || afters[1] != "1" {
		t.Errorf("cursor sequence = %v, want [0 1]", afters)
	}
	out := buf.String()
	first := strings.Index(out, "[1] assistant_text")
	second := strings.Index(out, "[2] tool_result")
	if first == -1 || second == -1 || second < first {
		t.Errorf("expected both event lines in order, got: %s", out)
	}
}

func TestPollCmd_RequiresRequestID(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"poll"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error without a request ID")
	}
}

func TestPollCmd_NotFoundSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "request not found"})
	}))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"poll", "req_gone", "--server", srv.URL})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "request not found") {
		t.Errorf("error = %v, want the not-found message", err)
	}
}
