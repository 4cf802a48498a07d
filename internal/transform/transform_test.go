package transform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNormalize_InsertsBreaksAfterListMarkers(t *testing.T) {
	got := Normalize("1. 第一点\n2.第二点")
	want := "1. <br><br>第一点\n2. <br><br>第二点"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_CollapsesLongBreakRuns(t *testing.T) {
	got := Normalize("a<br><br><br><br><br>b")
	if got != "a<br><br>b" {
		t.Errorf("Normalize = %q, want %q", got, "a<br><br>b")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"1. one\n2. two\n3.three",
		"plain text without markers",
		"1. already <br><br>broken",
		"a<br><br><br>b",
		"",
		"9. last single-digit marker",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestTransform_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "raw notes") {
			t.Errorf("prompt does not wrap the original content: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "1. point one\n2. point two"}},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "gemini-2.0-flash", 0, zap.NewNop())
	res := c.Transform(context.Background(), "raw notes", Config{APIKey: "test-key", Timeout: 5 * time.Second})

	rw, ok := res.(Rewritten)
	if !ok {
		t.Fatalf("result = %#v, want Rewritten", res)
	}
	if !strings.Contains(rw.Text, "1. <br><br>point one") {
		t.Errorf("rewritten text not normalized: %q", rw.Text)
	}
}

func TestTransform_ClientProxyDelegates(t *testing.T) {
	// No server: delegation must not touch the network.
	c := NewClient("http://127.0.0.1:1", "gemini-2.0-flash", 0, zap.NewNop())
	res := c.Transform(context.Background(), "raw notes", Config{
		APIKey:         "k",
		UseClientProxy: true,
		UseRelayProxy:  true,
		Timeout:        10 * time.Second,
	})

	d, ok := res.(Delegated)
	if !ok {
		t.Fatalf("result = %#v, want Delegated", res)
	}
	if !d.Payload.UseClientProxy || !d.Payload.UseRelayProxy {
		t.Errorf("payload flags not carried: %+v", d.Payload)
	}
	if d.Payload.OriginalContent != "raw notes" {
		t.Errorf("original content = %q", d.Payload.OriginalContent)
	}
	if d.Payload.TimeoutSecs != 10 {
		t.Errorf("timeout secs = %d, want 10", d.Payload.TimeoutSecs)
	}
	if !strings.Contains(d.Payload.Prompt, "raw notes") {
		t.Error("prompt missing original content")
	}
}

func TestTransform_UpstreamErrorIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, "gemini-2.0-flash", 0, zap.NewNop())
	res := c.Transform(context.Background(), "raw notes", Config{APIKey: "k", Timeout: 5 * time.Second})

	f, ok := res.(Failure)
	if !ok {
		t.Fatalf("result = %#v, want Failure", res)
	}
	if f.Timeout {
		t.Error("status failure must not be flagged as timeout")
	}
	if f.Reason == "" {
		t.Error("failure reason must be populated")
	}
}

func TestTransform_TimeoutIsDistinguishable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c := NewClient(server.URL, "gemini-2.0-flash", 0, zap.NewNop())
	res := c.Transform(context.Background(), "raw notes", Config{APIKey: "k", Timeout: 50 * time.Millisecond})

	f, ok := res.(Failure)
	if !ok {
		t.Fatalf("result = %#v, want Failure", res)
	}
	if !f.Timeout {
		t.Errorf("timeout not flagged: %+v", f)
	}
}

func TestTransform_EmptyChoicesIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "gemini-2.0-flash", 0, zap.NewNop())
	res := c.Transform(context.Background(), "raw notes", Config{APIKey: "k", Timeout: 5 * time.Second})

	if _, ok := res.(Failure); !ok {
		t.Fatalf("result = %#v, want Failure", res)
	}
}
