package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"health-profiler/internal/domain"
)

func okChatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func TestHTTPClientSendsTextRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, okChatBody(`{"parsing":{}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "secret", "test-model", 0, zap.NewNop())
	out, err := c.Generate(context.Background(), "instructions", domain.NewTextAnalysisRequest("age 42"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"parsing":{}}` {
		t.Fatalf("unexpected content %q", out)
	}
	if got["model"] != "test-model" {
		t.Fatalf("expected model test-model, got %v", got["model"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(msgs))
	}
	user, _ := msgs[1].(map[string]any)
	if content, _ := user["content"].(string); !strings.Contains(content, "age 42") {
		t.Fatalf("expected user text in content, got %v", user["content"])
	}
}

func TestHTTPClientSendsImageAsDataURL(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		raw = string(body)
		_, _ = io.WriteString(w, okChatBody("{}"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", "", 0, zap.NewNop())
	req := domain.NewImageAnalysisRequest([]byte{0x89, 'P', 'N', 'G'}, "image/png")
	if _, err := c.Generate(context.Background(), "instructions", req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(raw, `"image_url":{"url":"data:image/png;base64,`) {
		t.Fatalf("expected data url image part, got %s", raw)
	}
}

func TestHTTPClientRetriesOnServerError(t *testing.T) {
	retryBackoff = time.Millisecond
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, okChatBody("{}"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", "", 2, zap.NewNop())
	if _, err := c.Generate(context.Background(), "i", domain.NewTextAnalysisRequest("x")); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestHTTPClientDoesNotRetryClientError(t *testing.T) {
	retryBackoff = time.Millisecond
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", "", 3, zap.NewNop())
	_, err := c.Generate(context.Background(), "i", domain.NewTextAnalysisRequest("x"))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status error 400, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestHTTPClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", "", 0, zap.NewNop())
	if _, err := c.Generate(context.Background(), "i", domain.NewTextAnalysisRequest("x")); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestClampRetries(t *testing.T) {
	cases := map[int]int{-1: 0, 0: 0, 3: 3, 50: MaxRetries}
	for in, want := range cases {
		if got := clampRetries(in); got != want {
			t.Fatalf("clampRetries(%d)=%d want %d", in, got, want)
		}
	}
}
