package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func embedServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL:    srv.URL,
		Model:      "test-model",
		APIKey:     "sekrit",
		MaxRetries: 2,
		RetryBase:  time.Millisecond,
	})
	c.sleep = func(time.Duration) {} // no real waiting in tests
	return srv, c
}

func vectorsFor(n int) map[string]any {
	data := make([]map[string]any, n)
	for i := range data {
		data[i] = map[string]any{"embedding": []float32{float32(i), 1}}
	}
	return map[string]any{"data": data}
}

func TestEmbed_HappyPath(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath string
	var gotReq embedRequest
	_, c := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(vectorsFor(2))
	})

	vecs, err := c.Embed(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 1 {
		t.Fatalf("vectors = %v", vecs)
	}
	if gotPath != "/v1/embeddings" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sekrit" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "test-model" || len(gotReq.Input) != 2 {
		t.Fatalf("request = %+v", gotReq)
	}
}

func TestEmbed_EmptyInputNoCall(t *testing.T) {
	t.Parallel()

	_, c := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("server must not be called for empty input")
	})
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("empty input: %v %v", vecs, err)
	}
}

func TestEmbed_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, c := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(vectorsFor(1))
	})

	vecs, err := c.Embed(context.Background(), []string{"x"})
	if err != nil {
		t.Fatalf("embed after retry: %v", err)
	}
	if len(vecs) != 1 {
		t.Fatalf("vectors = %v", vecs)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want a retry", calls.Load())
	}
}

func TestEmbed_RetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, c := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := c.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	// initial attempt plus MaxRetries
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestEmbed_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, c := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	if _, err := c.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatalf("expected error for 400")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, 4xx must not retry", calls.Load())
	}
}

func TestEmbed_CountMismatchRejected(t *testing.T) {
	t.Parallel()

	_, c := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(vectorsFor(1))
	})

	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected error when vector count differs from input count")
	}
}

func TestEmbed_ContextCancelled(t *testing.T) {
	t.Parallel()

	_, c := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(vectorsFor(1))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Embed(ctx, []string{"x"}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestBackoff_ExponentialAndCapped(t *testing.T) {
	t.Parallel()

	c := NewClient(Options{RetryBase: 500 * time.Millisecond})
	if got := c.backoff(0); got != 500*time.Millisecond {
		t.Fatalf("backoff(0) = %v", got)
	}
	if got := c.backoff(2); got != 2*time.Second {
		t.Fatalf("backoff(2) = %v", got)
	}
	if got := c.backoff(20); got != 15*time.Second {
		t.Fatalf("backoff cap = %v, want 15s", got)
	}
}
