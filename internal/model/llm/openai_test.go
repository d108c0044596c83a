package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newChatServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": answer}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := newChatServer(t, "the answer")
	defer srv.Close()

	c, err := NewOpenAIClient("openai", "test-model", "key", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	got, err := c.Generate("question", GenerateOptions{MaxTokens: 64})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "the answer" {
		t.Errorf("Generate = %q", got)
	}
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient("openai", "m", "k", srv.URL)
	if _, err := c.Generate("q", GenerateOptions{}); err == nil {
		t.Fatal("expected error when choices empty")
	}
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient("openai", "m", "k", srv.URL)
	if _, err := c.Generate("q", GenerateOptions{}); err == nil {
		t.Fatal("expected error on non-200")
	}
}

type countingClient struct {
	calls int64
}

func (c *countingClient) Generate(prompt string, o GenerateOptions) (string, error) {
	return c.GenerateWithContext(context.Background(), prompt, o)
}
func (c *countingClient) GenerateWithContext(ctx context.Context, prompt string, o GenerateOptions) (string, error) {
	atomic.AddInt64(&c.calls, 1)
	return "ok", nil
}
func (c *countingClient) Model() string    { return "fake" }
func (c *countingClient) Provider() string { return "fake" }

func TestRateLimitedClient_PassThrough(t *testing.T) {
	inner := &countingClient{}
	limiter := NewRateLimiter(nil, LimitConfig{RequestsPerMinute: 6000, MaxConcurrent: 2})
	c := NewRateLimitedClient(inner, limiter)

	for i := 0; i < 3; i++ {
		got, err := c.Generate("q", GenerateOptions{})
		if err != nil || got != "ok" {
			t.Fatalf("call %d: got=%q err=%v", i, got, err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d", inner.calls)
	}
	if c.Model() != "fake" || c.Provider() != "fake" {
		t.Error("proxy accessors broken")
	}
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	limiter := NewRateLimiter(map[string]LimitConfig{
		"slow": {RequestsPerMinute: 0.001, MaxConcurrent: 1},
	}, LimitConfig{})

	// 第一次耗尽 burst
	ctx := context.Background()
	if err := limiter.Wait(ctx, "slow"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	limiter.Release("slow")

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(cancelled, "slow"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
