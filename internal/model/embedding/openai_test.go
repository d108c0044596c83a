package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newEmbeddingsServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		// 逆序返回，验证客户端按 index 归位
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float64, dim)
			vec[0] = float64(i + 1)
			resp.Data = append(resp.Data, item{Index: i, Embedding: vec})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := newEmbeddingsServer(t, 4)
	defer srv.Close()

	e := NewOpenAIEmbedder("test-model", "key", srv.URL, 4)
	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 4 {
			t.Errorf("vector %d dimension = %d", i, len(v))
		}
		if v[0] != float64(i+1) {
			t.Errorf("vector %d not re-ordered by index: %v", i, v[0])
		}
	}
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	e := NewOpenAIEmbedder("m", "k", "http://127.0.0.1:1", 8)
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("empty input: vecs=%v err=%v", vecs, err)
	}
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("m", "k", srv.URL, 8)
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestOpenAIEmbedder_Defaults(t *testing.T) {
	e := NewOpenAIEmbedder("", "k", "http://example.invalid", 0)
	if e.Model() == "" || e.Dimension() <= 0 {
		t.Errorf("defaults not applied: model=%q dim=%d", e.Model(), e.Dimension())
	}
}
