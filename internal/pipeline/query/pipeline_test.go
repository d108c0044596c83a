package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-docqa/internal/model/llm"
	"rag-docqa/internal/pipeline/common"
	"rag-docqa/internal/storage/cache"
	"rag-docqa/internal/storage/vector"
)

type fakeEmbedder struct {
	dim   int
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	f.calls++
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v := make([]float64, f.dim)
		for j, r := range t {
			v[j%f.dim] += float64(r)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string  { return "fake-embedder" }
func (f *fakeEmbedder) Dimension() int { return f.dim }

type fakeLLM struct {
	reply      string
	err        error
	calls      int
	lastSystem string
	lastPrompt string
}

func (f *fakeLLM) Generate(prompt string, options llm.GenerateOptions) (string, error) {
	return f.GenerateWithContext(context.Background(), prompt, options)
}

func (f *fakeLLM) GenerateWithContext(ctx context.Context, prompt string, options llm.GenerateOptions) (string, error) {
	f.calls++
	f.lastSystem = options.System
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Model() string    { return "fake-llm" }
func (f *fakeLLM) Provider() string { return "fake" }

type testEnv struct {
	pipeline *Pipeline
	vectors  vector.Store
	embedder *fakeEmbedder
	llm      *fakeLLM
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	vs := vector.NewMemoryStore()
	emb := &fakeEmbedder{dim: 3}
	llmClient := &fakeLLM{reply: "The answer is 42."}
	retriever := NewRetriever(emb, vs, "documents", cache.NewEmbeddingCache(cache.NewMemoryStore(), 0))
	generator := NewGenerator(llmClient, 0.1, 512)
	p, err := NewPipeline(retriever, generator, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return &testEnv{pipeline: p, vectors: vs, embedder: emb, llm: llmClient}
}

// seed 建索引并写入若干切片向量
func (e *testEnv) seed(t *testing.T, model string, chunks map[string][2]string) {
	t.Helper()
	ctx := context.Background()
	err := e.vectors.Create(ctx, &vector.Index{
		Name:      "documents",
		Dimension: 3,
		Distance:  "cosine",
		Metadata:  map[string]string{vector.MetaEmbeddingModel: model},
	})
	if err != nil {
		t.Fatalf("Create index: %v", err)
	}
	var vecs []*vector.Vector
	for chunkID, pair := range chunks {
		docID, text := pair[0], pair[1]
		emb, _ := e.embedder.Embed(ctx, []string{text})
		vecs = append(vecs, &vector.Vector{
			ID:     chunkID,
			Values: emb[0],
			Text:   text,
			Metadata: map[string]string{
				"doc_id":   docID,
				"chunk_id": chunkID,
			},
		})
	}
	e.embedder.calls = 0
	if err := e.vectors.Add(ctx, "documents", vecs); err != nil {
		t.Fatalf("Add vectors: %v", err)
	}
}

func TestAnswerSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "fake-embedder", map[string][2]string{
		"chunk_1": {"doc_a", "AI is changing the world."},
	})

	answer, err := env.pipeline.Answer(context.Background(), &common.Query{Text: "what is AI"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer.Text != "The answer is 42." {
		t.Errorf("unexpected answer: %q", answer.Text)
	}
	if len(answer.Provenance) != 1 || answer.Provenance[0].ChunkID != "chunk_1" {
		t.Errorf("unexpected provenance: %+v", answer.Provenance)
	}
	if env.llm.lastSystem == "" {
		t.Error("system prompt should be set")
	}
	if !strings.Contains(env.llm.lastPrompt, "AI is changing the world.") {
		t.Errorf("prompt should contain retrieved chunk:\n%s", env.llm.lastPrompt)
	}
}

func TestAnswerEmptyQuery(t *testing.T) {
	env := newTestEnv(t)
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := env.pipeline.Answer(context.Background(), &common.Query{Text: text})
		if !errors.Is(err, common.ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", text, err)
		}
	}
	if env.llm.calls != 0 {
		t.Errorf("LLM should not be called for empty query, got %d calls", env.llm.calls)
	}
}

func TestAnswerNoIndex(t *testing.T) {
	env := newTestEnv(t)

	answer, err := env.pipeline.Answer(context.Background(), &common.Query{Text: "anything"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer.Text != NoResultsAnswer {
		t.Errorf("expected fixed no-results answer, got %q", answer.Text)
	}
	if len(answer.Provenance) != 0 {
		t.Errorf("expected empty provenance, got %+v", answer.Provenance)
	}
	if env.llm.calls != 0 {
		t.Errorf("LLM must not be called on empty retrieval, got %d calls", env.llm.calls)
	}
}

func TestAnswerDocIDFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "fake-embedder", map[string][2]string{
		"chunk_a": {"doc_a", "alpha content"},
		"chunk_b": {"doc_b", "beta content"},
	})

	answer, err := env.pipeline.Answer(context.Background(), &common.Query{
		Text:   "alpha",
		DocIDs: []string{"doc_b"},
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(answer.Provenance) == 0 {
		t.Fatal("expected filtered retrieval to keep doc_b chunks")
	}
	for _, m := range answer.Provenance {
		if m.DocID != "doc_b" {
			t.Errorf("filtered query must only use doc_b, got %+v", m)
		}
	}
}

// fixedEmbedder 对任意文本返回同一向量，用于精确控制排名
type fixedEmbedder struct {
	vec []float64
}

func (f *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func (f *fixedEmbedder) Model() string  { return "fake-embedder" }
func (f *fixedEmbedder) Dimension() int { return len(f.vec) }

// 过滤作用于全量 top-k 的排名之后：目标文档的切片存在于索引中、
// 却不在全量 top-k 内时，过滤结果为空，回退到未过滤的 top-k。
func TestRetrieveFilterOutsideTopKFallsBack(t *testing.T) {
	ctx := context.Background()
	vs := vector.NewMemoryStore()
	err := vs.Create(ctx, &vector.Index{
		Name:      "documents",
		Dimension: 3,
		Distance:  "cosine",
		Metadata:  map[string]string{vector.MetaEmbeddingModel: "fake-embedder"},
	})
	if err != nil {
		t.Fatalf("Create index: %v", err)
	}
	err = vs.Add(ctx, "documents", []*vector.Vector{
		{ID: "chunk_a", Values: []float64{1, 0, 0}, Text: "alpha text",
			Metadata: map[string]string{"doc_id": "doc_a", "chunk_id": "chunk_a"}},
		{ID: "chunk_b", Values: []float64{0, 1, 0}, Text: "beta text",
			Metadata: map[string]string{"doc_id": "doc_b", "chunk_id": "chunk_b"}},
	})
	if err != nil {
		t.Fatalf("Add vectors: %v", err)
	}
	r := NewRetriever(&fixedEmbedder{vec: []float64{1, 0, 0}}, vs, "documents", nil)

	// 全量 top-1 是 doc_a；doc_b 的切片虽在索引中却未进 top-1
	res, err := r.Retrieve(ctx, &common.Query{Text: "alpha", TopK: 1, DocIDs: []string{"doc_b"}})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if res.Len() != 1 || res.Metas[0].DocID != "doc_a" {
		t.Fatalf("expected fallback to unfiltered top-1 (doc_a), got %+v", res.Metas)
	}

	// top-2 能容纳 doc_b 时，过滤保留 doc_b 且保持排名顺序
	res, err = r.Retrieve(ctx, &common.Query{Text: "alpha", TopK: 2, DocIDs: []string{"doc_b"}})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if res.Len() != 1 || res.Metas[0].DocID != "doc_b" {
		t.Fatalf("expected doc_b kept after post-filter, got %+v", res.Metas)
	}
}

func TestAnswerDocIDFallback(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "fake-embedder", map[string][2]string{
		"chunk_a": {"doc_a", "alpha content"},
	})

	// 过滤集合无命中时回退到全量检索
	answer, err := env.pipeline.Answer(context.Background(), &common.Query{
		Text:   "alpha",
		DocIDs: []string{"doc_missing"},
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer.Text == NoResultsAnswer {
		t.Error("expected fallback retrieval to find results")
	}
	if len(answer.Provenance) != 1 || answer.Provenance[0].DocID != "doc_a" {
		t.Errorf("unexpected provenance: %+v", answer.Provenance)
	}
}

func TestAnswerLLMFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "fake-embedder", map[string][2]string{
		"chunk_1": {"doc_a", "some content"},
	})
	env.llm.err = errors.New("upstream 500")

	answer, err := env.pipeline.Answer(context.Background(), &common.Query{Text: "question"})
	if err != nil {
		t.Fatalf("LLM failure must degrade, not error: %v", err)
	}
	if answer.Text != DegradedAnswer {
		t.Errorf("expected degraded answer, got %q", answer.Text)
	}
	if len(answer.Provenance) != 0 {
		t.Errorf("degraded answer must carry empty provenance, got %+v", answer.Provenance)
	}
}

func TestAnswerModelMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "other-embedder", map[string][2]string{
		"chunk_1": {"doc_a", "some content"},
	})

	_, err := env.pipeline.Answer(context.Background(), &common.Query{Text: "question"})
	if !errors.Is(err, common.ErrModelMismatch) {
		t.Fatalf("expected ErrModelMismatch, got %v", err)
	}
	if env.llm.calls != 0 {
		t.Errorf("LLM must not be called on model mismatch, got %d calls", env.llm.calls)
	}
}

func TestAnswerCleansOutput(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "fake-embedder", map[string][2]string{
		"chunk_1": {"doc_a", "some content"},
	})
	env.llm.reply = "  The\n\nanswer \t is   42.  "

	answer, err := env.pipeline.Answer(context.Background(), &common.Query{Text: "question"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer.Text != "The answer is 42." {
		t.Errorf("answer should be whitespace-normalized, got %q", answer.Text)
	}
}

func TestAnswerEmbeddingCached(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "fake-embedder", map[string][2]string{
		"chunk_1": {"doc_a", "some content"},
	})

	ctx := context.Background()
	if _, err := env.pipeline.Answer(ctx, &common.Query{Text: "repeated question"}); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if _, err := env.pipeline.Answer(ctx, &common.Query{Text: "repeated question"}); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if env.embedder.calls != 1 {
		t.Errorf("second identical query should hit embedding cache, got %d embed calls", env.embedder.calls)
	}
}

func TestAnswerTopKLimit(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "fake-embedder", map[string][2]string{
		"chunk_1": {"doc_a", "first"},
		"chunk_2": {"doc_a", "second"},
		"chunk_3": {"doc_a", "third"},
	})

	answer, err := env.pipeline.Answer(context.Background(), &common.Query{Text: "question", TopK: 2})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(answer.Provenance) != 2 {
		t.Errorf("expected top_k=2 chunks in provenance, got %d", len(answer.Provenance))
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("what is ai", []string{"chunk one", "chunk two"})
	if !strings.Contains(prompt, "chunk one\n\nchunk two") {
		t.Errorf("chunks should be joined by blank line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Question: what is ai") {
		t.Errorf("prompt should contain the question:\n%s", prompt)
	}
}
