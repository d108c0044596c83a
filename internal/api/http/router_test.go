package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/ut"

	appsvc "rag-docqa/internal/app"
	"rag-docqa/internal/extract"
	"rag-docqa/internal/model/llm"
	"rag-docqa/internal/pipeline/ingest"
	"rag-docqa/internal/pipeline/query"
	"rag-docqa/internal/splitter"
	"rag-docqa/internal/storage/metadata"
	"rag-docqa/internal/storage/vector"
	"rag-docqa/pkg/log"
)

type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		var sum float64
		for _, r := range t {
			sum += float64(r)
		}
		out[i] = []float64{sum, float64(len(t)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string  { return "fake-embed" }
func (f *fakeEmbedder) Dimension() int { return 3 }

type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Generate(prompt string, options llm.GenerateOptions) (string, error) {
	return f.reply, nil
}

func (f *fakeLLM) GenerateWithContext(ctx context.Context, prompt string, options llm.GenerateOptions) (string, error) {
	return f.reply, nil
}

func (f *fakeLLM) Model() string    { return "fake-llm" }
func (f *fakeLLM) Provider() string { return "fake" }

func buildRouterForTest(t *testing.T) *Router {
	t.Helper()

	logger, err := log.NewLogger(nil)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	sp, err := splitter.NewWindowSplitter(200, 20)
	if err != nil {
		t.Fatalf("NewWindowSplitter failed: %v", err)
	}
	repo := metadata.NewRepository(metadata.NewMemoryStore())
	vectors := vector.NewMemoryStore()
	embedder := &fakeEmbedder{}

	ing, err := ingest.NewPipeline(ingest.Config{
		Extractors: extract.NewRegistry(),
		Splitter:   sp,
		Embedder:   embedder,
		Vectors:    vectors,
		Meta:       repo,
		Logger:     logger,
		Collection: "documents",
	})
	if err != nil {
		t.Fatalf("ingest.NewPipeline failed: %v", err)
	}

	retriever := query.NewRetriever(embedder, vectors, "documents", nil)
	generator := query.NewGenerator(&fakeLLM{reply: "the answer"}, 0, 0)
	qp, err := query.NewPipeline(retriever, generator, logger)
	if err != nil {
		t.Fatalf("query.NewPipeline failed: %v", err)
	}

	rag := appsvc.NewRAGServiceWith(ing, qp, appsvc.NewDocumentService(repo))
	return NewRouter(NewHandler(rag))
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write form file failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer failed: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestRouter_Health(t *testing.T) {
	s := buildRouterForTest(t).Build(":0")

	w := ut.PerformRequest(s.Engine, "GET", "/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET /health status = %d, want 200", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	s := buildRouterForTest(t).Build(":0")

	w := ut.PerformRequest(s.Engine, "GET", "/metrics", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET /metrics status = %d, want 200", got)
	}
}

func TestRouter_UploadThenQuery(t *testing.T) {
	s := buildRouterForTest(t).Build(":0")

	body, contentType := multipartUpload(t, map[string]string{
		"notes.txt": "Go was designed at Google in 2007.",
	})
	w := ut.PerformRequest(s.Engine, "POST", "/api/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("POST /api/upload status = %d, body = %s", got, w.Result().Body())
	}

	var uploadResp struct {
		Total   int `json:"total"`
		Results []struct {
			Status string `json:"status"`
			DocID  string `json:"doc_id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Result().Body(), &uploadResp); err != nil {
		t.Fatalf("unmarshal upload response failed: %v", err)
	}
	if uploadResp.Total != 1 || len(uploadResp.Results) != 1 {
		t.Fatalf("upload total = %d, results = %d, want 1/1", uploadResp.Total, len(uploadResp.Results))
	}
	if uploadResp.Results[0].Status != "success" {
		t.Fatalf("upload status = %q, want success", uploadResp.Results[0].Status)
	}

	qBody := []byte(`{"query":"when was Go designed?"}`)
	w = ut.PerformRequest(s.Engine, "POST", "/api/query",
		&ut.Body{Body: bytes.NewReader(qBody), Len: len(qBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("POST /api/query status = %d, body = %s", got, w.Result().Body())
	}

	var answer struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(w.Result().Body(), &answer); err != nil {
		t.Fatalf("unmarshal answer failed: %v", err)
	}
	if answer.Answer != "the answer" {
		t.Fatalf("answer = %q, want %q", answer.Answer, "the answer")
	}
}

func TestRouter_UploadMissingFiles(t *testing.T) {
	s := buildRouterForTest(t).Build(":0")

	body, contentType := multipartUpload(t, nil)
	w := ut.PerformRequest(s.Engine, "POST", "/api/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	if got := w.Result().StatusCode(); got != 400 {
		t.Fatalf("POST /api/upload without files status = %d, want 400", got)
	}
}

func TestRouter_QueryEmpty(t *testing.T) {
	s := buildRouterForTest(t).Build(":0")

	qBody := []byte(`{"query":"   "}`)
	w := ut.PerformRequest(s.Engine, "POST", "/api/query",
		&ut.Body{Body: bytes.NewReader(qBody), Len: len(qBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	if got := w.Result().StatusCode(); got != 400 {
		t.Fatalf("POST /api/query empty query status = %d, want 400", got)
	}
}

func TestRouter_MetadataCRUD(t *testing.T) {
	s := buildRouterForTest(t).Build(":0")

	body, contentType := multipartUpload(t, map[string]string{
		"a.md": "# alpha\nalpha document body",
	})
	w := ut.PerformRequest(s.Engine, "POST", "/api/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("upload status = %d", got)
	}
	var uploadResp struct {
		Results []struct {
			DocID string `json:"doc_id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Result().Body(), &uploadResp); err != nil {
		t.Fatalf("unmarshal upload response failed: %v", err)
	}
	docID := uploadResp.Results[0].DocID

	w = ut.PerformRequest(s.Engine, "GET", "/api/metadata", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET /api/metadata status = %d, want 200", got)
	}
	var list struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Result().Body(), &list); err != nil {
		t.Fatalf("unmarshal list failed: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("metadata total = %d, want 1", list.Total)
	}

	w = ut.PerformRequest(s.Engine, "GET", "/api/metadata/"+docID, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET /api/metadata/%s status = %d, want 200", docID, got)
	}

	w = ut.PerformRequest(s.Engine, "DELETE", "/api/metadata/"+docID, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("DELETE /api/metadata/%s status = %d, want 200", docID, got)
	}

	w = ut.PerformRequest(s.Engine, "GET", "/api/metadata/"+docID, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 404 {
		t.Fatalf("GET deleted metadata status = %d, want 404", got)
	}
}

func TestRouter_UnsupportedFormatReported(t *testing.T) {
	s := buildRouterForTest(t).Build(":0")

	body, contentType := multipartUpload(t, map[string]string{
		"report.pdf": "%PDF-1.4 fake",
	})
	w := ut.PerformRequest(s.Engine, "POST", "/api/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("upload status = %d, want 200 (per-file failure)", got)
	}
	var uploadResp struct {
		Results []struct {
			Status string `json:"status"`
			Stage  string `json:"stage"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Result().Body(), &uploadResp); err != nil {
		t.Fatalf("unmarshal upload response failed: %v", err)
	}
	if uploadResp.Results[0].Status != "failed" {
		t.Fatalf("status = %q, want failed", uploadResp.Results[0].Status)
	}
	if uploadResp.Results[0].Stage != "validate" {
		t.Fatalf("stage = %q, want validate", uploadResp.Results[0].Stage)
	}
}
