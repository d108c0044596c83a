package extract

import (
	"context"
	"errors"
	"testing"

	"rag-docqa/internal/pipeline/common"
)

func TestRegistry_ExtractText(t *testing.T) {
	r := NewRegistry()
	got, err := r.Extract(context.Background(), "notes.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello" {
		t.Errorf("Extract = %q", got)
	}
}

func TestRegistry_UnsupportedFormat(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), "image.png", []byte{0x89})
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Errorf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestRegistry_Supports(t *testing.T) {
	r := NewRegistry()
	if !r.Supports("README.md") {
		t.Error("md should be supported")
	}
	if r.Supports("report.docx") {
		t.Error("docx parser is not built in")
	}
}

func TestHTMLExtractor_StripsTags(t *testing.T) {
	e := NewHTMLExtractor()
	page := `<html><head><title>Guide</title><style>body{color:red}</style></head>` +
		`<body><h1>RAG</h1><script>var x=1;</script><p>retrieval then <b>generation</b></p></body></html>`
	got, err := e.Extract(context.Background(), "guide.html", []byte(page))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Guide\nRAG\nretrieval then\ngeneration" {
		t.Errorf("Extract = %q", got)
	}
}

func TestRegistry_ExtractHTML(t *testing.T) {
	r := NewRegistry()
	got, err := r.Extract(context.Background(), "index.htm", []byte("<p>hello</p>"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello" {
		t.Errorf("Extract = %q", got)
	}
}

func TestTextExtractor_InvalidUTF8(t *testing.T) {
	e := NewTextExtractor()
	got, err := e.Extract(context.Background(), "a.txt", []byte{'a', 0xff, 'b'})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "ab" {
		t.Errorf("invalid bytes should be dropped, got %q", got)
	}
}

func TestExt(t *testing.T) {
	if Ext("A/B/Doc.TXT") != ".txt" {
		t.Errorf("Ext = %q", Ext("A/B/Doc.TXT"))
	}
	if Ext("noext") != "" {
		t.Errorf("Ext(noext) = %q", Ext("noext"))
	}
}
