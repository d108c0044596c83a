package splitter

import (
	"errors"
	"strings"
	"testing"

	"rag-docqa/internal/pipeline/common"
)

func TestSplit_ShortText(t *testing.T) {
	chunks, err := Split("AI is changing the world.", 1000, 100)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for short text, got %d", len(chunks))
	}
	if chunks[0] != "AI is changing the world." {
		t.Errorf("chunk content: %q", chunks[0])
	}
}

func TestSplit_EmptyAfterClean(t *testing.T) {
	chunks, err := Split("  \n\t  ", 100, 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("whitespace-only text should yield 0 chunks, got %d", len(chunks))
	}
}

func TestSplit_InvalidParams(t *testing.T) {
	cases := []struct {
		name      string
		size, ovl int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := Split("some text", tc.size, tc.ovl)
			if !errors.Is(err, common.ErrInvalidParameter) {
				t.Errorf("want ErrInvalidParameter, got %v", err)
			}
			if chunks != nil {
				t.Error("no partial result on invalid params")
			}
		})
	}
}

func TestSplit_CoverageAndCount(t *testing.T) {
	// len=26, size=10, overlap=3 → 窗口起点 0,7,14,21
	text := "abcdefghijklmnopqrstuvwxyz"
	size, overlap := 10, 3
	chunks, err := Split(text, size, overlap)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	// 数量 = ceil((len-overlap)/(size-overlap))
	want := ((len(text) - overlap) + (size - overlap) - 1) / (size - overlap)
	if len(chunks) != want {
		t.Fatalf("chunk count = %d, want %d", len(chunks), want)
	}

	// 去除重叠后拼接应精确还原原文
	var sb strings.Builder
	for i, c := range chunks {
		r := []rune(c)
		if i == 0 {
			sb.WriteString(c)
		} else {
			sb.WriteString(string(r[overlap:]))
		}
	}
	if sb.String() != text {
		t.Errorf("reassembled = %q, want %q", sb.String(), text)
	}
}

func TestSplit_ZeroOverlapTiles(t *testing.T) {
	chunks, err := Split("aaaabbbbcc", 4, 0)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 3 || chunks[0] != "aaaa" || chunks[1] != "bbbb" || chunks[2] != "cc" {
		t.Errorf("tiles = %v", chunks)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("word boundary test ", 200)
	a, err := Split(text, 97, 13)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	b, _ := Split(text, 97, 13)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs", i)
		}
	}
}

func TestSplit_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("知识库检索", 10) // 50 runes
	chunks, err := Split(text, 8, 2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for i, c := range chunks {
		if strings.ContainsRune(c, '�') {
			t.Errorf("chunk %d contains replacement rune: %q", i, c)
		}
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  hello\n\n\tworld  again ")
	if got != "hello world again" {
		t.Errorf("CleanText = %q", got)
	}
	if CleanText("") != "" {
		t.Error("CleanText empty")
	}
}

func TestNewWindowSplitter(t *testing.T) {
	if _, err := NewWindowSplitter(0, 0); !errors.Is(err, common.ErrInvalidParameter) {
		t.Errorf("want ErrInvalidParameter, got %v", err)
	}
	s, err := NewWindowSplitter(DefaultChunkSize, DefaultOverlap)
	if err != nil {
		t.Fatalf("NewWindowSplitter: %v", err)
	}
	if s.ChunkSize() != DefaultChunkSize || s.Overlap() != DefaultOverlap {
		t.Errorf("config mismatch: %d/%d", s.ChunkSize(), s.Overlap())
	}
}
