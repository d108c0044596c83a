package common

import (
	"errors"
	"strings"
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		e := NewPipelineError(StageValidate, "failed", nil)
		s := e.Error()
		if s == "" || len(s) < 10 {
			t.Errorf("Error() = %q", s)
		}
		if !errors.As(e, new(*PipelineError)) {
			t.Error("should be *PipelineError")
		}
	})
	t.Run("with cause", func(t *testing.T) {
		e := NewPipelineError(StageExtract, "file", ErrExtractionFailed)
		if e.Error() == "" {
			t.Error("Error() should not be empty")
		}
		if !errors.Is(e, ErrExtractionFailed) {
			t.Error("errors.Is should see the sentinel through Unwrap")
		}
	})
}

func TestStageOf(t *testing.T) {
	e := NewPipelineError(StageEmbed, "msg", ErrEmbeddingFailed)
	if got := StageOf(e); got != StageEmbed {
		t.Errorf("StageOf = %q, want %q", got, StageEmbed)
	}
	if got := StageOf(errors.New("other")); got != "" {
		t.Errorf("StageOf(other) = %q, want empty", got)
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID("doc")
	b := GenerateID("doc")
	if a == b {
		t.Fatal("two generated ids should differ")
	}
	if !strings.HasPrefix(a, "doc_") {
		t.Errorf("id %q should carry doc_ prefix", a)
	}
	// 前缀 + 32 位 hex
	if len(a) != len("doc_")+32 {
		t.Errorf("id length = %d", len(a))
	}
	if GenerateID("") == "" {
		t.Error("empty prefix should still yield an id")
	}
}
