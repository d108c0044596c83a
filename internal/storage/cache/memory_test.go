package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_Set_Get_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Set(ctx, "k1", "v1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var v string
	if err := s.Get(ctx, "k1", &v); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "v1" {
		t.Errorf("Get: got %q", v)
	}
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Get(ctx, "k1", &v); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete: want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var v string
	if err := s.Get(ctx, "missing", &v); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get missing: want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryStore_Expiration(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Set(ctx, "k", "v", time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	var v string
	if err := s.Get(ctx, "k", &v); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get expired: want ErrCacheMiss, got %v", err)
	}
	ok, err := s.Exists(ctx, "k")
	if err != nil || ok {
		t.Errorf("Exists expired: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore_Exists(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ok, err := s.Exists(ctx, "k")
	if err != nil || ok {
		t.Errorf("Exists missing: ok=%v err=%v", ok, err)
	}
	_ = s.Set(ctx, "k", "v", 0)
	ok, err = s.Exists(ctx, "k")
	if err != nil || !ok {
		t.Errorf("Exists present: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, "k1", "v1", 0)
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	var v string
	if err := s.Get(ctx, "k1", &v); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Clear: want ErrCacheMiss, got %v", err)
	}
}

func TestEmbeddingCache(t *testing.T) {
	ctx := context.Background()
	c := NewEmbeddingCache(NewMemoryStore(), time.Minute)

	if _, ok := c.Get(ctx, "model-a", "what is ai"); ok {
		t.Error("expected miss on empty cache")
	}

	want := []float64{0.1, 0.2, 0.3}
	c.Put(ctx, "model-a", "what is ai", want)

	got, ok := c.Get(ctx, "model-a", "what is ai")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(got) != len(want) {
		t.Fatalf("embedding length mismatch: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// 模型不同则键不同
	if _, ok := c.Get(ctx, "model-b", "what is ai"); ok {
		t.Error("expected miss for different model")
	}
}

func TestEmbeddingCacheNilStore(t *testing.T) {
	var c *EmbeddingCache
	if _, ok := c.Get(context.Background(), "m", "t"); ok {
		t.Error("nil cache should always miss")
	}
	c.Put(context.Background(), "m", "t", []float64{1}) // 不应 panic
}
