package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultEmbeddingTTL 查询向量缓存的默认过期时间
const DefaultEmbeddingTTL = time.Hour

// EmbeddingCache 查询向量缓存，键由嵌入模型与文本哈希组成，
// 避免同一问题重复调用嵌入服务。
type EmbeddingCache struct {
	store Store
	ttl   time.Duration
}

// NewEmbeddingCache 创建查询向量缓存；ttl ≤ 0 时使用默认值
func NewEmbeddingCache(store Store, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = DefaultEmbeddingTTL
	}
	return &EmbeddingCache{store: store, ttl: ttl}
}

// Get 按模型与文本取缓存向量；未命中返回 (nil, false)
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float64, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	var embedding []float64
	err := c.store.Get(ctx, embeddingKey(model, text), &embedding)
	if err != nil {
		return nil, false
	}
	return embedding, true
}

// Put 写入缓存；缓存故障只影响性能，错误不向上传播
func (c *EmbeddingCache) Put(ctx context.Context, model, text string, embedding []float64) {
	if c == nil || c.store == nil {
		return
	}
	_ = c.store.Set(ctx, embeddingKey(model, text), embedding, c.ttl)
}

func embeddingKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}
