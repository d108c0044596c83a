package embedding

import (
	"context"
	"fmt"
)

// Embedder 向量化接口：对 texts 批量向量化，返回与输入一一对应的向量
type Embedder interface {
	// Embed 对文本做向量化，返回与 texts 一一对应的向量
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// Model 返回模型标识，入库与查询必须一致
	Model() string
	// Dimension 返回向量维度
	Dimension() int
}

// NewEmbedder 创建 Embedder；目前仅支持 OpenAI 兼容端点
func NewEmbedder(provider, model, apiKey, baseURL string, dimension int) (Embedder, error) {
	switch provider {
	case "", "openai", "qwen", "groq":
		return NewOpenAIEmbedder(model, apiKey, baseURL, dimension), nil
	default:
		return nil, fmt.Errorf("不支持的 embedding provider: %s", provider)
	}
}
