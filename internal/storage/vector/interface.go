package vector

import (
	"context"
)

// Store 向量存储接口
type Store interface {
	// Create 创建向量索引
	Create(ctx context.Context, index *Index) error
	// Describe 返回索引定义
	Describe(ctx context.Context, indexName string) (*Index, error)
	// Add 添加向量
	Add(ctx context.Context, indexName string, vectors []*Vector) error
	// Search 搜索向量，结果按相似度降序；同分按插入顺序（稳定）
	Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error)
	// Get 根据 ID 获取向量
	Get(ctx context.Context, indexName string, id string) (*Vector, error)
	// Delete 删除向量
	Delete(ctx context.Context, indexName string, id string) error
	// ListIndexes 列出所有索引
	ListIndexes(ctx context.Context) ([]string, error)
	// Close 关闭存储连接
	Close() error
}

// Index 向量索引
type Index struct {
	Name      string            `json:"name"`      // 索引名称
	Dimension int               `json:"dimension"` // 向量维度
	Distance  string            `json:"distance"`  // 距离度量方式：cosine | ip
	Metadata  map[string]string `json:"metadata"`  // 索引元数据（含 embedding_model）
}

// Vector 向量数据
type Vector struct {
	ID       string            `json:"id"`       // 向量唯一标识
	Values   []float64         `json:"values"`   // 向量值
	Text     string            `json:"text"`     // 原文（检索时随元数据返回）
	Metadata map[string]string `json:"metadata"` // 向量元数据
}

// SearchOptions 搜索选项
type SearchOptions struct {
	TopK   int               `json:"top_k"`  // 返回前 K 个结果
	Filter map[string]string `json:"filter"` // 元数据过滤
}

// SearchResult 搜索结果
type SearchResult struct {
	ID       string            `json:"id"`    // 向量唯一标识
	Score    float64           `json:"score"` // 相似度得分
	Text     string            `json:"text"`  // 原文
	Metadata map[string]string `json:"metadata"`
}

// 索引元数据键：入库时记录 embedding 模型标识，查询时校验
const MetaEmbeddingModel = "embedding_model"
