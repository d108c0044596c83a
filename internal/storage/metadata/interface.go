package metadata

import (
	"context"

	"rag-docqa/internal/pipeline/common"
)

// Store 元数据存储接口
type Store interface {
	// CreateDocument 创建文档元数据
	CreateDocument(ctx context.Context, doc *common.Document) error
	// GetDocument 根据 doc_id 获取文档元数据
	GetDocument(ctx context.Context, docID string) (*common.Document, error)
	// ListDocuments 列出文档元数据，按创建时间升序
	ListDocuments(ctx context.Context, filter *Filter, pagination *Pagination) ([]*common.Document, error)
	// CountDocuments 统计文档数量
	CountDocuments(ctx context.Context, filter *Filter) (int64, error)
	// DeleteDocument 根据 doc_id 删除文档及其切片记录
	DeleteDocument(ctx context.Context, docID string) error
	// CreateChunks 批量创建切片记录
	CreateChunks(ctx context.Context, chunks []*ChunkRecord) error
	// ListChunks 按 doc_id 列出切片记录，按位置升序
	ListChunks(ctx context.Context, docID string) ([]*ChunkRecord, error)
	// Close 关闭存储连接
	Close() error
}

// ChunkRecord 文档切片的元数据记录
type ChunkRecord struct {
	ChunkID  string `json:"chunk_id"` // 切片唯一标识
	DocID    string `json:"doc_id"`   // 所属文档
	Position int    `json:"position"` // 切片在文档中的序号
	Text     string `json:"text"`     // 切片文本
}

// Filter 过滤条件
type Filter struct {
	DocIDs []string `json:"doc_ids"` // 文档 ID 列表
	Search string   `json:"search"`  // 按文件名精确匹配
}

// Pagination 分页参数
type Pagination struct {
	Offset int `json:"offset"` // 偏移量
	Limit  int `json:"limit"`  // 限制数量
}
