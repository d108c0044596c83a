package metadata

import (
	"context"

	"rag-docqa/internal/pipeline/common"
)

// Repository 封装 Store，提供业务方法，供 app 层复用
type Repository struct {
	store Store
}

// NewRepository 从 Store 创建 Repository
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// ListDocuments 列出文档（默认分页）
func (r *Repository) ListDocuments(ctx context.Context, filter *Filter, pagination *Pagination) ([]*common.Document, error) {
	if pagination == nil {
		pagination = &Pagination{Offset: 0, Limit: 1000}
	}
	return r.store.ListDocuments(ctx, filter, pagination)
}

// GetDocument 按 doc_id 获取文档
func (r *Repository) GetDocument(ctx context.Context, docID string) (*common.Document, error) {
	return r.store.GetDocument(ctx, docID)
}

// CreateDocument 创建文档
func (r *Repository) CreateDocument(ctx context.Context, doc *common.Document) error {
	return r.store.CreateDocument(ctx, doc)
}

// DeleteDocument 按 doc_id 删除文档及其切片
func (r *Repository) DeleteDocument(ctx context.Context, docID string) error {
	return r.store.DeleteDocument(ctx, docID)
}

// CountDocuments 统计文档数
func (r *Repository) CountDocuments(ctx context.Context, filter *Filter) (int64, error) {
	return r.store.CountDocuments(ctx, filter)
}

// CreateChunks 批量创建切片记录
func (r *Repository) CreateChunks(ctx context.Context, chunks []*ChunkRecord) error {
	return r.store.CreateChunks(ctx, chunks)
}

// ListChunks 按 doc_id 列出切片记录
func (r *Repository) ListChunks(ctx context.Context, docID string) ([]*ChunkRecord, error) {
	return r.store.ListChunks(ctx, docID)
}
