package metadata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rag-docqa/internal/pipeline/common"
	pkgerrors "rag-docqa/pkg/errors"
)

// MemoryStore 内存元数据存储实现
type MemoryStore struct {
	docs   map[string]*common.Document
	chunks map[string][]*ChunkRecord
	mu     sync.RWMutex
}

// NewMemoryStore 创建新的内存元数据存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]*common.Document),
		chunks: make(map[string][]*ChunkRecord),
	}
}

// CreateDocument 创建文档元数据
func (s *MemoryStore) CreateDocument(ctx context.Context, doc *common.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.DocID]; exists {
		return fmt.Errorf("document with ID %s already exists", doc.DocID)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	s.docs[doc.DocID] = doc
	return nil
}

// GetDocument 根据 doc_id 获取文档元数据
func (s *MemoryStore) GetDocument(ctx context.Context, docID string) (*common.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[docID]
	if !exists {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "document %s", docID)
	}
	return doc, nil
}

// ListDocuments 列出文档元数据，按创建时间升序
func (s *MemoryStore) ListDocuments(ctx context.Context, filter *Filter, pagination *Pagination) ([]*common.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*common.Document
	for _, doc := range s.docs {
		if !matchFilter(doc, filter) {
			continue
		}
		results = append(results, doc)
	}

	// map 遍历无序，按创建时间再按 doc_id 排序保证列表稳定
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].DocID < results[j].DocID
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})

	if pagination != nil {
		start := pagination.Offset
		end := start + pagination.Limit
		if start >= len(results) {
			return []*common.Document{}, nil
		}
		if end > len(results) {
			end = len(results)
		}
		results = results[start:end]
	}
	return results, nil
}

// CountDocuments 统计文档数量
func (s *MemoryStore) CountDocuments(ctx context.Context, filter *Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			count++
		}
	}
	return count, nil
}

// DeleteDocument 根据 doc_id 删除文档及其切片记录
func (s *MemoryStore) DeleteDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[docID]; !exists {
		return pkgerrors.Wrapf(pkgerrors.ErrNotFound, "document %s", docID)
	}
	delete(s.docs, docID)
	delete(s.chunks, docID)
	return nil
}

// CreateChunks 批量创建切片记录
func (s *MemoryStore) CreateChunks(ctx context.Context, chunks []*ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.DocID] = append(s.chunks[chunk.DocID], chunk)
	}
	return nil
}

// ListChunks 按 doc_id 列出切片记录，按位置升序
func (s *MemoryStore) ListChunks(ctx context.Context, docID string) ([]*ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.chunks[docID]
	out := make([]*ChunkRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out, nil
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}

func matchFilter(doc *common.Document, filter *Filter) bool {
	if filter == nil {
		return true
	}
	if len(filter.DocIDs) > 0 {
		found := false
		for _, id := range filter.DocIDs {
			if doc.DocID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Search != "" && doc.Filename != filter.Search {
		return false
	}
	return true
}
