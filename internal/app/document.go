// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"

	"rag-docqa/internal/pipeline/common"
	"rag-docqa/internal/storage/metadata"
)

// DocumentInfo 文档信息 DTO，供 API 层使用，不依赖 storage 具体类型
type DocumentInfo struct {
	DocID     string `json:"doc_id"`
	Filename  string `json:"filename"`
	Filepath  string `json:"filepath"`
	NumChunks int    `json:"num_chunks"`
	FileSize  int64  `json:"file_size"`
	CreatedAt int64  `json:"created_at"`
}

// DocumentService 文档门面：API 层仅依赖此接口，不直接调用 storage
type DocumentService interface {
	ListDocuments(ctx context.Context) ([]*DocumentInfo, error)
	GetDocument(ctx context.Context, docID string) (*DocumentInfo, error)
	DeleteDocument(ctx context.Context, docID string) error
	CountDocuments(ctx context.Context) (int64, error)
}

// documentService 使用 metadata.Repository 实现 DocumentService
type documentService struct {
	repo *metadata.Repository
}

// NewDocumentService 创建文档门面（由 bootstrap 装配时调用）
func NewDocumentService(repo *metadata.Repository) DocumentService {
	return &documentService{repo: repo}
}

func (s *documentService) ListDocuments(ctx context.Context) ([]*DocumentInfo, error) {
	docs, err := s.repo.ListDocuments(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*DocumentInfo, len(docs))
	for i, d := range docs {
		out[i] = docToInfo(d)
	}
	return out, nil
}

func (s *documentService) GetDocument(ctx context.Context, docID string) (*DocumentInfo, error) {
	d, err := s.repo.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	return docToInfo(d), nil
}

func (s *documentService) DeleteDocument(ctx context.Context, docID string) error {
	return s.repo.DeleteDocument(ctx, docID)
}

func (s *documentService) CountDocuments(ctx context.Context) (int64, error) {
	return s.repo.CountDocuments(ctx, nil)
}

func docToInfo(d *common.Document) *DocumentInfo {
	if d == nil {
		return nil
	}
	return &DocumentInfo{
		DocID:     d.DocID,
		Filename:  d.Filename,
		Filepath:  d.Filepath,
		NumChunks: d.NumChunks,
		FileSize:  d.FileSize,
		CreatedAt: d.CreatedAt.Unix(),
	}
}
