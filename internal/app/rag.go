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
	"rag-docqa/internal/pipeline/ingest"
	"rag-docqa/internal/pipeline/query"
)

// RAGService 问答服务门面：API 层的唯一业务入口
type RAGService struct {
	ingest    *ingest.Pipeline
	query     *query.Pipeline
	documents DocumentService
}

// NewRAGService 创建 RAGService
func NewRAGService(b *Bootstrap) *RAGService {
	return &RAGService{
		ingest:    b.Ingest,
		query:     b.Query,
		documents: NewDocumentService(b.Meta),
	}
}

// NewRAGServiceWith 以显式组件装配 RAGService，供测试与自定义装配使用
func NewRAGServiceWith(ing *ingest.Pipeline, qp *query.Pipeline, documents DocumentService) *RAGService {
	return &RAGService{
		ingest:    ing,
		query:     qp,
		documents: documents,
	}
}

// IngestFiles 批量入库上传文件
func (s *RAGService) IngestFiles(ctx context.Context, files []ingest.File) ([]*common.IngestResult, error) {
	return s.ingest.IngestFiles(ctx, files)
}

// Answer 回答查询
func (s *RAGService) Answer(ctx context.Context, q *common.Query) (*common.Answer, error) {
	return s.query.Answer(ctx, q)
}

// Documents 返回文档门面
func (s *RAGService) Documents() DocumentService {
	return s.documents
}
