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

package query

import (
	"context"
	"fmt"

	"rag-docqa/internal/model/embedding"
	"rag-docqa/internal/pipeline/common"
	"rag-docqa/internal/storage/cache"
	"rag-docqa/internal/storage/vector"
)

// DefaultTopK 默认检索条数
const DefaultTopK = 5

// Retriever 检索器：查询向量化 + 相似度检索。
// doc_ids 过滤是建议性的：先取全量 top-k，再按 doc_id 过滤；
// 过滤后为空时回退到未过滤的 top-k。
type Retriever struct {
	embedder  embedding.Embedder
	embCache  *cache.EmbeddingCache
	vectors   vector.Store
	indexName string
}

// NewRetriever 创建检索器；embCache 可为 nil
func NewRetriever(embedder embedding.Embedder, vectors vector.Store, indexName string, embCache *cache.EmbeddingCache) *Retriever {
	if indexName == "" {
		indexName = "documents"
	}
	return &Retriever{
		embedder:  embedder,
		embCache:  embCache,
		vectors:   vectors,
		indexName: indexName,
	}
}

// Retrieve 按查询检索切片，返回的结果按相似度降序
func (r *Retriever) Retrieve(ctx context.Context, query *common.Query) (*common.RetrievalResult, error) {
	// 索引尚未建立（还没有任何文件入库）时按空检索处理
	if _, err := r.vectors.Describe(ctx, r.indexName); err != nil {
		return &common.RetrievalResult{}, nil
	}
	// 查询前校验索引是否由同一嵌入模型构建
	if err := vector.ValidateModel(ctx, r.vectors, r.indexName, r.embedder.Model()); err != nil {
		return nil, err
	}

	qvec, err := r.embedQuery(ctx, query.Text)
	if err != nil {
		return nil, common.NewPipelineError(common.StageRetrieve, "查询向量化失败", fmt.Errorf("%w: %v", common.ErrEmbeddingFailed, err))
	}

	topK := query.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	hits, err := r.search(ctx, qvec, topK)
	if err != nil {
		return nil, err
	}
	// doc_ids 过滤作用于全量 top-k 排名之后；全部被滤掉时回退到不过滤的 top-k
	if len(query.DocIDs) > 0 {
		if filtered := filterByDocIDs(hits, query.DocIDs); len(filtered) > 0 {
			hits = filtered
		}
	}

	result := &common.RetrievalResult{}
	for _, h := range hits {
		result.Texts = append(result.Texts, h.Text)
		result.Metas = append(result.Metas, common.ChunkMeta{
			DocID:   h.Metadata["doc_id"],
			ChunkID: h.Metadata["chunk_id"],
		})
		result.Scores = append(result.Scores, h.Score)
	}
	return result, nil
}

// embedQuery 查询向量化，同一模型同一文本命中缓存时不调用嵌入服务
func (r *Retriever) embedQuery(ctx context.Context, text string) ([]float64, error) {
	if v, ok := r.embCache.Get(ctx, r.embedder.Model(), text); ok {
		return v, nil
	}
	embeddings, err := r.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}
	r.embCache.Put(ctx, r.embedder.Model(), text, embeddings[0])
	return embeddings[0], nil
}

// search 执行一次全量 top-k 检索
func (r *Retriever) search(ctx context.Context, qvec []float64, topK int) ([]*vector.SearchResult, error) {
	hits, err := r.vectors.Search(ctx, r.indexName, qvec, &vector.SearchOptions{TopK: topK})
	if err != nil {
		return nil, wrapSearchErr(err)
	}
	return hits, nil
}

// filterByDocIDs 在已排序的命中中保留属于 docIDs 的条目，保持原排名顺序
func filterByDocIDs(hits []*vector.SearchResult, docIDs []string) []*vector.SearchResult {
	allowed := make(map[string]struct{}, len(docIDs))
	for _, id := range docIDs {
		allowed[id] = struct{}{}
	}
	var kept []*vector.SearchResult
	for _, h := range hits {
		if _, ok := allowed[h.Metadata["doc_id"]]; ok {
			kept = append(kept, h)
		}
	}
	return kept
}

func wrapSearchErr(err error) error {
	if common.IsPipelineError(err) {
		return err
	}
	return common.NewPipelineError(common.StageRetrieve, "向量检索失败", fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err))
}
