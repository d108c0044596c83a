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
	"strings"
	"time"

	"rag-docqa/internal/pipeline/common"
	"rag-docqa/pkg/log"
	"rag-docqa/pkg/metrics"
	"rag-docqa/pkg/tracing"
)

// Pipeline 查询管线：向量化 → 检索 → 上下文拼装 → 生成 → 后处理。
// 检索为空时不调用 LLM，直接返回固定回答。
type Pipeline struct {
	retriever *Retriever
	generator *Generator
	logger    *log.Logger
	topK      int // 查询未指定 TopK 时的默认值
}

// NewPipeline 创建查询管线
func NewPipeline(retriever *Retriever, generator *Generator, logger *log.Logger) (*Pipeline, error) {
	if logger == nil {
		l, err := log.NewLogger(nil)
		if err != nil {
			return nil, err
		}
		logger = l
	}
	return &Pipeline{
		retriever: retriever,
		generator: generator,
		logger:    logger,
		topK:      DefaultTopK,
	}, nil
}

// SetDefaultTopK 设置查询未指定 TopK 时的默认检索条数，k<=0 时忽略
func (p *Pipeline) SetDefaultTopK(k int) {
	if k > 0 {
		p.topK = k
	}
}

// Answer 回答查询。返回错误仅限于查询本身不合法或检索基础设施失败；
// LLM 失败降级为兜底回答，对调用方不是错误。
func (p *Pipeline) Answer(ctx context.Context, query *common.Query) (*common.Answer, error) {
	topK := p.topK
	if query != nil && query.TopK > 0 {
		topK = query.TopK
	}
	ctx, span := tracing.StartQuerySpan(ctx, topK)
	defer span.End()
	start := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	if query == nil || strings.TrimSpace(query.Text) == "" {
		return nil, common.NewPipelineError(common.StageValidate, "查询文本为空", common.ErrEmptyQuery)
	}
	q := &common.Query{
		Text:   strings.TrimSpace(query.Text),
		DocIDs: query.DocIDs,
		TopK:   topK,
	}

	retrieval, err := p.retriever.Retrieve(ctx, q)
	if err != nil {
		metrics.StageFailTotal.WithLabelValues(common.StageRetrieve).Inc()
		return nil, err
	}
	metrics.RetrievedChunks.Observe(float64(retrieval.Len()))

	if retrieval.Len() == 0 {
		p.logger.Info("检索无结果", "query_len", len(q.Text), "doc_ids", len(q.DocIDs))
		return &common.Answer{Text: NoResultsAnswer, Provenance: []common.ChunkMeta{}}, nil
	}

	answer, err := p.generator.Generate(ctx, q.Text, retrieval)
	if err != nil {
		// 生成失败降级：记录原因，向调用方返回兜底回答
		metrics.StageFailTotal.WithLabelValues(common.StageGenerate).Inc()
		p.logger.Error("回答生成失败，返回兜底回答", "error", err)
		return answer, nil
	}

	p.logger.Info("查询完成",
		"chunks", retrieval.Len(),
		"answer_len", len(answer.Text),
		"duration", time.Since(start).String())
	return answer, nil
}
