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

package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"rag-docqa/internal/extract"
	"rag-docqa/internal/model/embedding"
	"rag-docqa/internal/pipeline/common"
	"rag-docqa/internal/splitter"
	"rag-docqa/internal/storage/metadata"
	"rag-docqa/internal/storage/object"
	"rag-docqa/internal/storage/vector"
	"rag-docqa/pkg/log"
	"rag-docqa/pkg/metrics"
	"rag-docqa/pkg/tracing"
)

// DefaultMaxBatchSize 单次批量上传的最大文件数
const DefaultMaxBatchSize = 20

// File 待入库的上传文件
type File struct {
	Name string
	Data []byte
}

// Pipeline 入库管线：校验 → 提取 → 切片 → 向量化 → 写向量索引 → 写元数据。
// 各阶段顺序执行，任一阶段失败即终止该文件；已写入的存储不回滚。
type Pipeline struct {
	extractors *extract.Registry
	splitter   *splitter.WindowSplitter
	embedder   embedding.Embedder
	vectors    vector.Store
	meta       *metadata.Repository
	objects    object.Store
	logger     *log.Logger
	collection string
	distance   string
	maxBatch   int
}

// Config 入库管线构造参数
type Config struct {
	Extractors *extract.Registry
	Splitter   *splitter.WindowSplitter
	Embedder   embedding.Embedder
	Vectors    vector.Store
	Meta       *metadata.Repository
	Objects    object.Store // 可为 nil，不保存原始文件
	Logger     *log.Logger
	Collection string
	Distance   string // 为空时按 cosine 建索引
	MaxBatch   int
}

// NewPipeline 创建入库管线
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Extractors == nil || cfg.Splitter == nil || cfg.Embedder == nil || cfg.Vectors == nil || cfg.Meta == nil {
		return nil, fmt.Errorf("ingest pipeline: missing required component")
	}
	if cfg.Logger == nil {
		logger, err := log.NewLogger(nil)
		if err != nil {
			return nil, err
		}
		cfg.Logger = logger
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatchSize
	}
	return &Pipeline{
		extractors: cfg.Extractors,
		splitter:   cfg.Splitter,
		embedder:   cfg.Embedder,
		vectors:    cfg.Vectors,
		meta:       cfg.Meta,
		objects:    cfg.Objects,
		logger:     cfg.Logger,
		collection: cfg.Collection,
		distance:   cfg.Distance,
		maxBatch:   cfg.MaxBatch,
	}, nil
}

// IngestFiles 批量入库：单个文件失败不影响其余文件，结果与输入一一对应。
// 文件数超过上限时整批拒绝，不处理任何文件。
func (p *Pipeline) IngestFiles(ctx context.Context, files []File) ([]*common.IngestResult, error) {
	if len(files) == 0 {
		return nil, common.NewPipelineError(common.StageValidate, "没有待处理的文件", common.ErrValidationFailed)
	}
	if len(files) > p.maxBatch {
		return nil, common.NewPipelineError(common.StageValidate,
			fmt.Sprintf("单次最多处理 %d 个文件，收到 %d 个", p.maxBatch, len(files)),
			common.ErrTooManyFiles)
	}

	results := make([]*common.IngestResult, 0, len(files))
	for _, f := range files {
		results = append(results, p.IngestFile(ctx, f.Name, f.Data))
	}
	return results, nil
}

// IngestFile 单文件入库，返回结果而非错误：失败信息记录在结果中
func (p *Pipeline) IngestFile(ctx context.Context, filename string, data []byte) *common.IngestResult {
	ctx, span := tracing.StartIngestSpan(ctx, filename)
	defer span.End()
	start := time.Now()

	doc, err := p.process(ctx, filename, data)
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		stage := common.StageOf(err)
		metrics.IngestTotal.WithLabelValues("failed").Inc()
		metrics.StageFailTotal.WithLabelValues(stage).Inc()
		p.logger.Error("文件入库失败",
			"filename", filename,
			"stage", stage,
			"error", err)
		return &common.IngestResult{
			Filename: filename,
			Status:   "failed",
			Error:    err.Error(),
			Stage:    stage,
		}
	}

	metrics.IngestTotal.WithLabelValues("success").Inc()
	p.logger.Info("文件入库完成",
		"filename", filename,
		"doc_id", doc.DocID,
		"chunks", doc.NumChunks,
		"duration", time.Since(start).String())
	return &common.IngestResult{
		Filename: filename,
		DocID:    doc.DocID,
		Chunks:   doc.NumChunks,
		Status:   "success",
	}
}

// process 依次执行各阶段，任一阶段失败返回携带阶段信息的错误
func (p *Pipeline) process(ctx context.Context, filename string, data []byte) (*common.Document, error) {
	if err := p.validate(filename, data); err != nil {
		return nil, err
	}

	text, err := p.extract(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		// 提取结果只剩空白，归为提取阶段
		return nil, common.NewPipelineError(common.StageExtract, "提取后内容为空", common.ErrEmptyContent)
	}

	embeddings, err := p.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	docID := common.GenerateID("doc")
	chunkIDs := make([]string, len(chunks))
	for i := range chunks {
		chunkIDs[i] = common.GenerateID("chunk")
	}

	if err := p.index(ctx, docID, chunkIDs, chunks, embeddings); err != nil {
		return nil, err
	}

	doc := &common.Document{
		DocID:     docID,
		Filename:  filename,
		Filepath:  object.UploadPath(docID, filename),
		NumChunks: len(chunks),
		FileSize:  int64(len(data)),
		CreatedAt: time.Now(),
	}
	if err := p.persist(ctx, doc, chunkIDs, chunks, data); err != nil {
		return nil, err
	}
	return doc, nil
}

// validate 校验文件名与格式
func (p *Pipeline) validate(filename string, data []byte) error {
	if filename == "" {
		return common.NewPipelineError(common.StageValidate, "文件名为空", common.ErrValidationFailed)
	}
	if len(data) == 0 {
		return common.NewPipelineError(common.StageValidate, "文件内容为空", common.ErrEmptyContent)
	}
	if !p.extractors.Supports(filename) {
		return common.NewPipelineError(common.StageValidate,
			fmt.Sprintf("不支持的文件格式: %s", extract.Ext(filename)),
			common.ErrUnsupportedFormat)
	}
	return nil
}

// extract 提取纯文本
func (p *Pipeline) extract(ctx context.Context, filename string, data []byte) (string, error) {
	ctx, span := tracing.StartStageSpan(ctx, common.StageExtract)
	defer span.End()

	text, err := p.extractors.Extract(ctx, filename, data)
	if err != nil {
		return "", err
	}
	return text, nil
}

// embed 批量向量化全部切片
func (p *Pipeline) embed(ctx context.Context, chunks []string) ([][]float64, error) {
	ctx, span := tracing.StartStageSpan(ctx, common.StageEmbed)
	defer span.End()

	embeddings, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, common.NewPipelineError(common.StageEmbed, "向量化失败", fmt.Errorf("%w: %v", common.ErrEmbeddingFailed, err))
	}
	if len(embeddings) != len(chunks) {
		return nil, common.NewPipelineError(common.StageEmbed,
			fmt.Sprintf("向量数 %d 与切片数 %d 不一致", len(embeddings), len(chunks)),
			common.ErrEmbeddingFailed)
	}
	return embeddings, nil
}

// index 确保索引存在并写入全部向量
func (p *Pipeline) index(ctx context.Context, docID string, chunkIDs []string, chunks []string, embeddings [][]float64) error {
	ctx, span := tracing.StartStageSpan(ctx, common.StageIndex)
	defer span.End()

	err := vector.EnsureIndex(ctx, p.vectors, p.collection, p.embedder.Dimension(), p.distance, p.embedder.Model())
	if err != nil {
		return wrapIndexErr(err)
	}

	vectors := make([]*vector.Vector, len(chunks))
	for i := range chunks {
		vectors[i] = &vector.Vector{
			ID:     chunkIDs[i],
			Values: embeddings[i],
			Text:   chunks[i],
			Metadata: map[string]string{
				"doc_id":   docID,
				"chunk_id": chunkIDs[i],
			},
		}
	}
	if err := p.vectors.Add(ctx, p.collection, vectors); err != nil {
		return common.NewPipelineError(common.StageIndex, "写入向量索引失败", fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err))
	}
	return nil
}

// persist 写入文档与切片元数据，并保存原始文件（若配置了对象存储）
func (p *Pipeline) persist(ctx context.Context, doc *common.Document, chunkIDs []string, chunks []string, data []byte) error {
	ctx, span := tracing.StartStageSpan(ctx, common.StageMetadata)
	defer span.End()

	if p.objects != nil {
		err := p.objects.Put(ctx, doc.Filepath, bytes.NewReader(data), doc.FileSize, map[string]string{
			"doc_id":   doc.DocID,
			"filename": doc.Filename,
		})
		if err != nil {
			// 原始文件仅用于追溯，保存失败不终止入库
			p.logger.Warn("原始文件保存失败", "doc_id", doc.DocID, "error", err)
		}
	}

	if err := p.meta.CreateDocument(ctx, doc); err != nil {
		return common.NewPipelineError(common.StageMetadata, "写入文档元数据失败", fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err))
	}
	records := make([]*metadata.ChunkRecord, len(chunks))
	for i := range chunks {
		records[i] = &metadata.ChunkRecord{
			ChunkID:  chunkIDs[i],
			DocID:    doc.DocID,
			Position: i,
			Text:     chunks[i],
		}
	}
	if err := p.meta.CreateChunks(ctx, records); err != nil {
		return common.NewPipelineError(common.StageMetadata, "写入切片元数据失败", fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err))
	}
	return nil
}

func wrapIndexErr(err error) error {
	if common.IsPipelineError(err) {
		return err
	}
	return common.NewPipelineError(common.StageIndex, "向量索引不可用", fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err))
}
