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
	"fmt"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"rag-docqa/internal/extract"
	"rag-docqa/internal/model/embedding"
	"rag-docqa/internal/model/llm"
	"rag-docqa/internal/pipeline/ingest"
	"rag-docqa/internal/pipeline/query"
	"rag-docqa/internal/splitter"
	"rag-docqa/internal/storage/cache"
	"rag-docqa/internal/storage/metadata"
	"rag-docqa/internal/storage/object"
	"rag-docqa/internal/storage/vector"
	"rag-docqa/pkg/config"
	"rag-docqa/pkg/log"
	"rag-docqa/pkg/secrets"
	"rag-docqa/pkg/tracing"
	"rag-docqa/pkg/utils"
)

// Bootstrap 统一初始化：装配存储、模型客户端与两条管线，避免在 cmd 内写业务
type Bootstrap struct {
	Config   *config.Config
	Logger   *log.Logger
	Meta     *metadata.Repository
	Vectors  vector.Store
	Objects  object.Store
	Cache    cache.Store
	Secrets  secrets.Store
	Embedder embedding.Embedder
	LLM      llm.Client
	Ingest   *ingest.Pipeline
	Query    *query.Pipeline
	Tracer   *sdktrace.TracerProvider
}

// NewBootstrap 根据配置创建 Bootstrap
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置为空")
	}

	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}

	metaStore, err := metadata.NewStore(ctx, cfg.Storage.Metadata)
	if err != nil {
		return nil, fmt.Errorf("初始化元数据存储failed: %w", err)
	}
	vecStore, err := vector.NewStore(cfg.Storage.Vector)
	if err != nil {
		return nil, fmt.Errorf("初始化向量存储failed: %w", err)
	}
	objStore, err := object.NewStore(cfg.Storage.Object)
	if err != nil {
		return nil, fmt.Errorf("初始化对象存储failed: %w", err)
	}
	cacheStore, err := cache.NewCache(ctx, cfg.Storage.Cache)
	if err != nil {
		return nil, fmt.Errorf("初始化缓存failed: %w", err)
	}

	// 链路追踪：管线 span 导出；HTTP server 追踪由 app/api 在此 provider 之上装配。
	// export_endpoint 仅来自配置；只配了 OTEL_EXPORTER_OTLP_ENDPOINT 环境变量时由 app/api 装配 provider
	var tracerProvider *sdktrace.TracerProvider
	if cfg.Monitoring.Tracing.Enable {
		if endpoint := cfg.Monitoring.Tracing.ExportEndpoint; endpoint != "" {
			tracerProvider, err = tracing.InitTracer(tracing.OTelConfig{
				ServiceName:    utils.CoalesceString(cfg.Monitoring.Tracing.ServiceName, "rag-docqa"),
				ExportEndpoint: endpoint,
				Insecure:       cfg.Monitoring.Tracing.Insecure,
			})
			if err != nil {
				return nil, fmt.Errorf("初始化链路追踪failed: %w", err)
			}
		}
	}

	secStore, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Config:   cfg.Secrets.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Secret Store failed: %w", err)
	}

	embedder, err := NewEmbedderFromConfig(ctx, cfg, secStore)
	if err != nil {
		return nil, fmt.Errorf("初始化 Embedder failed: %w", err)
	}
	llmClient, err := NewLLMClientFromConfig(ctx, cfg, secStore)
	if err != nil {
		return nil, fmt.Errorf("初始化 LLM 客户端failed: %w", err)
	}
	llmClient = rateLimitedLLM(cfg, llmClient)

	chunkSize := cfg.Ingest.ChunkSize
	if chunkSize <= 0 {
		chunkSize = splitter.DefaultChunkSize
	}
	overlap := cfg.Ingest.ChunkOverlap
	if overlap < 0 || (cfg.Ingest.ChunkSize <= 0 && overlap == 0) {
		overlap = splitter.DefaultOverlap
	}
	sp, err := splitter.NewWindowSplitter(chunkSize, overlap)
	if err != nil {
		return nil, fmt.Errorf("初始化切片器failed: %w", err)
	}

	collection := utils.CoalesceString(cfg.Storage.Vector.Collection, "documents")
	repo := metadata.NewRepository(metaStore)

	ingestPipeline, err := ingest.NewPipeline(ingest.Config{
		Extractors: extract.NewRegistry(),
		Splitter:   sp,
		Embedder:   embedder,
		Vectors:    vecStore,
		Meta:       repo,
		Objects:    objStore,
		Logger:     logger,
		Collection: collection,
		Distance:   cfg.Storage.Vector.Distance,
		MaxBatch:   cfg.Ingest.MaxBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化入库管线failed: %w", err)
	}

	embCache := cache.NewEmbeddingCache(cacheStore, cacheTTL(cfg))
	retriever := query.NewRetriever(embedder, vecStore, collection, embCache)
	generator := query.NewGenerator(llmClient, 0, 0)
	queryPipeline, err := query.NewPipeline(retriever, generator, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化查询管线failed: %w", err)
	}
	queryPipeline.SetDefaultTopK(utils.DefaultInt(cfg.Query.TopK, query.DefaultTopK))

	return &Bootstrap{
		Config:   cfg,
		Logger:   logger,
		Meta:     repo,
		Vectors:  vecStore,
		Objects:  objStore,
		Cache:    cacheStore,
		Secrets:  secStore,
		Embedder: embedder,
		LLM:      llmClient,
		Ingest:   ingestPipeline,
		Query:    queryPipeline,
		Tracer:   tracerProvider,
	}, nil
}

// Close 释放存储连接并停止 span 导出
func (b *Bootstrap) Close() {
	if b.Tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = b.Tracer.Shutdown(ctx)
		cancel()
	}
	if b.Cache != nil {
		_ = b.Cache.Close()
	}
	if b.Objects != nil {
		_ = b.Objects.Close()
	}
	if b.Vectors != nil {
		_ = b.Vectors.Close()
	}
}

// rateLimitedLLM 按配置对 LLM 客户端加限流；无配置时用默认限额
func rateLimitedLLM(cfg *config.Config, client llm.Client) llm.Client {
	configs := make(map[string]llm.LimitConfig)
	for provider, rl := range cfg.RateLimits.LLM {
		configs[provider] = llm.LimitConfig{
			RequestsPerMinute: rl.RequestsPerMinute,
			MaxConcurrent:     rl.MaxConcurrent,
		}
	}
	limiter := llm.NewRateLimiter(configs, llm.LimitConfig{})
	return llm.NewRateLimitedClient(client, limiter)
}

func cacheTTL(cfg *config.Config) time.Duration {
	if cfg.Storage.Cache.TTL == "" {
		return 0
	}
	d, err := time.ParseDuration(cfg.Storage.Cache.TTL)
	if err != nil {
		return 0
	}
	return d
}
