// Copyright 2026 fanjia1024
// OpenTelemetry integration for distributed tracing

package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// OTelConfig OpenTelemetry 配置
type OTelConfig struct {
	ServiceName    string
	ExportEndpoint string
	Insecure       bool
}

// InitTracer 初始化 OpenTelemetry tracer
func InitTracer(config OTelConfig) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	// 创建 OTLP exporter
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.ExportEndpoint),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, err
	}

	// 创建 resource
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	// 创建 tracer provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartIngestSpan 开始单文件入库 span
func StartIngestSpan(ctx context.Context, filename string) (context.Context, trace.Span) {
	tracer := otel.Tracer("rag-docqa")
	ctx, span := tracer.Start(ctx, "ingest.file",
		trace.WithAttributes(
			attribute.String("ingest.filename", filename),
		),
	)
	return ctx, span
}

// StartStageSpan 开始管线阶段 span
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	tracer := otel.Tracer("rag-docqa")
	ctx, span := tracer.Start(ctx, "pipeline."+stage)
	return ctx, span
}

// StartQuerySpan 开始查询 span
func StartQuerySpan(ctx context.Context, topK int) (context.Context, trace.Span) {
	tracer := otel.Tracer("rag-docqa")
	ctx, span := tracer.Start(ctx, "query.answer",
		trace.WithAttributes(
			attribute.Int("query.top_k", topK),
		),
	)
	return ctx, span
}
