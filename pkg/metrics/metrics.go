package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		IngestDuration, IngestTotal, StageFailTotal,
		QueryDuration, RetrievedChunks,
		LLMTokensTotal,
	)
}

// IngestDuration 单文件入库耗时（秒）
var IngestDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "docqa_ingest_duration_seconds",
		Help:    "单文件入库耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
)

// IngestTotal 入库文件总数（按结果）
var IngestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docqa_ingest_total",
		Help: "入库文件总数（按结果）",
	},
	[]string{"status"}, // success | failed
)

// StageFailTotal 管线阶段失败总数
var StageFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docqa_stage_fail_total",
		Help: "管线阶段失败总数",
	},
	[]string{"stage"},
)

// QueryDuration 查询耗时（秒）
var QueryDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "docqa_query_duration_seconds",
		Help:    "查询耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
)

// RetrievedChunks 单次查询检索到的切片数
var RetrievedChunks = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "docqa_retrieved_chunks",
		Help:    "单次查询检索到的切片数",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	},
)

// LLMTokensTotal LLM 调用 token 数
var LLMTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docqa_llm_tokens_total",
		Help: "LLM 调用 token 总数",
	},
	[]string{"direction"}, // input | output
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
