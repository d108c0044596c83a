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

package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	appsvc "rag-docqa/internal/app"
	"rag-docqa/internal/pipeline/common"
	"rag-docqa/internal/pipeline/ingest"
	pkgerrors "rag-docqa/pkg/errors"
	"rag-docqa/pkg/metrics"
)

// Handler HTTP 处理器：仅依赖 RAGService 门面
type Handler struct {
	rag *appsvc.RAGService
}

// NewHandler 创建新的 HTTP 处理器
func NewHandler(rag *appsvc.RAGService) *Handler {
	return &Handler{rag: rag}
}

// Health 健康检查
// GET /health
func (h *Handler) Health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "rag-docqa",
	})
}

// Metrics Prometheus 指标
// GET /metrics
func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to gather metrics"})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

// Upload 批量上传文档并入库
// POST /api/upload（multipart，字段名 files）
func (h *Handler) Upload(c context.Context, ctx *app.RequestContext) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "请上传 multipart 表单"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "缺少 files 字段"})
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "打开上传文件失败: " + fh.Filename})
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "读取上传文件失败: " + fh.Filename})
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	results, err := h.rag.IngestFiles(c, files)
	if err != nil {
		if errors.Is(err, common.ErrTooManyFiles) {
			ctx.JSON(consts.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		hlog.CtxErrorf(c, "批量入库失败: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "文档入库失败"})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

// queryRequest 查询请求体
type queryRequest struct {
	Query  string   `json:"query"`
	DocIDs []string `json:"doc_ids"`
	TopK   int      `json:"top_k"`
}

// Query 基于已入库文档回答问题
// POST /api/query
func (h *Handler) Query(c context.Context, ctx *app.RequestContext) {
	var req queryRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "请求体不是合法 JSON"})
		return
	}

	answer, err := h.rag.Answer(c, &common.Query{
		Text:   req.Query,
		DocIDs: req.DocIDs,
		TopK:   req.TopK,
	})
	if err != nil {
		if errors.Is(err, common.ErrEmptyQuery) {
			ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "query 不能为空"})
			return
		}
		if errors.Is(err, common.ErrModelMismatch) {
			ctx.JSON(consts.StatusConflict, map[string]string{"error": "索引与当前嵌入模型不一致，请重建索引"})
			return
		}
		hlog.CtxErrorf(c, "查询失败: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "查询失败"})
		return
	}

	ctx.JSON(consts.StatusOK, answer)
}

// ListMetadata 列出已入库文档
// GET /api/metadata
func (h *Handler) ListMetadata(c context.Context, ctx *app.RequestContext) {
	docs, err := h.rag.Documents().ListDocuments(c)
	if err != nil {
		hlog.CtxErrorf(c, "获取文档列表失败: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "获取文档列表失败"})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

// GetMetadata 按 doc_id 获取文档
// GET /api/metadata/:id
func (h *Handler) GetMetadata(c context.Context, ctx *app.RequestContext) {
	docID := ctx.Param("id")
	doc, err := h.rag.Documents().GetDocument(c, docID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{"error": "文档不存在"})
			return
		}
		hlog.CtxErrorf(c, "获取文档失败: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "获取文档失败"})
		return
	}
	ctx.JSON(consts.StatusOK, doc)
}

// DeleteMetadata 按 doc_id 删除文档记录
// DELETE /api/metadata/:id
func (h *Handler) DeleteMetadata(c context.Context, ctx *app.RequestContext) {
	docID := ctx.Param("id")
	if err := h.rag.Documents().DeleteDocument(c, docID); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{"error": "文档不存在"})
			return
		}
		hlog.CtxErrorf(c, "删除文档失败: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "删除文档失败"})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]string{"status": "deleted", "doc_id": docID})
}
