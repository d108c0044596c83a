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
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"rag-docqa/internal/api/http/middleware"
)

// Router HTTP 路由
type Router struct {
	handler *Handler
}

// NewRouter 创建路由
func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

// Build 构建 Hertz 服务并注册路由
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append([]config.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(opts...)

	h.Use(middleware.CORS())
	h.Use(middleware.AccessLog())

	h.GET("/health", r.handler.Health)
	h.GET("/metrics", r.handler.Metrics)

	api := h.Group("/api")
	{
		api.POST("/upload", r.handler.Upload)
		api.POST("/query", r.handler.Query)
		api.GET("/metadata", r.handler.ListMetadata)
		api.GET("/metadata/:id", r.handler.GetMetadata)
		api.DELETE("/metadata/:id", r.handler.DeleteMetadata)
	}

	return h
}
