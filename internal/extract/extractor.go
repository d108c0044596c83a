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

package extract

import (
	"context"
	"path/filepath"
	"strings"

	"rag-docqa/internal/pipeline/common"
)

// Extractor 文本提取器接口：按文件类型把原始字节转为纯文本
type Extractor interface {
	// Extract 提取文本内容
	Extract(ctx context.Context, filename string, data []byte) (string, error)
	// Name 返回提取器名称
	Name() string
}

// Registry 按扩展名分发的提取器注册表；二进制格式（pdf/docx）的解析器由外部注册
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry 创建注册表并注册内置提取器
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	text := NewTextExtractor()
	for _, ext := range []string{".txt", ".md", ".markdown"} {
		r.Register(ext, text)
	}
	htm := NewHTMLExtractor()
	for _, ext := range []string{".html", ".htm"} {
		r.Register(ext, htm)
	}
	return r
}

// Register 注册扩展名对应的提取器，覆盖同名注册
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Supports 检查扩展名是否有对应提取器
func (r *Registry) Supports(filename string) bool {
	_, ok := r.byExt[Ext(filename)]
	return ok
}

// Extract 按文件扩展名分发提取；无对应提取器时返回 ErrUnsupportedFormat
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	e, ok := r.byExt[Ext(filename)]
	if !ok {
		return "", common.NewPipelineError(common.StageExtract, "无提取器: "+filename, common.ErrUnsupportedFormat)
	}
	text, err := e.Extract(ctx, filename, data)
	if err != nil {
		return "", common.NewPipelineError(common.StageExtract, "提取失败: "+filename, err)
	}
	return text, nil
}

// Ext 返回小写扩展名（含点）
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
