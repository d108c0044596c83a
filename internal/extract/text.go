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
	"strings"
	"unicode/utf8"
)

// TextExtractor 纯文本提取器：UTF-8 直读，非法字节序列按忽略处理
type TextExtractor struct {
	name string
}

// NewTextExtractor 创建纯文本提取器
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{name: "text_extractor"}
}

// Name 返回提取器名称
func (e *TextExtractor) Name() string {
	return e.name
}

// Extract 提取文本内容
func (e *TextExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	// 与原始实现的 errors="ignore" 读取对齐：丢弃非法序列
	var sb strings.Builder
	sb.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size != 1 {
			sb.WriteRune(r)
		}
		data = data[size:]
	}
	return sb.String(), nil
}
