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
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor HTML 提取器：只保留文本节点，script/style 内容丢弃
type HTMLExtractor struct {
	name string
}

// NewHTMLExtractor 创建 HTML 提取器
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{name: "html_extractor"}
}

// Name 返回提取器名称
func (e *HTMLExtractor) Name() string {
	return e.name
}

// Extract 提取文本内容
func (e *HTMLExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	tz := html.NewTokenizer(bytes.NewReader(data))
	var sb strings.Builder
	skip := 0
	for {
		switch tz.Next() {
		case html.ErrorToken:
			// 包括 io.EOF；残缺 HTML 按已解析部分返回
			return sb.String(), nil
		case html.StartTagToken:
			name, _ := tz.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.TrimSpace(string(tz.Text()))
			if text == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(text)
		}
	}
}
