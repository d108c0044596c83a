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

package splitter

import (
	"strings"

	"rag-docqa/internal/pipeline/common"
)

// 默认切片配置
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// WindowSplitter 定长滑动窗口切片器：窗口 i 起点为 i*(chunkSize-overlap)，末窗可短于 chunkSize
type WindowSplitter struct {
	chunkSize int
	overlap   int
}

// NewWindowSplitter 创建滑动窗口切片器；chunkSize ≤ 0、overlap < 0 或 overlap ≥ chunkSize 时拒绝
func NewWindowSplitter(chunkSize, overlap int) (*WindowSplitter, error) {
	if err := validateWindow(chunkSize, overlap); err != nil {
		return nil, err
	}
	return &WindowSplitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize 返回窗口大小
func (s *WindowSplitter) ChunkSize() int { return s.chunkSize }

// Overlap 返回窗口重叠
func (s *WindowSplitter) Overlap() int { return s.overlap }

// Split 对文本归一化后按窗口切片；空文本返回空序列。无副作用，确定性
func (s *WindowSplitter) Split(text string) []string {
	chunks, _ := Split(text, s.chunkSize, s.overlap)
	return chunks
}

// Split 切片函数形式：归一化 → 定长窗口。参数非法时返回 ErrInvalidParameter，不产生部分结果
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := validateWindow(chunkSize, overlap); err != nil {
		return nil, err
	}

	runes := []rune(CleanText(text))
	if len(runes) == 0 {
		return nil, nil
	}

	// 步长恒为正（参数已校验），循环必然推进
	step := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}

// CleanText 归一化文本：所有空白串（含换行）折叠为单个空格，去除首尾空白
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// validateWindow 前置校验：若 chunkSize-overlap ≤ 0 窗口永不推进，必须在此拒绝而不是挂起
func validateWindow(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return common.NewPipelineError(common.StageChunk, "chunk_size 必须为正", common.ErrInvalidParameter)
	}
	if overlap < 0 || overlap >= chunkSize {
		return common.NewPipelineError(common.StageChunk, "overlap 必须满足 0 ≤ overlap < chunk_size", common.ErrInvalidParameter)
	}
	return nil
}
