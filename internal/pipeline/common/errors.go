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

package common

import (
	"errors"
	"fmt"
)

// 定义 Pipeline 相关错误：每类外部协作方失败映射到独立哨兵，而非字符串匹配的兜底
var (
	ErrInvalidParameter   = errors.New("无效的切片参数")
	ErrValidationFailed   = errors.New("文件校验失败")
	ErrEmptyContent       = errors.New("提取内容为空")
	ErrEmptyQuery         = errors.New("查询文本为空")
	ErrTooManyFiles       = errors.New("文件数量超过批次上限")
	ErrUnsupportedFormat  = errors.New("不支持的文件格式")
	ErrExtractionFailed   = errors.New("文本提取失败")
	ErrEmbeddingFailed    = errors.New("向量化失败")
	ErrIndexUnavailable   = errors.New("向量索引不可用")
	ErrStoreUnavailable   = errors.New("元数据存储不可用")
	ErrLLMFailed          = errors.New("LLM 调用失败")
	ErrModelMismatch      = errors.New("查询与索引的向量模型不一致")
)

// Pipeline 阶段名，IngestResult.Stage 与 PipelineError.Stage 使用同一组常量
const (
	StageValidate = "validate"
	StageExtract  = "extract"
	StageChunk    = "chunk"
	StageEmbed    = "embed"
	StageIndex    = "index"
	StageMetadata = "metadata"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
)

// PipelineError Pipeline 错误结构体，携带失败阶段便于事后对账
type PipelineError struct {
	Stage   string
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[Pipeline] %s 阶段错误: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[Pipeline] %s 阶段错误: %s", e.Stage, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError 创建新的 Pipeline 错误
func NewPipelineError(stage string, message string, err error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// IsPipelineError 检查是否为 Pipeline 错误
func IsPipelineError(err error) bool {
	var pipelineErr *PipelineError
	return errors.As(err, &pipelineErr)
}

// GetPipelineError 获取 Pipeline 错误
func GetPipelineError(err error) (*PipelineError, bool) {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr, true
	}
	return nil, false
}

// StageOf 返回错误的失败阶段，非 PipelineError 时返回空串
func StageOf(err error) string {
	if pe, ok := GetPipelineError(err); ok {
		return pe.Stage
	}
	return ""
}
