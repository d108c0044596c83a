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

package query

import (
	"context"
	"strings"

	"rag-docqa/internal/model/llm"
	"rag-docqa/internal/pipeline/common"
	"rag-docqa/internal/splitter"
)

// 固定系统提示：只依据提供的上下文作答
const systemPrompt = "You are a helpful assistant. Answer the question using only the provided context. " +
	"If the context does not contain the answer, say you do not know."

// NoResultsAnswer 检索为空时返回的固定回答
const NoResultsAnswer = "No relevant information found."

// DegradedAnswer 生成失败时返回的兜底回答，不暴露内部错误
const DegradedAnswer = "Sorry, I could not generate an answer right now. Please try again later."

// Generator 生成器：拼装上下文与提示词并调用 LLM
type Generator struct {
	llmClient   llm.Client
	temperature float64
	maxTokens   int
}

// NewGenerator 创建生成器
func NewGenerator(llmClient llm.Client, temperature float64, maxTokens int) *Generator {
	if temperature <= 0 {
		temperature = 0.1
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{
		llmClient:   llmClient,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Generate 基于检索结果生成回答。LLM 调用失败时返回兜底回答与错误，
// 调用方据此记录日志但仍向用户返回兜底文案。
func (g *Generator) Generate(ctx context.Context, question string, retrieval *common.RetrievalResult) (*common.Answer, error) {
	prompt := BuildPrompt(question, retrieval.Texts)

	raw, err := g.llmClient.GenerateWithContext(ctx, prompt, llm.GenerateOptions{
		System:      systemPrompt,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return &common.Answer{Text: DegradedAnswer, Provenance: []common.ChunkMeta{}},
			common.NewPipelineError(common.StageGenerate, "LLM 生成失败", err)
	}

	answer := splitter.CleanText(raw)
	if answer == "" {
		return &common.Answer{Text: DegradedAnswer, Provenance: []common.ChunkMeta{}},
			common.NewPipelineError(common.StageGenerate, "LLM 返回空回答", common.ErrLLMFailed)
	}

	return &common.Answer{
		Text:       answer,
		Provenance: append([]common.ChunkMeta{}, retrieval.Metas...),
	}, nil
}

// BuildPrompt 拼装提示词：检索到的切片以空行分隔作为上下文，后接问题
func BuildPrompt(question string, contexts []string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(contexts, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}
