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
	"time"
)

// Document 文档记录：每个成功入库的文件恰好创建一条，创建后不再更新
type Document struct {
	DocID     string    `json:"doc_id"`     // 文档唯一标识，入库时生成
	Filename  string    `json:"filename"`   // 原始文件名
	Filepath  string    `json:"filepath"`   // 来源路径或引用
	NumChunks int       `json:"num_chunks"` // 切片数量，切片完成后写入一次
	FileSize  int64     `json:"file_size"`  // 文件字节数
	CreatedAt time.Time `json:"created_at"` // 创建时间
}

// Chunk 文档切片：向量化与检索的基本单元
type Chunk struct {
	ChunkID   string    `json:"chunk_id"`            // 切片唯一标识，入库时生成
	DocID     string    `json:"doc_id"`              // 所属文档 ID（仅为关联，不控制文档生命周期）
	Text      string    `json:"text"`                // 切片文本内容
	Embedding []float64 `json:"embedding,omitempty"` // 由 Embedder 生成的向量，维度由模型决定
	CreatedAt time.Time `json:"created_at"`          // 创建时间
}

// Query 查询请求：瞬态，不持久化
type Query struct {
	Text   string   `json:"text"`              // 查询文本
	DocIDs []string `json:"doc_ids,omitempty"` // 可选的文档 ID 过滤集合
	TopK   int      `json:"top_k"`             // 检索条数，正整数
}

// ChunkMeta 检索返回的切片元数据（provenance 的单元）
type ChunkMeta struct {
	DocID   string `json:"doc_id"`
	ChunkID string `json:"chunk_id"`
}

// RetrievalResult 检索结果：按相似度降序排列，长度 ≤ top_k
type RetrievalResult struct {
	Texts  []string    `json:"texts"`
	Metas  []ChunkMeta `json:"metas"`
	Scores []float64   `json:"scores"`
}

// Len 返回检索到的条数
func (r *RetrievalResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Texts)
}

// IngestResult 单个文件的入库结果
type IngestResult struct {
	Filename string `json:"filename"`
	DocID    string `json:"doc_id,omitempty"`
	Chunks   int    `json:"chunks"`
	Status   string `json:"status"` // success | failed
	Error    string `json:"error,omitempty"`
	Stage    string `json:"stage,omitempty"` // 失败阶段，成功时为空
}

// Answer 问答结果：答案文本 + 实际用于上下文的切片元数据
type Answer struct {
	Text       string      `json:"answer"`
	Provenance []ChunkMeta `json:"provenance"`
}
