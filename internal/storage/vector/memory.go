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

package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore 内存向量存储实现
type MemoryStore struct {
	indexes map[string]*index
	mu      sync.RWMutex
}

// index 内存索引实现；entries 保持插入顺序，保证同分结果的稳定排序
type index struct {
	index   *Index
	entries []*entry
	byID    map[string]*entry
}

type entry struct {
	vector *Vector
	seq    int
}

// NewMemoryStore 创建新的内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		indexes: make(map[string]*index),
	}
}

// Create 创建向量索引
func (s *MemoryStore) Create(ctx context.Context, idx *Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.indexes[idx.Name]; exists {
		return fmt.Errorf("index with name %s already exists", idx.Name)
	}

	s.indexes[idx.Name] = &index{
		index: idx,
		byID:  make(map[string]*entry),
	}
	return nil
}

// Describe 返回索引定义
func (s *MemoryStore) Describe(ctx context.Context, indexName string) (*Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return nil, fmt.Errorf("index with name %s not found", indexName)
	}
	return idx.index, nil
}

// Add 添加向量
func (s *MemoryStore) Add(ctx context.Context, indexName string, vectors []*Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return fmt.Errorf("index with name %s not found", indexName)
	}

	for _, vector := range vectors {
		if len(vector.Values) != idx.index.Dimension {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vector.Values), idx.index.Dimension)
		}
		if old, ok := idx.byID[vector.ID]; ok {
			// 同 ID 覆盖，保留原插入位置
			old.vector = vector
			continue
		}
		e := &entry{vector: vector, seq: len(idx.entries)}
		idx.entries = append(idx.entries, e)
		idx.byID[vector.ID] = e
	}
	return nil
}

// Search 搜索向量
func (s *MemoryStore) Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return nil, fmt.Errorf("index with name %s not found", indexName)
	}
	if len(query) != idx.index.Dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), idx.index.Dimension)
	}
	if options == nil {
		options = &SearchOptions{TopK: 10}
	}
	topK := options.TopK
	if topK <= 0 {
		topK = 10
	}

	type scored struct {
		e     *entry
		score float64
	}
	var results []scored

	for _, e := range idx.entries {
		if len(options.Filter) > 0 {
			match := true
			for key, value := range options.Filter {
				if e.vector.Metadata == nil || e.vector.Metadata[key] != value {
					match = false
					break
				}
			}
			if !match {
				continue
			}
		}
		results = append(results, scored{e: e, score: similarity(query, e.vector.Values, idx.index.Distance)})
	}

	// 按相似度降序；entries 已按插入顺序遍历，稳定排序保证同分平局确定
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	out := make([]*SearchResult, len(results))
	for i, r := range results {
		out[i] = &SearchResult{
			ID:       r.e.vector.ID,
			Score:    r.score,
			Text:     r.e.vector.Text,
			Metadata: r.e.vector.Metadata,
		}
	}
	return out, nil
}

// Get 根据 ID 获取向量
func (s *MemoryStore) Get(ctx context.Context, indexName string, id string) (*Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return nil, fmt.Errorf("index with name %s not found", indexName)
	}
	e, exists := idx.byID[id]
	if !exists {
		return nil, fmt.Errorf("vector with ID %s not found", id)
	}
	return e.vector, nil
}

// Delete 删除向量
func (s *MemoryStore) Delete(ctx context.Context, indexName string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return fmt.Errorf("index with name %s not found", indexName)
	}
	e, exists := idx.byID[id]
	if !exists {
		return fmt.Errorf("vector with ID %s not found", id)
	}
	delete(idx.byID, id)
	for i, it := range idx.entries {
		if it == e {
			idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
			break
		}
	}
	return nil
}

// ListIndexes 列出所有索引
func (s *MemoryStore) ListIndexes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var indexes []string
	for name := range s.indexes {
		indexes = append(indexes, name)
	}
	return indexes, nil
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}

// similarity 计算向量相似度
func similarity(query, vector []float64, distance string) float64 {
	switch distance {
	case "ip":
		return dotProduct(query, vector)
	case "", "cosine":
		return cosineSimilarity(query, vector)
	default:
		return cosineSimilarity(query, vector)
	}
}

// cosineSimilarity 计算余弦相似度
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	dot := 0.0
	normA := 0.0
	normB := 0.0
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// dotProduct 计算内积
func dotProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
