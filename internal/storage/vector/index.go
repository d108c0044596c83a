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

	"rag-docqa/internal/pipeline/common"
)

// EnsureIndex 确保索引存在，并校验其维度与嵌入模型标识。
// 索引不存在时按给定维度与距离度量创建，distance 为空时取 cosine；
// 索引已存在但记录的嵌入模型或维度与当前配置不一致时返回 common.ErrModelMismatch。
func EnsureIndex(ctx context.Context, store Store, name string, dimension int, distance string, model string) error {
	if distance == "" {
		distance = "cosine"
	}
	idx, err := store.Describe(ctx, name)
	if err != nil {
		return store.Create(ctx, &Index{
			Name:      name,
			Dimension: dimension,
			Distance:  distance,
			Metadata: map[string]string{
				MetaEmbeddingModel: model,
			},
		})
	}

	if idx.Dimension != dimension {
		return common.NewPipelineError(common.StageIndex,
			fmt.Sprintf("index %s dimension %d does not match embedder dimension %d", name, idx.Dimension, dimension),
			common.ErrModelMismatch)
	}
	if recorded, ok := idx.Metadata[MetaEmbeddingModel]; ok && recorded != model {
		return common.NewPipelineError(common.StageIndex,
			fmt.Sprintf("index %s was built with embedding model %s, current model is %s", name, recorded, model),
			common.ErrModelMismatch)
	}
	return nil
}

// ValidateModel 查询前校验索引记录的嵌入模型标识
func ValidateModel(ctx context.Context, store Store, name string, model string) error {
	idx, err := store.Describe(ctx, name)
	if err != nil {
		// 索引尚未建立，查询侧按空检索处理
		return nil
	}
	if recorded, ok := idx.Metadata[MetaEmbeddingModel]; ok && recorded != model {
		return common.NewPipelineError(common.StageRetrieve,
			fmt.Sprintf("index %s was built with embedding model %s, current model is %s", name, recorded, model),
			common.ErrModelMismatch)
	}
	return nil
}
