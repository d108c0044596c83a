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
	"strings"

	"github.com/google/uuid"
)

// GenerateID 生成带前缀的唯一 ID，如 doc_3f2a...；随机部分为 UUIDv4 全量 122 位
func GenerateID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	if prefix == "" {
		return hex
	}
	return prefix + "_" + hex
}
