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

package object

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore 本地文件系统对象存储实现，root 为存储根目录
type FileStore struct {
	root string
}

// NewFileStore 创建基于本地文件系统的对象存储
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("object store root directory is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object store root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// abs 将对象路径映射到磁盘路径，拒绝越出根目录的路径
func (s *FileStore) abs(path string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object path: %s", path)
	}
	return full, nil
}

// Put 上传对象
func (s *FileStore) Put(ctx context.Context, path string, data io.Reader, size int64, metadata map[string]string) error {
	full, err := s.abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("failed to write object data: %w", err)
	}
	return nil
}

// Get 下载对象
func (s *FileStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := s.abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object with path %s not found", path)
		}
		return nil, err
	}
	return f, nil
}

// Delete 删除对象
func (s *FileStore) Delete(ctx context.Context, path string) error {
	full, err := s.abs(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("object with path %s not found", path)
		}
		return err
	}
	return nil
}

// List 列出对象，按路径升序
func (s *FileStore) List(ctx context.Context, prefix string) ([]*ObjectInfo, error) {
	var results []*ObjectInfo
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		path := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		results = append(results, &ObjectInfo{
			Path:      path,
			Size:      info.Size(),
			CreatedAt: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

// Exists 检查对象是否存在
func (s *FileStore) Exists(ctx context.Context, path string) (bool, error) {
	full, err := s.abs(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close 关闭存储连接
func (s *FileStore) Close() error {
	return nil
}
