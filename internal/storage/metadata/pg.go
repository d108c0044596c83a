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

package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rag-docqa/internal/pipeline/common"
	pkgerrors "rag-docqa/pkg/errors"
)

// pgStore PostgreSQL 元数据存储实现
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore 创建基于 PostgreSQL 的元数据存储；dsn 为连接串
func NewPostgresStore(ctx context.Context, dsn string) (Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s := &pgStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *pgStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			doc_id     TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			filepath   TEXT NOT NULL DEFAULT '',
			num_chunks INT NOT NULL DEFAULT 0,
			file_size  BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT PRIMARY KEY,
			doc_id   TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
			position INT NOT NULL,
			text     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	`)
	return err
}

// CreateDocument 创建文档元数据
func (s *pgStore) CreateDocument(ctx context.Context, doc *common.Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (doc_id, filename, filepath, num_chunks, file_size, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		doc.DocID, doc.Filename, doc.Filepath, doc.NumChunks, doc.FileSize)
	return err
}

// GetDocument 根据 doc_id 获取文档元数据
func (s *pgStore) GetDocument(ctx context.Context, docID string) (*common.Document, error) {
	var doc common.Document
	err := s.pool.QueryRow(ctx,
		`SELECT doc_id, filename, filepath, num_chunks, file_size, created_at
		 FROM documents WHERE doc_id = $1`, docID).
		Scan(&doc.DocID, &doc.Filename, &doc.Filepath, &doc.NumChunks, &doc.FileSize, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "document %s", docID)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments 列出文档元数据，按创建时间升序
func (s *pgStore) ListDocuments(ctx context.Context, filter *Filter, pagination *Pagination) ([]*common.Document, error) {
	query := `SELECT doc_id, filename, filepath, num_chunks, file_size, created_at FROM documents`
	args := []any{}
	where := ""
	if filter != nil && len(filter.DocIDs) > 0 {
		args = append(args, filter.DocIDs)
		where = fmt.Sprintf(" WHERE doc_id = ANY($%d)", len(args))
	}
	if filter != nil && filter.Search != "" {
		args = append(args, filter.Search)
		if where == "" {
			where = fmt.Sprintf(" WHERE filename = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND filename = $%d", len(args))
		}
	}
	query += where + " ORDER BY created_at, doc_id"
	if pagination != nil {
		args = append(args, pagination.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, pagination.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*common.Document
	for rows.Next() {
		var doc common.Document
		if err := rows.Scan(&doc.DocID, &doc.Filename, &doc.Filepath, &doc.NumChunks, &doc.FileSize, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CountDocuments 统计文档数量
func (s *pgStore) CountDocuments(ctx context.Context, filter *Filter) (int64, error) {
	query := `SELECT COUNT(*) FROM documents`
	args := []any{}
	if filter != nil && len(filter.DocIDs) > 0 {
		args = append(args, filter.DocIDs)
		query += fmt.Sprintf(" WHERE doc_id = ANY($%d)", len(args))
	}
	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteDocument 根据 doc_id 删除文档及其切片记录
func (s *pgStore) DeleteDocument(ctx context.Context, docID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE doc_id = $1`, docID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.Wrapf(pkgerrors.ErrNotFound, "document %s", docID)
	}
	return nil
}

// CreateChunks 批量创建切片记录
func (s *pgStore) CreateChunks(ctx context.Context, chunks []*ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(
			`INSERT INTO chunks (chunk_id, doc_id, position, text) VALUES ($1, $2, $3, $4)`,
			chunk.ChunkID, chunk.DocID, chunk.Position, chunk.Text)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range chunks {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListChunks 按 doc_id 列出切片记录，按位置升序
func (s *pgStore) ListChunks(ctx context.Context, docID string) ([]*ChunkRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT chunk_id, doc_id, position, text FROM chunks WHERE doc_id = $1 ORDER BY position`,
		docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ChunkRecord
	for rows.Next() {
		var r ChunkRecord
		if err := rows.Scan(&r.ChunkID, &r.DocID, &r.Position, &r.Text); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Close 关闭连接池
func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}
