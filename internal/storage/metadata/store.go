package metadata

import (
	"context"
	"fmt"

	"rag-docqa/pkg/config"
)

// NewStore 根据配置创建元数据存储（memory 或 postgres）
func NewStore(ctx context.Context, cfg config.MetadataConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("不支持的元数据存储类型: %s", cfg.Type)
	}
}
