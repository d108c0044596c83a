// Copyright 2026 fanjia1024
// 模型客户端装配：从配置解析默认 LLM/Embedding 并解析 API Key

package app

import (
	"context"
	"fmt"
	"strings"

	"rag-docqa/internal/model/embedding"
	"rag-docqa/internal/model/llm"
	"rag-docqa/pkg/config"
	"rag-docqa/pkg/secrets"
)

// NewLLMClientFromConfig 根据 config.Model 的 defaults.llm 创建 LLM 客户端（如 "openai.gpt_4o_mini"）
func NewLLMClientFromConfig(ctx context.Context, cfg *config.Config, sec secrets.Store) (llm.Client, error) {
	if cfg == nil || cfg.Model.Defaults.LLM == "" {
		return nil, fmt.Errorf("defaults.llm 未配置")
	}
	provider, modelKey, err := parseDefaultKey(cfg.Model.Defaults.LLM)
	if err != nil {
		return nil, err
	}
	pc, ok := cfg.Model.LLM.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("LLM provider %q 未配置", provider)
	}
	mi, ok := pc.Models[modelKey]
	if !ok {
		return nil, fmt.Errorf("LLM model %q 未在 provider %q 中配置", modelKey, provider)
	}
	apiKey, err := resolveAPIKey(ctx, sec, provider, pc.APIKey)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(provider, mi.Name, apiKey, pc.BaseURL)
}

// NewEmbedderFromConfig 根据 config.Model 的 defaults.embedding 创建 Embedder
func NewEmbedderFromConfig(ctx context.Context, cfg *config.Config, sec secrets.Store) (embedding.Embedder, error) {
	if cfg == nil || cfg.Model.Defaults.Embedding == "" {
		return nil, fmt.Errorf("defaults.embedding 未配置")
	}
	provider, modelKey, err := parseDefaultKey(cfg.Model.Defaults.Embedding)
	if err != nil {
		return nil, err
	}
	pc, ok := cfg.Model.Embedding.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("Embedding provider %q 未配置", provider)
	}
	mi, ok := pc.Models[modelKey]
	if !ok {
		return nil, fmt.Errorf("Embedding model %q 未在 provider %q 中配置", modelKey, provider)
	}
	apiKey, err := resolveAPIKey(ctx, sec, provider, pc.APIKey)
	if err != nil {
		return nil, err
	}
	dimension := mi.Dimension
	if dimension <= 0 {
		dimension = 1536
	}
	return embedding.NewEmbedder(provider, mi.Name, apiKey, pc.BaseURL, dimension)
}

// resolveAPIKey 配置中未给出 api_key 时从 Secret Store 取 <provider>_api_key
func resolveAPIKey(ctx context.Context, sec secrets.Store, provider, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if sec != nil {
		if v, err := sec.Get(ctx, provider+"_api_key"); err == nil && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("provider %q 的 api_key 未配置", provider)
}

func parseDefaultKey(key string) (provider, modelKey string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("default key 格式应为 provider.model_key，如 openai.gpt_4o_mini，当前: %q", key)
	}
	return parts[0], parts[1], nil
}
