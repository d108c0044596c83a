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

package llm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// LimitConfig 单个 Provider 的限流配置
type LimitConfig struct {
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"` // 每分钟请求数
	MaxConcurrent     int     `mapstructure:"max_concurrent"`      // 最大并发请求数
}

// RateLimiter Provider 维度的限流器：RPS + 并发控制
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*providerLimiter
	defaults LimitConfig
}

type providerLimiter struct {
	requestLimiter *rate.Limiter
	semaphore      chan struct{}
}

// NewRateLimiter 创建限流器；defaults 为未显式配置的 provider 的兜底
func NewRateLimiter(configs map[string]LimitConfig, defaults LimitConfig) *RateLimiter {
	if defaults.RequestsPerMinute <= 0 {
		defaults.RequestsPerMinute = 600
	}
	if defaults.MaxConcurrent <= 0 {
		defaults.MaxConcurrent = 16
	}
	l := &RateLimiter{
		limiters: make(map[string]*providerLimiter),
		defaults: defaults,
	}
	for provider, cfg := range configs {
		l.addProvider(provider, cfg)
	}
	return l
}

func (l *RateLimiter) addProvider(provider string, cfg LimitConfig) {
	pl := &providerLimiter{}
	if cfg.RequestsPerMinute > 0 {
		rps := cfg.RequestsPerMinute / 60.0
		burst := int(rps * 2)
		if burst < 1 {
			burst = 1
		}
		pl.requestLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if cfg.MaxConcurrent > 0 {
		pl.semaphore = make(chan struct{}, cfg.MaxConcurrent)
	}
	l.mu.Lock()
	l.limiters[provider] = pl
	l.mu.Unlock()
}

func (l *RateLimiter) limiterFor(provider string) *providerLimiter {
	l.mu.RLock()
	pl, exists := l.limiters[provider]
	l.mu.RUnlock()
	if exists {
		return pl
	}
	l.addProvider(provider, l.defaults)
	l.mu.RLock()
	pl = l.limiters[provider]
	l.mu.RUnlock()
	return pl
}

// Wait 等待获取执行许可（阻塞直到可以执行或 ctx 取消）
func (l *RateLimiter) Wait(ctx context.Context, provider string) error {
	pl := l.limiterFor(provider)

	if pl.requestLimiter != nil {
		if err := pl.requestLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("request rate limit wait failed: %w", err)
		}
	}
	if pl.semaphore != nil {
		select {
		case pl.semaphore <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Release 释放并发 slot（在调用完成后执行）
func (l *RateLimiter) Release(provider string) {
	l.mu.RLock()
	pl, exists := l.limiters[provider]
	l.mu.RUnlock()
	if exists && pl.semaphore != nil {
		select {
		case <-pl.semaphore:
		default:
		}
	}
}
