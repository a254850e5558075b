// internal/platform/reward/cache/tiered.go
package cache

import (
	"context"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/platform/reward"
)

// TieredCache 两级评分缓存：本地 LRU 在前，共享缓存在后
type TieredCache struct {
	local  reward.ScoreCache
	remote reward.ScoreCache
	logger logging.Logger
}

// NewTieredCache 创建两级缓存
func NewTieredCache(local, remote reward.ScoreCache, logger logging.Logger) *TieredCache {
	return &TieredCache{local: local, remote: remote, logger: logger}
}

// Get 先查本地，再查共享缓存；共享缓存命中时回填本地
func (t *TieredCache) Get(ctx context.Context, key string) (reward.RewardBreakdown, bool, error) {
	if b, found, err := t.local.Get(ctx, key); err == nil && found {
		return b, true, nil
	}

	b, found, err := t.remote.Get(ctx, key)
	if err != nil || !found {
		return b, found, err
	}

	if err := t.local.Set(ctx, key, b); err != nil {
		t.logger.WithContext(ctx).Warn("failed to promote score to local cache", logging.Error(err))
	}
	return b, true, nil
}

// Set 写入所有层级。本地写入总会执行，返回共享缓存的错误
func (t *TieredCache) Set(ctx context.Context, key string, breakdown reward.RewardBreakdown) error {
	if err := t.local.Set(ctx, key, breakdown); err != nil {
		t.logger.WithContext(ctx).Warn("failed to write local score cache", logging.Error(err))
	}
	return t.remote.Set(ctx, key, breakdown)
}

//Personal.AI order the ending
