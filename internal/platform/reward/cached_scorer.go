// internal/platform/reward/cached_scorer.go
package reward

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
)

// ScoreCache 评分缓存接口
type ScoreCache interface {
	// Get 读取缓存，未命中时 found 为 false
	Get(ctx context.Context, key string) (breakdown RewardBreakdown, found bool, err error)

	// Set 写入缓存
	Set(ctx context.Context, key string, breakdown RewardBreakdown) error
}

const scoreCacheName = "score"

// CachedScorer 带缓存的评分器。缓存故障只记日志，评分仍由模型完成
type CachedScorer struct {
	model   *RewardModel
	cache   ScoreCache
	metrics *metrics.MetricsCollector
	logger  logging.Logger
}

// NewCachedScorer 创建带缓存的评分器
func NewCachedScorer(model *RewardModel, cache ScoreCache, metricsCollector *metrics.MetricsCollector, logger logging.Logger) *CachedScorer {
	return &CachedScorer{
		model:   model,
		cache:   cache,
		metrics: metricsCollector,
		logger:  logger,
	}
}

// Score 为文本打分，优先读取缓存
func (s *CachedScorer) Score(ctx context.Context, text string) RewardBreakdown {
	key := s.Key(text)

	if cached, found, err := s.cache.Get(ctx, key); err != nil {
		s.logger.WithContext(ctx).Warn("score cache read failed", logging.Error(err))
	} else if found {
		s.metrics.RecordCacheHit(scoreCacheName)
		return cached
	}
	s.metrics.RecordCacheMiss(scoreCacheName)

	breakdown := s.model.Evaluate(text)
	if err := s.cache.Set(ctx, key, breakdown); err != nil {
		s.logger.WithContext(ctx).Warn("score cache write failed", logging.Error(err))
	}
	return breakdown
}

// Key 缓存键：模型标识与文本的 SHA-256
func (s *CachedScorer) Key(text string) string {
	sum := sha256.Sum256([]byte(s.model.Fingerprint() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

//Personal.AI order the ending
