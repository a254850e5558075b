//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
	"github.com/openeeap/replytune/internal/platform/reward"
)

// ScoreCacheTestSuite Redis 评分缓存集成测试
type ScoreCacheTestSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcredis.RedisContainer
	cache     *ScoreCache
}

func (s *ScoreCacheTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcredis.Run(s.ctx, "redis:7-alpine")
	require.NoError(s.T(), err)
	s.container = container

	endpoint, err := container.Endpoint(s.ctx, "")
	require.NoError(s.T(), err)

	client, err := NewClient(s.ctx, &ClientConfig{Addr: endpoint})
	require.NoError(s.T(), err)
	s.T().Cleanup(func() { client.Close() })

	s.cache = NewScoreCache(client, "test:score", time.Minute)
}

func (s *ScoreCacheTestSuite) TearDownSuite() {
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

func (s *ScoreCacheTestSuite) TestMissThenHit() {
	_, found, err := s.cache.Get(s.ctx, "absent")
	require.NoError(s.T(), err)
	assert.False(s.T(), found)

	want := reward.RewardBreakdown{Politeness: 0.2, Helpfulness: 0.1, Total: 0.3, WordCount: 10}
	require.NoError(s.T(), s.cache.Set(s.ctx, "present", want))

	got, found, err := s.cache.Get(s.ctx, "present")
	require.NoError(s.T(), err)
	assert.True(s.T(), found)
	assert.Equal(s.T(), want, got)
}

func (s *ScoreCacheTestSuite) TestCachedScorerRoundTrip() {
	collector := metrics.NewMetricsCollector(metrics.CollectorConfig{Namespace: "cache_it"})
	scorer := reward.NewCachedScorer(reward.NewDefaultRewardModel(), s.cache, collector, logging.NewNoopLogger())

	text := "Thank you for the update, I appreciate your help."
	first := scorer.Score(s.ctx, text)
	second := scorer.Score(s.ctx, text)
	assert.Equal(s.T(), first, second)

	_, found, err := s.cache.Get(s.ctx, scorer.Key(text))
	require.NoError(s.T(), err)
	assert.True(s.T(), found)
}

func TestScoreCacheTestSuite(t *testing.T) {
	suite.Run(t, new(ScoreCacheTestSuite))
}
