package reward

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
)

type mockScoreCache struct {
	mock.Mock
}

func (m *mockScoreCache) Get(ctx context.Context, key string) (RewardBreakdown, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(RewardBreakdown), args.Bool(1), args.Error(2)
}

func (m *mockScoreCache) Set(ctx context.Context, key string, breakdown RewardBreakdown) error {
	args := m.Called(ctx, key, breakdown)
	return args.Error(0)
}

func newCachedScorer(cache ScoreCache) *CachedScorer {
	return NewCachedScorer(
		NewDefaultRewardModel(),
		cache,
		metrics.NewMetricsCollector(metrics.CollectorConfig{Namespace: "test"}),
		logging.NewNoopLogger(),
	)
}

func TestCachedScorer_Hit(t *testing.T) {
	cache := new(mockScoreCache)
	scorer := newCachedScorer(cache)
	cached := RewardBreakdown{Politeness: 0.9, Helpfulness: 0.1, Total: 0.5, WordCount: 4}

	cache.On("Get", mock.Anything, scorer.Key("hello")).Return(cached, true, nil).Once()

	assert.Equal(t, cached, scorer.Score(context.Background(), "hello"))
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestCachedScorer_MissStores(t *testing.T) {
	cache := new(mockScoreCache)
	scorer := newCachedScorer(cache)
	expected := NewDefaultRewardModel().Evaluate("Please help.")

	cache.On("Get", mock.Anything, mock.Anything).Return(RewardBreakdown{}, false, nil).Once()
	cache.On("Set", mock.Anything, scorer.Key("Please help."), expected).Return(nil).Once()

	assert.Equal(t, expected, scorer.Score(context.Background(), "Please help."))
	cache.AssertExpectations(t)
}

func TestCachedScorer_CacheFailuresAreIgnored(t *testing.T) {
	cache := new(mockScoreCache)
	scorer := newCachedScorer(cache)
	expected := NewDefaultRewardModel().Evaluate("thanks")

	cache.On("Get", mock.Anything, mock.Anything).Return(RewardBreakdown{}, false, errors.New("connection refused"))
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	assert.Equal(t, expected, scorer.Score(context.Background(), "thanks"))
}

func TestCachedScorer_KeyDependsOnMarkers(t *testing.T) {
	a := newCachedScorer(new(mockScoreCache))
	b := NewCachedScorer(
		NewRewardModel(NewVaderAnalyzer(), NewMarkerSet("cheers"), DefaultHelpfulnessMarkers()),
		new(mockScoreCache),
		metrics.NewMetricsCollector(metrics.CollectorConfig{Namespace: "test"}),
		logging.NewNoopLogger(),
	)

	assert.Equal(t, a.Key("x"), a.Key("x"))
	assert.NotEqual(t, a.Key("x"), a.Key("y"))
	assert.NotEqual(t, a.Key("x"), b.Key("x"))
	assert.Len(t, a.Key("x"), 64)
}

func TestCachedScorer_KeyDependsOnAnalyzer(t *testing.T) {
	a := newCachedScorer(new(mockScoreCache))
	b := NewCachedScorer(
		NewRewardModel(silentAnalyzer{}, DefaultPolitenessMarkers(), DefaultHelpfulnessMarkers()),
		new(mockScoreCache),
		metrics.NewMetricsCollector(metrics.CollectorConfig{Namespace: "test"}),
		logging.NewNoopLogger(),
	)

	assert.NotEqual(t, a.Key("thank you"), b.Key("thank you"))
}
