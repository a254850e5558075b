package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/replytune/internal/platform/reward"
	"github.com/openeeap/replytune/pkg/errors"
)

func unreachableClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestScoreCache_BuildKey(t *testing.T) {
	assert.Equal(t, "replytune:score:abc", NewScoreCache(nil, "", 0).buildKey("abc"))
	assert.Equal(t, "custom:abc", NewScoreCache(nil, "custom", 0).buildKey("abc"))
}

func TestScoreCache_ConnectionErrors(t *testing.T) {
	cache := NewScoreCache(unreachableClient(t), "", time.Minute)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "k")
	assert.False(t, found)
	assert.True(t, errors.Is(err, errors.ErrCacheReadFailed.Code))

	err = cache.Set(ctx, "k", reward.RewardBreakdown{Total: 1})
	assert.True(t, errors.Is(err, errors.ErrCacheWriteFailed.Code))
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(context.Background(), &ClientConfig{})
	assert.True(t, errors.Is(err, errors.ErrSysConfigurationError.Code))

	_, err = NewClient(context.Background(), &ClientConfig{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCacheReadFailed.Code))
}
