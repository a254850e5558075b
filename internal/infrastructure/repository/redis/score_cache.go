package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openeeap/replytune/internal/platform/reward"
	"github.com/openeeap/replytune/pkg/errors"
)

// DefaultKeyPrefix 默认键前缀
const DefaultKeyPrefix = "replytune:score"

// ClientConfig Redis 连接配置
type ClientConfig struct {
	Addr         string        // Redis 地址
	Password     string        // 密码
	DB           int           // 数据库编号
	PoolSize     int           // 连接池大小
	DialTimeout  time.Duration // 连接超时
	ReadTimeout  time.Duration // 读超时
	WriteTimeout time.Duration // 写超时
}

// NewClient 创建 Redis 客户端并检查连接
func NewClient(ctx context.Context, config *ClientConfig) (*redis.Client, error) {
	if config == nil || config.Addr == "" {
		return nil, errors.NewFromCodef(errors.ErrSysConfigurationError, "redis address is required")
	}

	// 设置默认值
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 3 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.WrapFromCode(err, errors.ErrCacheReadFailed)
	}
	return client, nil
}

// ScoreCache Redis 评分缓存，值为 JSON 编码的评分明细
type ScoreCache struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// NewScoreCache 创建评分缓存，ttl 为 0 时不过期
func NewScoreCache(client redis.Cmdable, keyPrefix string, ttl time.Duration) *ScoreCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &ScoreCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// buildKey 构建完整的缓存键
func (c *ScoreCache) buildKey(key string) string {
	return fmt.Sprintf("%s:%s", c.keyPrefix, key)
}

// Get 读取评分
func (c *ScoreCache) Get(ctx context.Context, key string) (reward.RewardBreakdown, bool, error) {
	data, err := c.client.Get(ctx, c.buildKey(key)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return reward.RewardBreakdown{}, false, nil
		}
		return reward.RewardBreakdown{}, false, errors.WrapFromCode(err, errors.ErrCacheReadFailed)
	}

	var breakdown reward.RewardBreakdown
	if err := json.Unmarshal(data, &breakdown); err != nil {
		return reward.RewardBreakdown{}, false, errors.WrapFromCode(err, errors.ErrCacheReadFailed)
	}
	return breakdown, true, nil
}

// Set 写入评分
func (c *ScoreCache) Set(ctx context.Context, key string, breakdown reward.RewardBreakdown) error {
	data, err := json.Marshal(breakdown)
	if err != nil {
		return errors.WrapFromCode(err, errors.ErrCacheWriteFailed)
	}
	if err := c.client.Set(ctx, c.buildKey(key), data, c.ttl).Err(); err != nil {
		return errors.WrapFromCode(err, errors.ErrCacheWriteFailed)
	}
	return nil
}

var _ reward.ScoreCache = (*ScoreCache)(nil)

//Personal.AI order the ending
