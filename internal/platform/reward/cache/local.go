// internal/platform/reward/cache/local.go
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/platform/reward"
)

const defaultCleanupInterval = 30 * time.Second

// LocalCache 进程内 LRU 评分缓存
type LocalCache struct {
	logger  logging.Logger
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*node
	head    *node
	tail    *node

	hits   int64
	misses int64

	stop chan struct{}
	once sync.Once
}

// node LRU 双向链表节点
type node struct {
	key       string
	breakdown reward.RewardBreakdown
	expiresAt time.Time
	prev      *node
	next      *node
}

// Stats 缓存统计
type Stats struct {
	Size   int
	Hits   int64
	Misses int64
}

// NewLocalCache 创建本地缓存。ttl 为 0 表示条目不过期
func NewLocalCache(logger logging.Logger, maxSize int, ttl time.Duration) *LocalCache {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &LocalCache{
		logger:  logger,
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*node, maxSize),
		head:    &node{},
		tail:    &node{},
		stop:    make(chan struct{}),
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	if ttl > 0 {
		go c.cleanupLoop(defaultCleanupInterval)
	}
	return c
}

// Get 读取缓存
func (c *LocalCache) Get(_ context.Context, key string) (reward.RewardBreakdown, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		return reward.RewardBreakdown{}, false, nil
	}
	if c.expired(n) {
		c.unlink(n)
		delete(c.entries, key)
		c.misses++
		return reward.RewardBreakdown{}, false, nil
	}

	c.moveToFront(n)
	c.hits++
	return n.breakdown, true, nil
}

// Set 写入缓存，超出容量时淘汰最久未使用的条目
func (c *LocalCache) Set(_ context.Context, key string, breakdown reward.RewardBreakdown) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if n, ok := c.entries[key]; ok {
		n.breakdown = breakdown
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return nil
	}

	n := &node{key: key, breakdown: breakdown, expiresAt: expiresAt}
	c.pushFront(n)
	c.entries[key] = n

	if len(c.entries) > c.maxSize {
		lru := c.tail.prev
		c.unlink(lru)
		delete(c.entries, lru.key)
		c.logger.Debug("score cache evicted entry", logging.String("key", lru.key))
	}
	return nil
}

// Stats 返回缓存统计
func (c *LocalCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Close 停止后台清理
func (c *LocalCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *LocalCache) expired(n *node) bool {
	return !n.expiresAt.IsZero() && c.now().After(n.expiresAt)
}

func (c *LocalCache) moveToFront(n *node) {
	if c.head.next == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LocalCache) pushFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LocalCache) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

func (c *LocalCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

// removeExpired 从链表尾部开始清理过期条目
func (c *LocalCache) removeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for n := c.tail.prev; n != c.head; {
		prev := n.prev
		if c.expired(n) {
			c.unlink(n)
			delete(c.entries, n.key)
			removed++
		}
		n = prev
	}

	if removed > 0 {
		c.logger.Debug("score cache cleanup completed",
			logging.Int("expired_count", removed),
			logging.Int("remaining_count", len(c.entries)))
	}
	return removed
}

//Personal.AI order the ending
