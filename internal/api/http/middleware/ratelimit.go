// internal/api/http/middleware/ratelimit.go
package middleware

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/pkg/errors"
)

// idleLimiterTTL limiters unused for this long are dropped
const idleLimiterTTL = 10 * time.Minute

// RateLimitConfig holds configuration for per-client rate limiting
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RateLimitMiddleware applies a token bucket per client IP
type RateLimitMiddleware struct {
	config      RateLimitConfig
	logger      logging.Logger
	mu          sync.Mutex
	limiters    map[string]*rateLimiter
	lastCleanup time.Time
	now         func() time.Time
}

// rateLimiter wraps rate.Limiter with metadata
type rateLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware(config RateLimitConfig, logger logging.Logger) *RateLimitMiddleware {
	if config.Burst <= 0 {
		config.Burst = int(math.Max(1, math.Ceil(config.RequestsPerSecond)))
	}
	return &RateLimitMiddleware{
		config:      config,
		logger:      logger,
		limiters:    make(map[string]*rateLimiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Handler returns the Gin middleware handler
func (m *RateLimitMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.RequestsPerSecond <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP()
		limiter := m.getLimiter(key)

		reservation := limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()

			m.logger.WithContext(c.Request.Context()).Warn("rate limit exceeded",
				logging.String("client", key),
				logging.Duration("retry_after", delay),
			)
			c.Header("Retry-After", fmt.Sprintf("%.0f", math.Ceil(delay.Seconds())))
			abortWithError(c, errors.NewFromCode(errors.ErrAPIRateLimited))
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", m.config.Burst))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(math.Max(0, limiter.Tokens()))))
		c.Next()
	}
}

// getLimiter retrieves or creates the limiter for a client
func (m *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastCleanup) > idleLimiterTTL {
		for k, l := range m.limiters {
			if now.Sub(l.lastAccess) > idleLimiterTTL {
				delete(m.limiters, k)
			}
		}
		m.lastCleanup = now
	}

	l, ok := m.limiters[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.Burst)}
		m.limiters[key] = l
	}
	l.lastAccess = now
	return l.limiter
}

// activeClients number of tracked clients
func (m *RateLimitMiddleware) activeClients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// abortWithError writes an AppError as JSON and stops the chain
func abortWithError(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, gin.H{
		"code":       err.HTTPStatus,
		"error_code": err.Code,
		"message":    err.Message,
		"request_id": GetRequestID(c),
	})
}


//Personal.AI order the ending
