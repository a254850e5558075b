package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/trace"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"request_id": GetRequestID(c),
			"ctx_id":     logging.GetRequestID(c.Request.Context()),
		})
	})
	return engine
}

func get(engine *gin.Engine, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID())

	w := get(engine, "192.0.2.1:1000")
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(HeaderRequestID)
	assert.Len(t, id, 36)
	assert.Contains(t, w.Body.String(), `"ctx_id":"`+id+`"`)
}

func TestRateLimit_PerClient(t *testing.T) {
	m := NewRateLimitMiddleware(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}, logging.NewNoopLogger())
	engine := newEngine(RequestID(), m.Handler())

	assert.Equal(t, http.StatusOK, get(engine, "192.0.2.1:1000").Code)
	ok := get(engine, "192.0.2.1:1000")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "2", ok.Header().Get("X-RateLimit-Limit"))

	limited := get(engine, "192.0.2.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), `"error_code":"API_002"`)

	// other clients keep their own bucket
	assert.Equal(t, http.StatusOK, get(engine, "192.0.2.2:1000").Code)
	assert.Equal(t, 2, m.activeClients())
}

func TestRateLimit_Disabled(t *testing.T) {
	m := NewRateLimitMiddleware(RateLimitConfig{}, logging.NewNoopLogger())
	engine := newEngine(m.Handler())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(engine, "192.0.2.1:1000").Code)
	}
	assert.Equal(t, 0, m.activeClients())
}

func TestRateLimit_IdleCleanup(t *testing.T) {
	m := NewRateLimitMiddleware(RateLimitConfig{RequestsPerSecond: 10}, logging.NewNoopLogger())
	now := time.Now()
	m.now = func() time.Time { return now }

	m.getLimiter("a")
	m.getLimiter("b")
	assert.Equal(t, 2, m.activeClients())

	now = now.Add(2 * idleLimiterTTL)
	m.getLimiter("c")
	assert.Equal(t, 1, m.activeClients())
}

func TestTracingAndLogging(t *testing.T) {
	engine := newEngine(RequestID(), Tracing(trace.NewNoopTracer()), Logging(logging.NewNoopLogger()))
	w := get(engine, "192.0.2.1:1000")
	assert.Equal(t, http.StatusOK, w.Code)
}

//Personal.AI order the ending
