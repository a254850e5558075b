// internal/api/http/middleware/observability.go
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
	"github.com/openeeap/replytune/internal/observability/trace"
)

const (
	// HeaderRequestID 请求ID头
	HeaderRequestID = "X-Request-ID"
	// HeaderTraceID 追踪ID头
	HeaderTraceID = "X-Trace-ID"

	requestIDKey = "request_id"
)

// RequestID 为每个请求分配ID，并写入上下文与响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDKey, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// GetRequestID 获取当前请求ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Tracing 为每个请求创建服务端 span
func Tracing(tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := tracer.ExtractContext(c.Request.Context(), trace.HTTPHeadersCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", c.Request.Method, c.FullPath()), trace.SpanKindServer())
		defer span.End()

		if traceID := tracer.GetTraceID(ctx); traceID != "" {
			ctx = logging.WithTraceID(ctx, traceID)
			c.Header(HeaderTraceID, traceID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		trace.SetSpanAttributes(ctx,
			trace.StringAttr("http.method", c.Request.Method),
			trace.StringAttr("http.route", c.FullPath()),
			trace.IntAttr("http.status_code", c.Writer.Status()),
		)
		if len(c.Errors) > 0 {
			trace.RecordSpanError(ctx, c.Errors.Last())
		}
	}
}

// Logging 请求日志
func Logging(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("latency", time.Since(start)),
			logging.String("client_ip", c.ClientIP()),
		}

		l := logger.WithContext(c.Request.Context())
		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Error("request completed", fields...)
		case status >= 400:
			l.Warn("request completed", fields...)
		default:
			l.Info("request completed", fields...)
		}
	}
}

// Metrics 请求指标
func Metrics(collector *metrics.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
