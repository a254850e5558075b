package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/openeeap/replytune/internal/api/http/handler"
	"github.com/openeeap/replytune/internal/api/http/middleware"
	"github.com/openeeap/replytune/internal/app/service"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
	"github.com/openeeap/replytune/internal/observability/trace"
	"github.com/openeeap/replytune/pkg/config"
)

// Router HTTP 路由器
type Router struct {
	engine  *gin.Engine
	config  *config.ServerConfig
	logger  logging.Logger
	tracer  trace.Tracer
	metrics *metrics.MetricsCollector

	// Handlers
	assistantHandler *handler.AssistantHandler
	trainingHandler  *handler.TrainingHandler
	healthHandler    *handler.HealthHandler

	// Middleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
}

// Services 路由依赖的应用服务
type Services struct {
	Assistant    service.AssistantService
	Training     service.TrainingService
	Version      string
	HealthChecks map[string]handler.HealthCheck
}

// NewRouter 创建 HTTP 路由器
func NewRouter(
	cfg *config.ServerConfig,
	logger logging.Logger,
	tracer trace.Tracer,
	metricsCollector *metrics.MetricsCollector,
	services Services,
) *Router {
	// 设置 Gin 模式
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := &Router{
		engine:           gin.New(),
		config:           cfg,
		logger:           logger,
		tracer:           tracer,
		metrics:          metricsCollector,
		assistantHandler: handler.NewAssistantHandler(services.Assistant, logger),
		healthHandler:    handler.NewHealthHandler(services.Version, services.HealthChecks),
		rateLimitMiddleware: middleware.NewRateLimitMiddleware(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}, logger),
	}
	if services.Training != nil {
		router.trainingHandler = handler.NewTrainingHandler(services.Training)
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware 设置全局中间件
func (r *Router) setupMiddleware() {
	// Recovery 中间件
	r.engine.Use(gin.Recovery())

	// CORS 中间件
	if r.config.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = r.config.CORSAllowedOrigins
		if len(corsConfig.AllowOrigins) == 0 || (len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*") {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowAllOrigins = true
		}
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, middleware.HeaderRequestID)
		corsConfig.ExposeHeaders = []string{middleware.HeaderRequestID, middleware.HeaderTraceID}
		corsConfig.MaxAge = 12 * time.Hour
		r.engine.Use(cors.New(corsConfig))
	}

	// Gzip 压缩
	if r.config.EnableGzip {
		r.engine.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	// 全局中间件链
	r.engine.Use(
		middleware.RequestID(),
		middleware.Tracing(r.tracer),
		middleware.Logging(r.logger),
		middleware.Metrics(r.metrics),
	)
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "replytune",
			"version": r.healthHandler.Version(),
			"status":  "running",
		})
	})
	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.rateLimitMiddleware.Handler())
	{
		v1.POST("/score", r.assistantHandler.Score)
		v1.POST("/reply", r.assistantHandler.Reply)

		if r.trainingHandler != nil {
			runs := v1.Group("/runs")
			runs.GET("", r.trainingHandler.ListRuns)
			runs.GET("/:id", r.trainingHandler.GetRun)
		}
	}

	// 调试路由（仅非生产模式）
	if r.config.Environment != "production" {
		pprof.Register(r.engine)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "route not found",
		})
	})
}

// Engine 返回 Gin 引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Handler 返回 http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Serve 启动 HTTP 服务，ctx 取消后优雅关闭
func (r *Router) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      r.engine,
		ReadTimeout:  r.config.ReadTimeout,
		WriteTimeout: r.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server listening", logging.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := r.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	r.logger.Info("http server shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

//Personal.AI order the ending
