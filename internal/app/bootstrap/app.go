// internal/app/bootstrap/app.go
package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/openeeap/replytune/internal/api/http/handler"
	"github.com/openeeap/replytune/internal/app/service"
	"github.com/openeeap/replytune/internal/infrastructure/message/kafka"
	"github.com/openeeap/replytune/internal/infrastructure/repository/postgres"
	"github.com/openeeap/replytune/internal/infrastructure/repository/redis"
	"github.com/openeeap/replytune/internal/infrastructure/storage"
	"github.com/openeeap/replytune/internal/infrastructure/storage/minio"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
	"github.com/openeeap/replytune/internal/observability/trace"
	"github.com/openeeap/replytune/internal/platform/inference/generator"
	"github.com/openeeap/replytune/internal/platform/inference/openai"
	"github.com/openeeap/replytune/internal/platform/reward"
	scorecache "github.com/openeeap/replytune/internal/platform/reward/cache"
	"github.com/openeeap/replytune/internal/platform/training"
	"github.com/openeeap/replytune/internal/platform/training/policy"
	"github.com/openeeap/replytune/internal/platform/training/rlhf"
	"github.com/openeeap/replytune/pkg/config"
)

// App 进程内组件装配结果，所有依赖显式构造并注入
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Tracer  trace.Tracer
	Metrics *metrics.MetricsCollector

	// 平台核心
	Policy      *policy.Policy
	RewardModel *reward.RewardModel
	Scorer      reward.Scorer
	Generator   generator.ReplyGenerator

	// 基础设施
	Sink       training.SnapshotSink
	Repository training.RunRepository
	Publisher  training.EventPublisher

	// 应用服务
	Assistant service.AssistantService
	Training  service.TrainingService

	HealthChecks map[string]handler.HealthCheck

	zapLogger *logging.ZapLogger
	chat      generator.ChatCompleter
	closers   []func() error
}

// Option 装配选项
type Option func(*App)

// WithLogger 使用外部日志器，替代按配置构造
func WithLogger(logger logging.Logger) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// WithChatCompleter 替换生成后端
func WithChatCompleter(chat generator.ChatCompleter) Option {
	return func(a *App) {
		a.chat = chat
	}
}

// WithRepository 替换运行记录仓储
func WithRepository(repo training.RunRepository) Option {
	return func(a *App) {
		a.Repository = repo
	}
}

// New 按配置装配应用
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	app := &App{
		Config:       cfg,
		HealthChecks: make(map[string]handler.HealthCheck),
	}
	for _, opt := range opts {
		opt(app)
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"observability", app.initObservability},
		{"infrastructure", app.initInfrastructure},
		{"platform", app.initPlatform},
		{"services", app.initServices},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("init %s: %w", step.name, err)
		}
	}

	app.Logger.Debug("application initialized",
		logging.String("storage", cfg.Storage.Provider),
		logging.Bool("database", cfg.Database.Enabled),
		logging.Bool("kafka", cfg.Kafka.Enabled),
		logging.Bool("score_cache", cfg.Reward.Cache.Enabled),
	)
	return app, nil
}

// initObservability 初始化日志、指标、追踪
func (a *App) initObservability(context.Context) error {
	obs := a.Config.Observability

	if a.Logger == nil {
		zapLogger, err := logging.NewZapLogger(logging.LogConfig{
			Level:      obs.Logging.Level,
			Format:     obs.Logging.Format,
			Output:     obs.Logging.Output,
			FilePath:   obs.Logging.FilePath,
			MaxSize:    obs.Logging.MaxSize,
			MaxBackups: obs.Logging.MaxBackups,
			MaxAge:     obs.Logging.MaxAge,
			Compress:   obs.Logging.Compress,
		})
		if err != nil {
			return err
		}
		a.zapLogger = zapLogger
		a.Logger = zapLogger
		a.closers = append(a.closers, func() error {
			// stdout/stderr 的 Sync 在部分平台返回 EINVAL
			_ = zapLogger.Sync()
			return nil
		})
	}

	a.Metrics = metrics.NewMetricsCollector(metrics.CollectorConfig{
		Namespace:            obs.Metrics.Namespace,
		EnableGoMetrics:      obs.Metrics.Enabled,
		EnableProcessMetrics: obs.Metrics.Enabled,
	})

	a.Tracer = trace.NewNoopTracer()
	if obs.Tracing.Enabled {
		tracer, err := trace.NewTracer(trace.TracerConfig{
			ServiceName:  obs.Tracing.ServiceName,
			Environment:  a.Config.Server.Environment,
			Provider:     obs.Tracing.Provider,
			Endpoint:     obs.Tracing.Endpoint,
			SamplingRate: obs.Tracing.SamplingRate,
		})
		if err != nil {
			return err
		}
		a.Tracer = tracer
		a.closers = append(a.closers, func() error {
			return tracer.Shutdown(context.Background())
		})
	}
	return nil
}

// initInfrastructure 初始化快照存储、运行仓储、事件发布
func (a *App) initInfrastructure(ctx context.Context) error {
	if err := a.initSink(ctx); err != nil {
		return err
	}
	if err := a.initRepository(ctx); err != nil {
		return err
	}
	return a.initPublisher()
}

func (a *App) initSink(ctx context.Context) error {
	cfg := a.Config.Storage
	if cfg.Provider != "minio" {
		a.Sink = storage.NewLocalSink(cfg.Local.BasePath, a.Logger)
		return nil
	}

	sink, err := minio.NewSnapshotSink(ctx, &minio.MinIOConfig{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKeyID,
		SecretAccessKey: cfg.MinIO.SecretAccessKey,
		UseSSL:          cfg.MinIO.UseSSL,
		Region:          cfg.MinIO.Region,
		Bucket:          cfg.MinIO.Bucket,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.Sink = sink
	a.HealthChecks["minio"] = sink.Ping
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	if a.Repository != nil {
		return nil
	}

	cfg := a.Config.Database
	if !cfg.Enabled {
		a.Repository = training.NewMemoryRunRepository()
		return nil
	}

	db, err := postgres.Open(ctx, postgres.DBConfig{
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		LogMode:         cfg.LogMode,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { return postgres.Close(db) })

	repo, err := postgres.NewRunRepository(db, cfg.AutoMigrate)
	if err != nil {
		return err
	}
	a.Repository = repo
	a.HealthChecks["postgres"] = func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return nil
}

func (a *App) initPublisher() error {
	cfg := a.Config.Kafka
	if !cfg.Enabled {
		a.Publisher = training.NoopPublisher{}
		return nil
	}

	producer, err := kafka.NewProducer(&kafka.KafkaConfig{
		Brokers:      cfg.Brokers,
		ClientID:     cfg.ClientID,
		Topic:        cfg.Topic,
		RequiredAcks: int16(cfg.RequiredAcks),
		Compression:  cfg.Compression,
		Timeout:      cfg.Timeout,
	})
	if err != nil {
		return err
	}
	publisher := kafka.NewEventPublisher(producer, cfg.Topic, a.Logger)
	a.Publisher = publisher
	a.closers = append(a.closers, publisher.Close)
	return nil
}

// initPlatform 初始化策略、奖励模型、生成器
func (a *App) initPlatform(ctx context.Context) error {
	tc := a.Config.Training

	p, err := policy.New(policy.Config{
		FeatureDim:   tc.FeatureDim,
		LearningRate: tc.LearningRate,
		Seed:         tc.Seed,
	})
	if err != nil {
		return err
	}
	a.Policy = p

	a.RewardModel = reward.NewDefaultRewardModel()
	a.Scorer = a.RewardModel
	if err := a.initScoreCache(ctx); err != nil {
		return err
	}

	gc := a.Config.Generator
	if a.chat == nil {
		a.chat = openai.NewClient(a.Logger, a.Tracer, openai.Config{
			BaseURL:           a.Config.OpenAI.BaseURL,
			APIKey:            a.Config.OpenAI.APIKey,
			OrganizationID:    a.Config.OpenAI.OrganizationID,
			Timeout:           gc.Timeout,
			MaxRetries:        gc.MaxRetries,
			RequestsPerSecond: gc.RequestsPerSecond,
			Burst:             gc.Burst,
		})
	}

	var genOpts []generator.Option
	if gc.StyleHints > 0 {
		genOpts = append(genOpts, generator.WithStyleAdvisor(p))
	}
	a.Generator = generator.New(a.chat, generator.Config{
		Model:            gc.Model,
		Temperature:      gc.Temperature,
		MaxTokens:        gc.MaxTokens,
		TopP:             gc.TopP,
		FrequencyPenalty: gc.FrequencyPenalty,
		PresencePenalty:  gc.PresencePenalty,
		Timeout:          gc.Timeout,
		StyleHints:       gc.StyleHints,
	}, a.Logger, a.Metrics, a.Tracer, genOpts...)
	return nil
}

// initScoreCache 按配置组合本地 LRU 与 Redis 缓存层
func (a *App) initScoreCache(ctx context.Context) error {
	cc := a.Config.Reward.Cache

	var local *scorecache.LocalCache
	if cc.LocalSize > 0 {
		local = scorecache.NewLocalCache(a.Logger, cc.LocalSize, cc.TTL)
		a.closers = append(a.closers, local.Close)
	}

	var shared reward.ScoreCache
	if cc.Enabled {
		rc := a.Config.Redis
		client, err := redis.NewClient(ctx, &redis.ClientConfig{
			Addr:         rc.Addr(),
			Password:     rc.Password,
			DB:           rc.DB,
			PoolSize:     rc.PoolSize,
			DialTimeout:  rc.DialTimeout,
			ReadTimeout:  rc.ReadTimeout,
			WriteTimeout: rc.WriteTimeout,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		a.HealthChecks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		shared = redis.NewScoreCache(client, cc.KeyPrefix, cc.TTL)
	}

	var c reward.ScoreCache
	switch {
	case local != nil && shared != nil:
		c = scorecache.NewTieredCache(local, shared, a.Logger)
	case local != nil:
		c = local
	case shared != nil:
		c = shared
	default:
		return nil
	}
	a.Scorer = reward.NewCachedScorer(a.RewardModel, c, a.Metrics, a.Logger)
	return nil
}

// initServices 初始化应用服务
func (a *App) initServices(context.Context) error {
	a.Assistant = service.NewAssistantService(a.Generator, a.Scorer, a.Logger, a.Tracer, a.Metrics)

	svc, err := service.NewTrainingService(a.TrainerConfig(), service.TrainingDependencies{
		Policy:     a.Policy,
		Generator:  a.Generator,
		Scorer:     a.Scorer,
		Repository: a.Repository,
		Publisher:  a.Publisher,
		Sink:       a.Sink,
	}, a.Logger, a.Tracer, a.Metrics)
	if err != nil {
		return err
	}
	a.Training = svc
	return nil
}

// TrainerConfig 训练超参数
func (a *App) TrainerConfig() rlhf.TrainerConfig {
	tc := a.Config.Training
	return rlhf.TrainerConfig{
		LearningRate:        tc.LearningRate,
		Epsilon:             tc.Epsilon,
		Gamma:               tc.Gamma,
		Lambda:              tc.Lambda,
		IterationsPerSample: tc.IterationsPerSample,
		Epochs:              tc.Epochs,
		PerTokenReward:      tc.PerTokenReward,
	}
}

// SetLogLevel 运行时调整日志级别；外部注入的日志器不受影响
func (a *App) SetLogLevel(level string) bool {
	if a.zapLogger == nil {
		return false
	}
	a.zapLogger.SetLevel(level)
	return true
}

// Close 按构造逆序释放资源
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

//Personal.AI order the ending
