package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
	"github.com/openeeap/replytune/internal/observability/trace"
	"github.com/openeeap/replytune/internal/platform/inference/generator"
	"github.com/openeeap/replytune/internal/platform/reward"
	"github.com/openeeap/replytune/internal/platform/training"
	"github.com/openeeap/replytune/internal/platform/training/policy"
	"github.com/openeeap/replytune/internal/platform/training/rlhf"
	"github.com/openeeap/replytune/pkg/errors"
)

// TrainingService 训练应用服务接口
type TrainingService interface {
	// Train 同步执行一次训练运行并保存策略快照
	Train(ctx context.Context, req *dto.StartTrainingRequest) (*training.TrainingRun, error)

	// GetRun 获取运行详情
	GetRun(ctx context.Context, id string) (*dto.RunResponse, error)

	// ListRuns 列出最近的运行
	ListRuns(ctx context.Context, req *dto.ListRunsRequest) (*dto.RunListResponse, error)

	// LoadPolicy 从快照恢复策略参数
	LoadPolicy(ctx context.Context, name string) error
}

// TrainingDependencies 训练服务依赖
type TrainingDependencies struct {
	Policy     *policy.Policy
	Generator  generator.ReplyGenerator
	Scorer     reward.Scorer
	Repository training.RunRepository
	Publisher  training.EventPublisher
	Sink       training.SnapshotSink
}

// trainingService 训练应用服务实现
type trainingService struct {
	config   rlhf.TrainerConfig
	deps     TrainingDependencies
	logger   logging.Logger
	tracer   trace.Tracer
	metrics  *metrics.MetricsCollector
	running  sync.Mutex
	clock    func() time.Time
	newRunID func() string
}

// NewTrainingService 创建训练应用服务
func NewTrainingService(
	config rlhf.TrainerConfig,
	deps TrainingDependencies,
	logger logging.Logger,
	tracer trace.Tracer,
	metricsCollector *metrics.MetricsCollector,
) (TrainingService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps.Policy == nil || deps.Generator == nil || deps.Scorer == nil || deps.Sink == nil {
		return nil, errors.NewFromCodef(errors.ErrTrainInvalidConfig, "policy, generator, scorer and snapshot sink are required")
	}
	if deps.Repository == nil {
		deps.Repository = training.NewMemoryRunRepository()
	}
	if deps.Publisher == nil {
		deps.Publisher = training.NoopPublisher{}
	}

	return &trainingService{
		config:   config,
		deps:     deps,
		logger:   logger,
		tracer:   tracer,
		metrics:  metricsCollector,
		clock:    func() time.Time { return time.Now().UTC() },
		newRunID: uuid.NewString,
	}, nil
}

// Train 执行训练运行：记录、循环、快照、事件
func (s *trainingService) Train(ctx context.Context, req *dto.StartTrainingRequest) (*training.TrainingRun, error) {
	if len(req.Dataset) == 0 {
		return nil, errors.NewFromCode(errors.ErrTrainEmptyDataset)
	}
	if req.Epochs < 1 || req.IterationsPerSample < 1 {
		return nil, errors.NewFromCodef(errors.ErrTrainInvalidConfig, "epochs and iterations_per_sample must be >= 1")
	}
	if req.SnapshotName == "" {
		return nil, errors.NewFromCodef(errors.ErrTrainInvalidConfig, "snapshot_name is required")
	}
	if !s.running.TryLock() {
		return nil, errors.NewFromCode(errors.ErrTrainRunInProgress)
	}
	defer s.running.Unlock()

	run := &training.TrainingRun{
		ID:                  s.newRunID(),
		Status:              training.RunStatusRunning,
		Epochs:              req.Epochs,
		IterationsPerSample: req.IterationsPerSample,
		Samples:             len(req.Dataset),
		PerTokenReward:      req.PerTokenReward || s.config.PerTokenReward,
		SnapshotName:        req.SnapshotName,
		StartedAt:           s.clock(),
	}

	ctx = logging.WithRunID(ctx, run.ID)
	ctx, span := s.tracer.Start(ctx, "TrainingService.Train")
	defer span.End()
	trace.SetSpanAttributes(ctx, trace.StringAttr("training.run_id", run.ID))

	logger := s.logger.WithContext(ctx)
	logger.Info("training run started",
		logging.Int("epochs", run.Epochs),
		logging.Int("samples", run.Samples),
		logging.String("snapshot", run.SnapshotName),
	)

	if err := s.deps.Repository.CreateRun(ctx, run); err != nil {
		logger.Warn("failed to record training run", logging.Error(err))
	}
	s.publish(ctx, run, training.EventRunStarted, 0, 0)

	cfg := s.config
	cfg.PerTokenReward = run.PerTokenReward
	loop, err := rlhf.NewTrainingLoop(cfg, s.deps.Policy, s.deps.Generator, s.deps.Scorer,
		&runReporter{service: s, run: run}, s.logger, s.metrics, s.tracer)
	if err != nil {
		return s.finish(ctx, run, training.RunStatusFailed, err)
	}

	summary, err := loop.Run(ctx, req.Dataset, req.Epochs, req.IterationsPerSample)
	if summary != nil {
		run.EpochAverages = summary.EpochAverages
		run.Episodes = summary.Episodes
		run.Fallbacks = summary.Fallbacks
	}
	if err != nil {
		status := training.RunStatusFailed
		if ctx.Err() != nil {
			status = training.RunStatusCancelled
		}
		return s.finish(ctx, run, status, err)
	}

	location, err := s.saveSnapshot(ctx, run.SnapshotName)
	if err != nil {
		return s.finish(ctx, run, training.RunStatusFailed, err)
	}
	run.SnapshotLocation = location

	return s.finish(ctx, run, training.RunStatusCompleted, nil)
}

func (s *trainingService) saveSnapshot(ctx context.Context, name string) (string, error) {
	data, err := s.deps.Policy.Snapshot(name).Marshal()
	if err != nil {
		return "", err
	}
	location, err := s.deps.Sink.Save(ctx, name, data)
	if err != nil {
		return "", errors.WrapFromCode(err, errors.ErrTrainSnapshotFailed, name)
	}
	return location, nil
}

// finish 记录最终状态；取消后仍使用不可取消的上下文落库
func (s *trainingService) finish(ctx context.Context, run *training.TrainingRun, status training.RunStatus, runErr error) (*training.TrainingRun, error) {
	ctx = context.WithoutCancel(ctx)
	completed := s.clock()
	run.Status = status
	run.CompletedAt = &completed
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
		trace.RecordSpanError(ctx, runErr)
	}

	logger := s.logger.WithContext(ctx)
	if err := s.deps.Repository.UpdateRun(ctx, run); err != nil {
		logger.Warn("failed to update training run", logging.Error(err))
	}
	s.publish(ctx, run, training.EventRunFinished, 0, run.FinalAverage())

	if runErr != nil {
		logger.Error("training run ended", logging.String("status", string(status)), logging.Error(runErr))
		return run, runErr
	}
	logger.Info("training run completed",
		logging.Float64("final_avg_reward", run.FinalAverage()),
		logging.String("snapshot_location", run.SnapshotLocation),
	)
	return run, nil
}

func (s *trainingService) publish(ctx context.Context, run *training.TrainingRun, eventType training.EventType, epoch int, avg float64) {
	event := &training.ProgressEvent{
		Type:      eventType,
		RunID:     run.ID,
		Epoch:     epoch,
		Epochs:    run.Epochs,
		AvgReward: avg,
		Fallbacks: run.Fallbacks,
		Status:    run.Status,
		Timestamp: s.clock(),
	}
	if err := s.deps.Publisher.Publish(ctx, event); err != nil {
		s.logger.WithContext(ctx).Warn("failed to publish progress event",
			logging.String("type", string(eventType)),
			logging.Error(err),
		)
	}
}

// GetRun 获取运行详情
func (s *trainingService) GetRun(ctx context.Context, id string) (*dto.RunResponse, error) {
	run, err := s.deps.Repository.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	epochs, err := s.deps.Repository.ListEpochs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.RunResponse{Run: run, Epochs: epochs}, nil
}

// ListRuns 列出最近的运行
func (s *trainingService) ListRuns(ctx context.Context, req *dto.ListRunsRequest) (*dto.RunListResponse, error) {
	runs, err := s.deps.Repository.ListRuns(ctx, req.GetLimit())
	if err != nil {
		return nil, err
	}
	return &dto.RunListResponse{Runs: runs, Total: len(runs)}, nil
}

// LoadPolicy 从快照恢复策略参数
func (s *trainingService) LoadPolicy(ctx context.Context, name string) error {
	data, err := s.deps.Sink.Load(ctx, name)
	if err != nil {
		return err
	}
	snapshot, err := policy.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	if err := s.deps.Policy.Load(snapshot); err != nil {
		return err
	}

	s.logger.WithContext(ctx).Info("policy snapshot loaded",
		logging.String("name", name),
		logging.Int("actions", s.deps.Policy.Size()),
	)
	return nil
}

// runReporter 将轮次进度分发到运行仓储与事件发布
type runReporter struct {
	service *trainingService
	run     *training.TrainingRun
}

func (r *runReporter) SampleCompleted(context.Context, rlhf.SampleProgress) {}

func (r *runReporter) EpochCompleted(ctx context.Context, summary rlhf.EpochSummary) {
	r.run.EpochAverages = append(r.run.EpochAverages, summary.AvgReward)
	r.run.Fallbacks += summary.Fallbacks

	record := &training.EpochRecord{
		RunID:     r.run.ID,
		Epoch:     summary.Epoch,
		AvgReward: summary.AvgReward,
		Samples:   summary.Samples,
		Fallbacks: summary.Fallbacks,
		MeanLoss:  summary.MeanLoss,
		CreatedAt: r.service.clock(),
	}
	if err := r.service.deps.Repository.AddEpoch(ctx, record); err != nil {
		r.service.logger.WithContext(ctx).Warn("failed to record epoch", logging.Int("epoch", summary.Epoch), logging.Error(err))
	}
	r.service.publish(ctx, r.run, training.EventEpochCompleted, summary.Epoch, summary.AvgReward)
}

//Personal.AI order the ending
