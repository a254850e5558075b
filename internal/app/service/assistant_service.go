package service

import (
	"context"
	"time"

	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
	"github.com/openeeap/replytune/internal/observability/trace"
	"github.com/openeeap/replytune/internal/platform/inference/generator"
	"github.com/openeeap/replytune/internal/platform/reward"
)

// AssistantService 回复与评分应用服务接口
type AssistantService interface {
	// Reply 生成回复并评分，生成失败时返回兜底回复
	Reply(ctx context.Context, email string) *dto.ReplyResult

	// Score 评分，不会失败
	Score(ctx context.Context, text string) reward.RewardBreakdown
}

// assistantService 回复与评分应用服务实现
type assistantService struct {
	generator generator.ReplyGenerator
	scorer    reward.Scorer
	logger    logging.Logger
	tracer    trace.Tracer
	metrics   *metrics.MetricsCollector
}

// NewAssistantService 创建回复与评分应用服务
func NewAssistantService(
	replyGenerator generator.ReplyGenerator,
	scorer reward.Scorer,
	logger logging.Logger,
	tracer trace.Tracer,
	metricsCollector *metrics.MetricsCollector,
) AssistantService {
	return &assistantService{
		generator: replyGenerator,
		scorer:    scorer,
		logger:    logger,
		tracer:    tracer,
		metrics:   metricsCollector,
	}
}

// Reply 生成回复并评分
func (s *assistantService) Reply(ctx context.Context, email string) *dto.ReplyResult {
	ctx, span := s.tracer.Start(ctx, "AssistantService.Reply")
	defer span.End()

	start := time.Now()
	result := s.generator.Generate(ctx, email)
	latency := time.Since(start)

	score := s.scorer.Score(ctx, result.Text)
	s.metrics.RecordScore(score.Total)

	trace.SetSpanAttributes(ctx,
		trace.BoolAttr("reply.fallback", result.IsFallback()),
		trace.Float64Attr("reply.score", score.Total),
	)
	s.logger.WithContext(ctx).Info("reply generated",
		logging.Bool("fallback", result.IsFallback()),
		logging.String("reason", string(result.Reason)),
		logging.Duration("latency", latency),
		logging.Float64("score", score.Total),
	)

	return &dto.ReplyResult{
		Reply:    result.Text,
		Fallback: result.IsFallback(),
		Reason:   string(result.Reason),
		Latency:  latency,
		Score:    score,
	}
}

// Score 评分
func (s *assistantService) Score(ctx context.Context, text string) reward.RewardBreakdown {
	ctx, span := s.tracer.Start(ctx, "AssistantService.Score")
	defer span.End()

	score := s.scorer.Score(ctx, text)
	s.metrics.RecordScore(score.Total)
	trace.SetSpanAttributes(ctx, trace.Float64Attr("reward.total", score.Total))
	return score
}

//Personal.AI order the ending
