// internal/platform/training/rlhf/rlhf_trainer.go
package rlhf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
	"github.com/openeeap/replytune/internal/observability/trace"
	"github.com/openeeap/replytune/internal/platform/inference/generator"
	"github.com/openeeap/replytune/internal/platform/reward"
	"github.com/openeeap/replytune/pkg/errors"
)

const (
	// DefaultIterationsPerSample 每个样本的更新次数
	DefaultIterationsPerSample = 5
	// DefaultEpochs 默认训练轮数
	DefaultEpochs = 3
	// DefaultLearningRate 默认学习率
	DefaultLearningRate = 1e-5
)

// TrainerConfig 训练超参数
type TrainerConfig struct {
	LearningRate        float64 `json:"learning_rate"`
	Epsilon             float64 `json:"epsilon"`
	Gamma               float64 `json:"gamma"`
	Lambda              float64 `json:"lambda"`
	IterationsPerSample int     `json:"iterations_per_sample"`
	Epochs              int     `json:"epochs"`
	// PerTokenReward 按词分配奖励，默认将总分广播到整个分布
	PerTokenReward bool `json:"per_token_reward"`
}

// DefaultTrainerConfig 默认超参数
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		LearningRate:        DefaultLearningRate,
		Epsilon:             DefaultEpsilon,
		Gamma:               DefaultGamma,
		Lambda:              DefaultLambda,
		IterationsPerSample: DefaultIterationsPerSample,
		Epochs:              DefaultEpochs,
	}
}

// Validate 校验超参数，构造训练循环前调用
func (c TrainerConfig) Validate() error {
	switch {
	case c.LearningRate <= 0:
		return errors.NewFromCodef(errors.ErrTrainInvalidConfig, "learning_rate must be > 0")
	case c.Epsilon < 0 || c.Epsilon >= 1:
		return errors.NewFromCodef(errors.ErrTrainInvalidConfig, "epsilon must be in [0, 1)")
	case c.Gamma <= 0 || c.Gamma > 1:
		return errors.NewFromCodef(errors.ErrTrainInvalidConfig, "gamma must be in (0, 1]")
	case c.Lambda < 0 || c.Lambda > 1:
		return errors.NewFromCodef(errors.ErrTrainInvalidConfig, "lambda must be in [0, 1]")
	case c.IterationsPerSample < 1:
		return errors.NewFromCodef(errors.ErrTrainInvalidConfig, "iterations_per_sample must be >= 1")
	case c.Epochs < 1:
		return errors.NewFromCodef(errors.ErrTrainInvalidConfig, "epochs must be >= 1")
	}
	return nil
}

// Episode 单个样本的一次训练记录
type Episode struct {
	Epoch          int                      `json:"epoch"`
	Index          int                      `json:"index"`
	Prompt         string                   `json:"prompt"`
	Reply          string                   `json:"reply"`
	Fallback       bool                     `json:"fallback"`
	FallbackReason generator.FallbackReason `json:"fallback_reason,omitempty"`
	Reward         reward.RewardBreakdown   `json:"reward"`
	// ValueEstimate 本轮此前的平均奖励，作为基线
	ValueEstimate float64 `json:"value_estimate"`
	Action        int     `json:"action"`
	OldActionProb float64 `json:"old_action_prob"`
	NewActionProb float64 `json:"new_action_prob"`
	Loss          float64 `json:"loss"`
	// FinalReward 更新后重新生成回复的得分，仅用于进度统计
	FinalReward         reward.RewardBreakdown   `json:"final_reward"`
	FinalFallback       bool                     `json:"final_fallback"`
	FinalFallbackReason generator.FallbackReason `json:"final_fallback_reason,omitempty"`
}

// AnyFallback 更新前或更新后的任一次生成走了兜底
func (e *Episode) AnyFallback() bool {
	return e.Fallback || e.FinalFallback
}

// TrainingRunStats 本轮奖励累计
type TrainingRunStats struct {
	total float64
	count int
}

// Reset 清零
func (s *TrainingRunStats) Reset() {
	s.total, s.count = 0, 0
}

// Add 累加一个奖励
func (s *TrainingRunStats) Add(v float64) {
	s.total += v
	s.count++
}

// Mean 平均奖励，无样本时为 0
func (s *TrainingRunStats) Mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.total / float64(s.count)
}

// Count 样本数
func (s *TrainingRunStats) Count() int {
	return s.count
}

// SampleProgress 样本进度
type SampleProgress struct {
	Epoch     int
	Epochs    int
	Sample    int
	Samples   int
	AvgReward float64
	Episode   *Episode
}

// EpochSummary 轮次汇总
type EpochSummary struct {
	Epoch     int     `json:"epoch"`
	Epochs    int     `json:"epochs"`
	AvgReward float64 `json:"avg_reward"`
	Samples   int     `json:"samples"`
	Fallbacks int     `json:"fallbacks"`
	MeanLoss  float64 `json:"mean_loss"`
}

// ProgressReporter 训练进度回调
type ProgressReporter interface {
	SampleCompleted(ctx context.Context, progress SampleProgress)
	EpochCompleted(ctx context.Context, summary EpochSummary)
}

// NoopReporter 空实现
type NoopReporter struct{}

func (NoopReporter) SampleCompleted(context.Context, SampleProgress) {}
func (NoopReporter) EpochCompleted(context.Context, EpochSummary)    {}

// RunSummary 训练结果汇总
type RunSummary struct {
	EpochAverages []float64      `json:"epoch_averages"`
	Epochs        []EpochSummary `json:"epochs"`
	Episodes      int            `json:"episodes"`
	Fallbacks     int            `json:"fallbacks"`
	Duration      time.Duration  `json:"duration"`
}

// TrainingLoop 顺序训练循环：生成、评分、多次 PPO 更新、重新评分
type TrainingLoop struct {
	config    TrainerConfig
	policy    Policy
	generator generator.ReplyGenerator
	scorer    reward.Scorer
	step      *PolicyUpdateStep
	estimator *AdvantageEstimator
	reporter  ProgressReporter

	logger  logging.Logger
	metrics *metrics.MetricsCollector
	tracer  trace.Tracer
}

// NewTrainingLoop 创建训练循环，超参数非法时立即失败
func NewTrainingLoop(
	config TrainerConfig,
	policy Policy,
	replyGenerator generator.ReplyGenerator,
	scorer reward.Scorer,
	reporter ProgressReporter,
	logger logging.Logger,
	metricsCollector *metrics.MetricsCollector,
	tracer trace.Tracer,
) (*TrainingLoop, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = NoopReporter{}
	}

	return &TrainingLoop{
		config:    config,
		policy:    policy,
		generator: replyGenerator,
		scorer:    scorer,
		step:      NewPolicyUpdateStep(policy, config.Epsilon),
		estimator: NewAdvantageEstimator(config.Gamma, config.Lambda),
		reporter:  reporter,
		logger:    logger,
		metrics:   metricsCollector,
		tracer:    tracer,
	}, nil
}

// Run 按顺序训练 epochs 轮，结束后策略切换为评估模式
func (l *TrainingLoop) Run(ctx context.Context, dataset []string, epochs, iterationsPerSample int) (*RunSummary, error) {
	ctx, span := l.tracer.Start(ctx, "TrainingLoop.Run")
	defer span.End()

	if epochs < 1 || iterationsPerSample < 1 {
		return nil, errors.NewFromCodef(errors.ErrTrainInvalidConfig, "epochs and iterations_per_sample must be >= 1")
	}

	startTime := time.Now()
	summary := &RunSummary{}

	trace.SetSpanAttributes(ctx,
		trace.IntAttr("training.epochs", epochs),
		trace.IntAttr("training.samples", len(dataset)),
		trace.BoolAttr("training.per_token_reward", l.config.PerTokenReward),
	)
	l.logger.WithContext(ctx).Info("training started",
		logging.Int("epochs", epochs),
		logging.Int("samples", len(dataset)),
		logging.Int("iterations_per_sample", iterationsPerSample),
		logging.Bool("per_token_reward", l.config.PerTokenReward),
	)

	l.metrics.ResetTraining()
	l.policy.Train()
	stats := &TrainingRunStats{}
	totalSteps := epochs * len(dataset)

	for epoch := 1; epoch <= epochs; epoch++ {
		stats.Reset()
		fallbacks := 0
		losses := make([]float64, 0, len(dataset))

		for i, prompt := range dataset {
			if err := ctx.Err(); err != nil {
				trace.RecordSpanError(ctx, err)
				l.logger.WithContext(ctx).Warn("training aborted",
					logging.Int("epoch", epoch),
					logging.Int("sample", i+1),
					logging.Error(err),
				)
				summary.Duration = time.Since(startTime)
				return summary, err
			}

			episode, err := l.trainSample(ctx, epoch, i, prompt, iterationsPerSample, stats.Mean())
			if err != nil {
				trace.RecordSpanError(ctx, err)
				summary.Duration = time.Since(startTime)
				return summary, err
			}

			stats.Add(episode.FinalReward.Total)
			losses = append(losses, episode.Loss)
			summary.Episodes++
			if episode.AnyFallback() {
				fallbacks++
				summary.Fallbacks++
			}

			l.logger.WithContext(ctx).Info(
				fmt.Sprintf("epoch %d/%d sample %d/%d avg_reward=%.4f", epoch, epochs, i+1, len(dataset), stats.Mean()),
				logging.Float64("reward", episode.Reward.Total),
				logging.Float64("loss", episode.Loss),
				logging.Bool("fallback", episode.AnyFallback()),
			)
			l.metrics.RecordProgress(float64(summary.Episodes)/float64(totalSteps))
			l.reporter.SampleCompleted(ctx, SampleProgress{
				Epoch:     epoch,
				Epochs:    epochs,
				Sample:    i + 1,
				Samples:   len(dataset),
				AvgReward: stats.Mean(),
				Episode:   episode,
			})
		}

		epochSummary := EpochSummary{
			Epoch:     epoch,
			Epochs:    epochs,
			AvgReward: stats.Mean(),
			Samples:   stats.Count(),
			Fallbacks: fallbacks,
		}
		if len(losses) > 0 {
			epochSummary.MeanLoss = floats.Sum(losses) / float64(len(losses))
		}
		summary.EpochAverages = append(summary.EpochAverages, epochSummary.AvgReward)
		summary.Epochs = append(summary.Epochs, epochSummary)

		l.metrics.RecordEpoch(epoch, epochSummary.AvgReward)
		l.logger.WithContext(ctx).Info("epoch completed",
			logging.Int("epoch", epoch),
			logging.Float64("avg_reward", epochSummary.AvgReward),
			logging.Int("fallbacks", fallbacks),
		)
		l.reporter.EpochCompleted(ctx, epochSummary)
	}

	l.policy.Eval()
	summary.Duration = time.Since(startTime)

	l.logger.WithContext(ctx).Info("training completed",
		logging.Int("episodes", summary.Episodes),
		logging.Int("fallbacks", summary.Fallbacks),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// trainSample 生成、评分、N 次更新、重新生成评分
func (l *TrainingLoop) trainSample(ctx context.Context, epoch, index int, prompt string, iterations int, baseline float64) (*Episode, error) {
	ctx, span := l.tracer.Start(ctx, "TrainingLoop.sample")
	defer span.End()

	result := l.generator.Generate(ctx, prompt)
	score := l.scorer.Score(ctx, result.Text)
	l.metrics.RecordScore(score.Total)

	oldProbs := l.policy.Probs(prompt)
	action := floats.MaxIdx(oldProbs)

	advantages, err := l.advantages(result.Text, score.Total, baseline)
	if err != nil {
		return nil, err
	}

	var loss float64
	for i := 0; i < iterations; i++ {
		loss, err = l.step.UpdateVector(prompt, oldProbs, advantages)
		if err != nil {
			return nil, err
		}
		l.metrics.RecordPolicyUpdate(loss)
	}

	newProbs := l.policy.Probs(prompt)

	final := l.generator.Generate(ctx, prompt)
	finalScore := l.scorer.Score(ctx, final.Text)
	l.metrics.RecordScore(finalScore.Total)

	trace.SetSpanAttributes(ctx,
		trace.Float64Attr("reward.total", score.Total),
		trace.Float64Attr("policy.loss", loss),
		trace.BoolAttr("generator.fallback", result.IsFallback()),
		trace.BoolAttr("generator.final_fallback", final.IsFallback()),
	)

	return &Episode{
		Epoch:               epoch,
		Index:               index,
		Prompt:              prompt,
		Reply:               result.Text,
		Fallback:            result.IsFallback(),
		FallbackReason:      result.Reason,
		Reward:              score,
		ValueEstimate:       baseline,
		Action:              action,
		OldActionProb:       oldProbs[action],
		NewActionProb:       newProbs[action],
		Loss:                loss,
		FinalReward:         finalScore,
		FinalFallback:       final.IsFallback(),
		FinalFallbackReason: final.Reason,
	}, nil
}

// advantages 默认广播总分；按词模式下用 GAE 计算每个动作的平均优势
func (l *TrainingLoop) advantages(reply string, total, baseline float64) ([]float64, error) {
	size := l.policy.Size()
	out := make([]float64, size)

	if !l.config.PerTokenReward {
		for i := range out {
			out[i] = total
		}
		return out, nil
	}

	tokens := reward.Tokenize(strings.ToLower(reply))
	if len(tokens) == 0 {
		return out, nil
	}

	rewards := make([]float64, len(tokens))
	rewards[len(rewards)-1] = total
	values := make([]float64, len(tokens))
	for i := range values {
		values[i] = baseline
	}

	perToken, err := l.estimator.Estimate(rewards, values)
	if err != nil {
		return nil, err
	}

	sums := make([]float64, size)
	counts := make([]int, size)
	for i, token := range tokens {
		if action, ok := l.policy.ActionForToken(token); ok {
			sums[action] += perToken[i]
			counts[action]++
		}
	}
	for a := range out {
		if counts[a] > 0 {
			out[a] = sums[a] / float64(counts[a])
		}
	}
	return out, nil
}

//Personal.AI order the ending
