// internal/platform/training/rlhf/advantage.go
package rlhf

import (
	"github.com/openeeap/replytune/pkg/errors"
)

const (
	// DefaultGamma 默认折扣因子
	DefaultGamma = 0.99
	// DefaultLambda 默认 GAE 平滑系数
	DefaultLambda = 0.95
)

// AdvantageEstimator 广义优势估计 (GAE)
type AdvantageEstimator struct {
	Gamma  float64
	Lambda float64
}

// NewAdvantageEstimator 创建优势估计器
func NewAdvantageEstimator(gamma, lambda float64) *AdvantageEstimator {
	return &AdvantageEstimator{Gamma: gamma, Lambda: lambda}
}

// Estimate 计算与输入等长、逐位对齐的优势序列
func (e *AdvantageEstimator) Estimate(rewards, values []float64) ([]float64, error) {
	return ComputeGAE(rewards, values, e.Gamma, e.Lambda)
}

// ComputeGAE 自后向前递推：delta_t = r_t + gamma*V_{t+1} - V_t，gae = delta_t + gamma*lambda*gae，终止步 V_{t+1}=0
func ComputeGAE(rewards, values []float64, gamma, lambda float64) ([]float64, error) {
	if len(rewards) == 0 || len(rewards) != len(values) {
		return nil, errors.NewFromCodef(errors.ErrTrainAdvantageInput, len(rewards), len(values))
	}

	advantages := make([]float64, len(rewards))
	gae := 0.0
	nextValue := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		delta := rewards[t] + gamma*nextValue - values[t]
		gae = delta + gamma*lambda*gae
		advantages[t] = gae
		nextValue = values[t]
	}
	return advantages, nil
}

//Personal.AI order the ending
