// internal/platform/training/rlhf/ppo.go
package rlhf

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/openeeap/replytune/pkg/errors"
)

const (
	// DefaultEpsilon 默认 PPO 裁剪系数
	DefaultEpsilon = 0.2

	// ratioEpsilon 概率比分母保护项
	ratioEpsilon = 1e-10
)

// Policy 被优化的策略
type Policy interface {
	// Probs 当前参数下的动作概率
	Probs(prompt string) []float64

	// ApplyProbabilityGradient 以损失对概率的梯度执行一次优化步
	ApplyProbabilityGradient(prompt string, probs, grad []float64) error

	// ActionForToken 回复词到动作的映射
	ActionForToken(token string) (int, bool)

	// Size 动作数量
	Size() int

	// Train 切换训练模式
	Train()

	// Eval 切换评估模式
	Eval()
}

// SurrogateResult 裁剪代理目标的损失与梯度
type SurrogateResult struct {
	Loss float64
	// Grad 损失对新概率的梯度
	Grad []float64
	// Clipped 梯度被裁剪截断的动作数
	Clipped int
}

// ClippedSurrogate 计算 -mean(min(r*A, clip(r, 1-eps, 1+eps)*A)) 及其对新概率的梯度
func ClippedSurrogate(oldProbs, newProbs, advantages []float64, epsilon float64) (*SurrogateResult, error) {
	n := len(newProbs)
	if n == 0 || len(oldProbs) != n {
		return nil, errors.NewFromCodef(errors.ErrTrainDistributionMismatch, len(oldProbs), len(newProbs))
	}
	if len(advantages) != n {
		return nil, errors.NewFromCodef(errors.ErrTrainDistributionMismatch, len(advantages), n)
	}

	low, high := 1-epsilon, 1+epsilon
	objective := make([]float64, n)
	grad := make([]float64, n)
	clipped := 0

	for i := range newProbs {
		denom := oldProbs[i] + ratioEpsilon
		ratio := newProbs[i] / denom
		a := advantages[i]

		surrogate1 := ratio * a
		surrogate2 := math.Min(math.Max(ratio, low), high) * a
		objective[i] = math.Min(surrogate1, surrogate2)

		// the min passes gradient through surrogate1 inside the band or when it is strictly smaller
		if (ratio >= low && ratio <= high) || surrogate1 < surrogate2 {
			grad[i] = -a / denom / float64(n)
		} else {
			clipped++
		}
	}

	return &SurrogateResult{
		Loss:    -floats.Sum(objective) / float64(n),
		Grad:    grad,
		Clipped: clipped,
	}, nil
}

// PolicyUpdateStep PPO 单步更新
type PolicyUpdateStep struct {
	policy  Policy
	epsilon float64
}

// NewPolicyUpdateStep 创建更新步
func NewPolicyUpdateStep(policy Policy, epsilon float64) *PolicyUpdateStep {
	return &PolicyUpdateStep{policy: policy, epsilon: epsilon}
}

// Update 将标量优势广播到整个分布后更新
func (s *PolicyUpdateStep) Update(prompt string, oldProbs []float64, advantage float64) (float64, error) {
	advantages := make([]float64, len(oldProbs))
	for i := range advantages {
		advantages[i] = advantage
	}
	return s.UpdateVector(prompt, oldProbs, advantages)
}

// UpdateVector 按动作优势向量更新，返回本步损失
func (s *PolicyUpdateStep) UpdateVector(prompt string, oldProbs, advantages []float64) (float64, error) {
	newProbs := s.policy.Probs(prompt)

	result, err := ClippedSurrogate(oldProbs, newProbs, advantages, s.epsilon)
	if err != nil {
		return 0, err
	}
	if err := s.policy.ApplyProbabilityGradient(prompt, newProbs, result.Grad); err != nil {
		return 0, err
	}
	return result.Loss, nil
}

//Personal.AI order the ending
