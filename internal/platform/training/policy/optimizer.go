// internal/platform/training/policy/optimizer.go
package policy

import (
	"math"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// Adam 自适应矩估计优化器，按参数组维护一阶与二阶矩
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step   int
	first  [][]float64
	second [][]float64
}

// NewAdam 创建优化器，groupSizes 为各参数组长度
func NewAdam(learningRate float64, groupSizes ...int) *Adam {
	a := &Adam{
		LearningRate: learningRate,
		Beta1:        adamBeta1,
		Beta2:        adamBeta2,
		Epsilon:      adamEpsilon,
	}
	for _, n := range groupSizes {
		a.first = append(a.first, make([]float64, n))
		a.second = append(a.second, make([]float64, n))
	}
	return a
}

// Steps 已执行的更新次数
func (a *Adam) Steps() int {
	return a.step
}

// Step 原地更新参数，params 与 grads 按组对齐
func (a *Adam) Step(params, grads [][]float64) {
	a.step++
	correction1 := 1 - math.Pow(a.Beta1, float64(a.step))
	correction2 := 1 - math.Pow(a.Beta2, float64(a.step))

	for g := range params {
		m, v := a.first[g], a.second[g]
		for i, grad := range grads[g] {
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*grad
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*grad*grad

			mHat := m[i] / correction1
			vHat := v[i] / correction2
			params[g][i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
		}
	}
}

//Personal.AI order the ending
