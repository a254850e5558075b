// internal/platform/training/policy/snapshot.go
package policy

import (
	"encoding/json"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/openeeap/replytune/pkg/errors"
)

// SnapshotVersion 快照格式版本
const SnapshotVersion = 1

// Snapshot 策略快照，包含权重与优化器状态，可恢复后继续训练
type Snapshot struct {
	Version    int         `json:"version"`
	Name       string      `json:"name"`
	Vocabulary []string    `json:"vocabulary"`
	FeatureDim int         `json:"feature_dim"`
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Optimizer  AdamState   `json:"optimizer"`
	Mode       Mode        `json:"mode"`
	TrainedAt  time.Time   `json:"trained_at"`
}

// AdamState 优化器状态
type AdamState struct {
	LearningRate float64     `json:"learning_rate"`
	Step         int         `json:"step"`
	First        [][]float64 `json:"first"`
	Second       [][]float64 `json:"second"`
}

// Snapshot 导出当前策略状态
func (p *Policy) Snapshot(name string) *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	k := len(p.vocab)
	weights := make([][]float64, k)
	for i := 0; i < k; i++ {
		weights[i] = mat.Row(nil, i, p.weights)
	}

	return &Snapshot{
		Version:    SnapshotVersion,
		Name:       name,
		Vocabulary: p.Vocabulary(),
		FeatureDim: p.featureDim,
		Weights:    weights,
		Bias:       append([]float64(nil), p.bias.RawVector().Data...),
		Optimizer: AdamState{
			LearningRate: p.optimizer.LearningRate,
			Step:         p.optimizer.step,
			First:        cloneGroups(p.optimizer.first),
			Second:       cloneGroups(p.optimizer.second),
		},
		Mode:      p.mode,
		TrainedAt: time.Now().UTC(),
	}
}

// Marshal 序列化快照
func (s *Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrTrainSnapshotFailed, s.Name)
	}
	return data, nil
}

// UnmarshalSnapshot 解析快照
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrTrainInvalidConfig, "malformed policy snapshot")
	}
	return &s, nil
}

// Restore 由快照恢复策略
func Restore(s *Snapshot) (*Policy, error) {
	if err := s.validate(); err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrTrainInvalidConfig, err.Error())
	}

	k := len(s.Vocabulary)
	data := make([]float64, 0, k*s.FeatureDim)
	for _, row := range s.Weights {
		data = append(data, row...)
	}

	optimizer := NewAdam(s.Optimizer.LearningRate, k*s.FeatureDim, k)
	optimizer.step = s.Optimizer.Step
	if len(s.Optimizer.First) == 2 && len(s.Optimizer.Second) == 2 {
		optimizer.first = cloneGroups(s.Optimizer.First)
		optimizer.second = cloneGroups(s.Optimizer.Second)
	}

	mode := s.Mode
	if mode == "" {
		mode = ModeEval
	}

	return &Policy{
		vocab:      append([]string(nil), s.Vocabulary...),
		featureDim: s.FeatureDim,
		weights:    mat.NewDense(k, s.FeatureDim, data),
		bias:       mat.NewVecDense(k, append([]float64(nil), s.Bias...)),
		optimizer:  optimizer,
		mode:       mode,
	}, nil
}

func (s *Snapshot) validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	k := len(s.Vocabulary)
	if k == 0 || s.FeatureDim <= 0 {
		return fmt.Errorf("snapshot has empty vocabulary or feature_dim")
	}
	if len(s.Weights) != k || len(s.Bias) != k {
		return fmt.Errorf("snapshot weights do not match vocabulary size %d", k)
	}
	for _, row := range s.Weights {
		if len(row) != s.FeatureDim {
			return fmt.Errorf("snapshot weight row has %d columns, want %d", len(row), s.FeatureDim)
		}
	}
	if len(s.Optimizer.First) == 2 {
		if len(s.Optimizer.First[0]) != k*s.FeatureDim || len(s.Optimizer.First[1]) != k ||
			len(s.Optimizer.Second) != 2 ||
			len(s.Optimizer.Second[0]) != k*s.FeatureDim || len(s.Optimizer.Second[1]) != k {
			return fmt.Errorf("snapshot optimizer state does not match parameter shapes")
		}
	}
	return nil
}

// Load 用快照原地替换策略参数，供已注入该策略的组件继续使用
func (p *Policy) Load(s *Snapshot) error {
	restored, err := Restore(s)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.vocab = restored.vocab
	p.featureDim = restored.featureDim
	p.weights = restored.weights
	p.bias = restored.bias
	p.optimizer = restored.optimizer
	p.mode = restored.mode
	return nil
}

func cloneGroups(groups [][]float64) [][]float64 {
	out := make([][]float64, len(groups))
	for i, g := range groups {
		out[i] = append([]float64(nil), g...)
	}
	return out
}

//Personal.AI order the ending
