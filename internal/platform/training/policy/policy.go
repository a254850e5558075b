// internal/platform/training/policy/policy.go
package policy

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/openeeap/replytune/internal/platform/reward"
	"github.com/openeeap/replytune/pkg/errors"
)

// Mode 策略运行模式
type Mode string

const (
	// ModeTrain 训练模式，允许参数更新
	ModeTrain Mode = "train"
	// ModeEval 评估模式，参数冻结
	ModeEval Mode = "eval"
)

const (
	// DefaultFeatureDim 默认特征维度
	DefaultFeatureDim = 256
	// DefaultLearningRate 默认学习率
	DefaultLearningRate = 1e-5

	initScale = 0.01
)

// neutralPhrases 非标记类业务用语，与标记词一起构成动作空间
var neutralPhrases = []string{
	"access", "available", "confirm", "deadline", "details", "follow",
	"meeting", "review", "schedule", "timeline", "update",
}

// DefaultVocabulary 默认动作词表：礼貌标记、有用性标记与中性业务用语
func DefaultVocabulary() []string {
	seen := make(map[string]struct{})
	var vocab []string
	add := func(words []string) {
		for _, w := range words {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			vocab = append(vocab, w)
		}
	}
	add(reward.DefaultPolitenessMarkers().Words())
	add(reward.DefaultHelpfulnessMarkers().Words())
	add(neutralPhrases)
	return vocab
}

// Config 策略配置
type Config struct {
	Vocabulary   []string
	FeatureDim   int
	LearningRate float64
	Seed         int64
}

// Policy 基于提示词特征的线性 softmax 策略，输出动作词表上的概率分布
type Policy struct {
	mu sync.RWMutex

	vocab      []string
	featureDim int
	weights    *mat.Dense
	bias       *mat.VecDense
	optimizer  *Adam
	mode       Mode
}

// New 创建策略，权重以固定种子小幅随机初始化
func New(cfg Config) (*Policy, error) {
	if len(cfg.Vocabulary) == 0 {
		cfg.Vocabulary = DefaultVocabulary()
	}
	if cfg.FeatureDim == 0 {
		cfg.FeatureDim = DefaultFeatureDim
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = DefaultLearningRate
	}
	if cfg.FeatureDim < 0 || cfg.LearningRate < 0 {
		return nil, errors.NewFromCodef(errors.ErrTrainInvalidConfig, "feature_dim and learning_rate must be positive")
	}

	vocab := make([]string, 0, len(cfg.Vocabulary))
	for _, w := range cfg.Vocabulary {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		vocab = append(vocab, w)
	}
	if len(vocab) == 0 {
		return nil, errors.NewFromCodef(errors.ErrTrainInvalidConfig, "vocabulary must not be empty")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	k := len(vocab)
	data := make([]float64, k*cfg.FeatureDim)
	for i := range data {
		data[i] = rng.NormFloat64() * initScale
	}

	return &Policy{
		vocab:      vocab,
		featureDim: cfg.FeatureDim,
		weights:    mat.NewDense(k, cfg.FeatureDim, data),
		bias:       mat.NewVecDense(k, nil),
		optimizer:  NewAdam(cfg.LearningRate, k*cfg.FeatureDim, k),
		mode:       ModeTrain,
	}, nil
}

// Vocabulary 返回动作词表副本
func (p *Policy) Vocabulary() []string {
	out := make([]string, len(p.vocab))
	copy(out, p.vocab)
	return out
}

// Size 动作数量
func (p *Policy) Size() int {
	return len(p.vocab)
}

// Train 切换到训练模式
func (p *Policy) Train() {
	p.mu.Lock()
	p.mode = ModeTrain
	p.mu.Unlock()
}

// Eval 切换到评估模式
func (p *Policy) Eval() {
	p.mu.Lock()
	p.mode = ModeEval
	p.mu.Unlock()
}

// Mode 当前模式
func (p *Policy) Mode() Mode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// Probs 计算提示词条件下的动作概率分布
func (p *Policy) Probs(prompt string) []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.forward(p.features(prompt))
}

// ApplyProbabilityGradient 将损失对概率的梯度经 softmax 反传，并执行一次 Adam 更新
func (p *Policy) ApplyProbabilityGradient(prompt string, probs, grad []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode != ModeTrain {
		return errors.NewFromCode(errors.ErrTrainPolicyFrozen)
	}
	k := len(p.vocab)
	if len(probs) != k || len(grad) != k {
		return errors.NewFromCodef(errors.ErrTrainDistributionMismatch, len(probs), k)
	}

	// dz_j = p_j * (g_j - sum_i g_i p_i)
	inner := floats.Dot(grad, probs)
	dz := make([]float64, k)
	for j := range dz {
		dz[j] = probs[j] * (grad[j] - inner)
	}

	x := p.features(prompt)
	gradW := mat.NewDense(k, p.featureDim, nil)
	gradW.Outer(1, mat.NewVecDense(k, dz), mat.NewVecDense(p.featureDim, x))

	p.optimizer.Step(
		[][]float64{p.weights.RawMatrix().Data, p.bias.RawVector().Data},
		[][]float64{gradW.RawMatrix().Data, dz},
	)
	return nil
}

// TopPhrases 返回概率最高的 k 个动作词，用于生成风格提示
func (p *Policy) TopPhrases(prompt string, k int) []string {
	probs := p.Probs(prompt)
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	if k > len(idx) {
		k = len(idx)
	}
	out := make([]string, 0, k)
	for _, i := range idx[:k] {
		out = append(out, p.vocab[i])
	}
	return out
}

// ActionForToken 将回复中的词映射到动作：优先精确匹配，其次子串匹配
func (p *Policy) ActionForToken(token string) (int, bool) {
	token = strings.ToLower(token)
	if token == "" {
		return 0, false
	}
	for i, w := range p.vocab {
		if w == token {
			return i, true
		}
	}
	for i, w := range p.vocab {
		if strings.Contains(token, w) {
			return i, true
		}
	}
	return 0, false
}

func (p *Policy) forward(x []float64) []float64 {
	k := len(p.vocab)
	logits := mat.NewVecDense(k, nil)
	logits.MulVec(p.weights, mat.NewVecDense(p.featureDim, x))
	logits.AddVec(logits, p.bias)

	out := make([]float64, k)
	copy(out, logits.RawVector().Data)
	return softmax(out)
}

// features 词袋哈希特征，L2 归一化
func (p *Policy) features(prompt string) []float64 {
	x := make([]float64, p.featureDim)
	words := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		x[int(h.Sum32()%uint32(p.featureDim))]++
	}
	if norm := floats.Norm(x, 2); norm > 0 {
		floats.Scale(1/norm, x)
	}
	return x
}

func softmax(logits []float64) []float64 {
	floats.AddConst(-floats.Max(logits), logits)
	for i, v := range logits {
		logits[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(logits), logits)
	return logits
}

//Personal.AI order the ending
