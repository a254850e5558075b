// internal/platform/reward/reward_model.go
package reward

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// RewardBreakdown 奖励分解，Total 恒等于 0.5*Politeness + 0.5*Helpfulness
type RewardBreakdown struct {
	Politeness  float64 `json:"politeness"`
	Helpfulness float64 `json:"helpfulness"`
	Total       float64 `json:"total"`
	WordCount   int     `json:"word_count"`
}

// Scorer 评分接口，不返回错误
type Scorer interface {
	// Score 为文本打分
	Score(ctx context.Context, text string) RewardBreakdown
}

const (
	politenessMarkerWeight    = 0.7
	politenessSentimentWeight = 0.3

	helpfulnessMarkerWeight = 0.4
	helpfulnessLengthWeight = 0.3
	helpfulnessNumberWeight = 0.15
	helpfulnessURLWeight    = 0.15

	// lengthSaturation 长度得分在该词数处饱和
	lengthSaturation = 100.0
)

var (
	numberPattern = regexp.MustCompile(`\d+`)
	urlPattern    = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
)

// RewardModel 礼貌度与有用性奖励模型
type RewardModel struct {
	sentiment   SentimentAnalyzer
	politeness  MarkerSet
	helpfulness MarkerSet
}

// NewRewardModel 创建奖励模型
func NewRewardModel(sentiment SentimentAnalyzer, politeness, helpfulness MarkerSet) *RewardModel {
	return &RewardModel{
		sentiment:   sentiment,
		politeness:  politeness,
		helpfulness: helpfulness,
	}
}

// NewDefaultRewardModel 使用 VADER 和默认标记集创建奖励模型
func NewDefaultRewardModel() *RewardModel {
	return NewRewardModel(NewVaderAnalyzer(), DefaultPolitenessMarkers(), DefaultHelpfulnessMarkers())
}

// Score 为文本打分
func (m *RewardModel) Score(_ context.Context, text string) RewardBreakdown {
	return m.Evaluate(text)
}

// Evaluate 计算奖励分解，纯函数
func (m *RewardModel) Evaluate(text string) RewardBreakdown {
	lower := strings.ToLower(text)
	words := Tokenize(lower)

	politeness := m.politenessScore(lower, words)
	helpfulness := m.helpfulnessScore(lower, words)

	return RewardBreakdown{
		Politeness:  politeness,
		Helpfulness: helpfulness,
		Total:       CombineScores(politeness, helpfulness),
		WordCount:   len(words),
	}
}

// CombineScores 总分公式
func CombineScores(politeness, helpfulness float64) float64 {
	return 0.5*politeness + 0.5*helpfulness
}

// Fingerprint 模型标识，分析器或标记集变化时缓存键随之变化
func (m *RewardModel) Fingerprint() string {
	return m.sentiment.Name() + "|" + m.politeness.Fingerprint() + "|" + m.helpfulness.Fingerprint()
}

func (m *RewardModel) politenessScore(lower string, words []string) float64 {
	markerRatio := float64(m.politeness.Count(words)) / wordDenominator(words)
	polarity := m.sentiment.PolarityScores(lower)

	score := politenessMarkerWeight*markerRatio +
		politenessSentimentWeight*(polarity.Positive-polarity.Negative)
	return clamp01(score)
}

func (m *RewardModel) helpfulnessScore(lower string, words []string) float64 {
	markerRatio := float64(m.helpfulness.Count(words)) / wordDenominator(words)
	lengthScore := math.Min(float64(len(words))/lengthSaturation, 1.0)

	score := helpfulnessMarkerWeight*markerRatio +
		helpfulnessLengthWeight*lengthScore +
		helpfulnessNumberWeight*indicator(numberPattern.MatchString(lower)) +
		helpfulnessURLWeight*indicator(urlPattern.MatchString(lower))
	return clamp01(score)
}

func wordDenominator(words []string) float64 {
	return math.Max(float64(len(words)), 1)
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

//Personal.AI order the ending
