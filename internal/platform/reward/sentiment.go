// internal/platform/reward/sentiment.go
package reward

import (
	"math"
	"strings"

	"github.com/jonreiter/govader"
)

// Polarity 情感极性分量，Positive/Negative/Neutral 之和为 1
type Polarity struct {
	Positive float64 `json:"pos"`
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Compound float64 `json:"compound"`
}

// SentimentAnalyzer 情感分析接口
type SentimentAnalyzer interface {
	// Name 分析器标识，参与缓存键
	Name() string

	// PolarityScores 计算文本的情感极性
	PolarityScores(text string) Polarity
}

// vaderAnalyzerName VADER 分析器标识，词典版本变化时需同步修改
const vaderAnalyzerName = "vader-govader-20250429"

// VaderAnalyzer VADER 情感分析器，构造后只读，可并发使用
type VaderAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderAnalyzer 加载 VADER 词典创建分析器
func NewVaderAnalyzer() *VaderAnalyzer {
	return &VaderAnalyzer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Name 分析器标识
func (a *VaderAnalyzer) Name() string {
	return vaderAnalyzerName
}

// PolarityScores 计算文本的情感极性，分量保留 3 位小数，compound 保留 4 位。
// 任意空白都按单词边界处理，空文本返回零值
func (a *VaderAnalyzer) PolarityScores(text string) Polarity {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Polarity{}
	}

	s := a.analyzer.PolarityScores(strings.Join(fields, " "))
	return Polarity{
		Positive: round3(s.Positive),
		Negative: round3(s.Negative),
		Neutral:  round3(s.Neutral),
		Compound: round4(s.Compound),
	}
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

//Personal.AI order the ending
