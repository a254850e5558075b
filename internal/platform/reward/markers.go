// internal/platform/reward/markers.go
package reward

import (
	"sort"
	"strings"
)

// MarkerSet 不可变的标记词集合，按子串匹配词元
type MarkerSet struct {
	words []string
}

// NewMarkerSet 创建标记词集合（小写、去重、排序）
func NewMarkerSet(words ...string) MarkerSet {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return MarkerSet{words: out}
}

// DefaultPolitenessMarkers 默认礼貌标记
func DefaultPolitenessMarkers() MarkerSet {
	return NewMarkerSet(
		"please", "thank", "thanks", "appreciate", "grateful",
		"kind", "regards", "sincerely", "best", "warmly",
	)
}

// DefaultHelpfulnessMarkers 默认有用性标记
func DefaultHelpfulnessMarkers() MarkerSet {
	return NewMarkerSet(
		"help", "assist", "support", "provide", "suggest",
		"recommend", "advise", "guide", "explain", "clarify",
	)
}

// Words 返回标记词副本
func (m MarkerSet) Words() []string {
	return append([]string(nil), m.words...)
}

// Len 标记词数量
func (m MarkerSet) Len() int {
	return len(m.words)
}

// Matches 词元是否包含任一标记（子串匹配）
func (m MarkerSet) Matches(token string) bool {
	for _, w := range m.words {
		if strings.Contains(token, w) {
			return true
		}
	}
	return false
}

// Count 统计命中标记的词元数，每个词元最多计一次
func (m MarkerSet) Count(tokens []string) int {
	n := 0
	for _, t := range tokens {
		if m.Matches(t) {
			n++
		}
	}
	return n
}

// Fingerprint 集合的稳定标识，用于缓存键
func (m MarkerSet) Fingerprint() string {
	return strings.Join(m.words, ",")
}

//Personal.AI order the ending
