// internal/platform/reward/tokenizer.go
package reward

import (
	"regexp"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

type rewriteRule struct {
	pattern *regexp.Regexp
	replace string
}

func rule(pattern, replace string) rewriteRule {
	return rewriteRule{pattern: regexp.MustCompile(pattern), replace: replace}
}

func applyRules(text string, rules []rewriteRule) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	return text
}

// Penn Treebank 切分规则，按顺序执行
var (
	startingQuoteRules = []rewriteRule{
		rule("([«“‘„]|`+)", " ${1} "),
		rule(`^"`, "``"),
		rule("(``)", " ${1} "),
		rule(`([ (\[{<])("|'')`, "${1} `` "),
	}

	// quotedLetter 引号后的单字母词，缩写字母（m、t、s、d、n）除外
	quotedLetter = regexp.MustCompile(`'(\w)\b`)

	punctuationRules = []rewriteRule{
		rule(`([^.])(\.)([\])}>"']*)\s*$`, "${1} ${2} ${3} "),
		rule(`([:,])([^\d])`, " ${1} ${2}"),
		rule(`([:,])$`, " ${1} "),
		rule(`\.{2,}`, " ${0} "),
		rule(`[;@#$%&]`, " ${0} "),
		rule(`[?!]`, " ${0} "),
		rule(`([^'])' `, "${1} ' "),
		rule(`[*]`, " ${0} "),
		rule(`[\]\[(){}<>]`, " ${0} "),
		rule(`--`, " -- "),
	}

	endingQuoteRules = []rewriteRule{
		rule(`([»”’])`, " ${1} "),
		rule(`''`, " '' "),
		rule(`"`, " '' "),
		rule(`([^' ])('[sS]|'[mM]|'[dD]|') `, "${1} ${2} "),
		rule(`([^' ])('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `, "${1} ${2} "),
	}

	contractionRules = []rewriteRule{
		rule(`(?i)\b(can)(not)\b`, " ${1} ${2} "),
		rule(`(?i)\b(d)('ye)\b`, " ${1} ${2} "),
		rule(`(?i)\b(gim)(me)\b`, " ${1} ${2} "),
		rule(`(?i)\b(gon)(na)\b`, " ${1} ${2} "),
		rule(`(?i)\b(got)(ta)\b`, " ${1} ${2} "),
		rule(`(?i)\b(lem)(me)\b`, " ${1} ${2} "),
		rule(`(?i)\b(more)('n)\b`, " ${1} ${2} "),
		rule(`(?i)\b(wan)(na)(\s)`, " ${1} ${2}${3}"),
		rule(`(?i) ('t)(is)\b`, " ${1} ${2} "),
		rule(`(?i) ('t)(was)\b`, " ${1} ${2} "),
	}
)

var (
	sentenceSplitterOnce sync.Once
	sentenceSplitter     *sentences.DefaultSentenceTokenizer
)

// splitSentences punkt 分句，训练数据加载失败时整段视为一句
func splitSentences(text string) []string {
	sentenceSplitterOnce.Do(func() {
		if t, err := english.NewSentenceTokenizer(nil); err == nil {
			sentenceSplitter = t
		}
	})
	if sentenceSplitter == nil {
		return []string{text}
	}

	var out []string
	for _, s := range sentenceSplitter.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Tokenize 先按 punkt 分句，再按 Penn Treebank 规则切词：
// 句点只在句末拆开（mr.、e.g. 保留），缩写后缀 n't、'm、'll 等拆开，-- 独立成词
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var tokens []string
	for _, sentence := range splitSentences(text) {
		tokens = append(tokens, tokenizeSentence(sentence)...)
	}
	return tokens
}

func tokenizeSentence(text string) []string {
	text = applyRules(text, startingQuoteRules)
	text = quotedLetter.ReplaceAllStringFunc(text, func(m string) string {
		letter := m[1:]
		if strings.ContainsAny(strings.ToLower(letter), "mtsdn") {
			return m
		}
		return "' " + letter
	})
	text = applyRules(text, punctuationRules)

	text = " " + text + " "
	text = applyRules(text, endingQuoteRules)
	text = applyRules(text, contractionRules)

	return strings.Fields(text)
}

//Personal.AI order the ending
