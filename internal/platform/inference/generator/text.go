// internal/platform/inference/generator/text.go
package generator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultRecipient 无法提取收件人时的称呼
const DefaultRecipient = "valued colleague"

const maxRecipientWords = 3

var (
	wordOrGapPattern  = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]+|[^\p{L}\p{N}\p{M}_]+`)
	disallowedPattern = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s.,!?;:()'-@]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanText 清洗输入：折叠连续重复词，去除异常字符，规整空白
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = collapseRepeatedWords(text)
	text = disallowedPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// collapseRepeatedWords 仅以空白分隔的相同整词合并为一个
func collapseRepeatedWords(text string) string {
	parts := wordOrGapPattern.FindAllString(text, -1)

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(parts); i++ {
		b.WriteString(parts[i])
		if !isWordPart(parts[i]) {
			continue
		}
		for i+2 < len(parts) && isBlank(parts[i+1]) && parts[i+2] == parts[i] {
			i += 2
		}
	}
	return b.String()
}

func isWordPart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ExtractRecipient 从首行 "姓名:" 形式提取收件人
func ExtractRecipient(email string) string {
	firstLine := strings.TrimSpace(strings.SplitN(email, "\n", 2)[0])

	if idx := strings.Index(firstLine, ":"); idx >= 0 {
		name := strings.TrimSpace(firstLine[:idx])
		if name != "" && len(strings.Fields(name)) <= maxRecipientWords {
			return name
		}
	}
	return DefaultRecipient
}

//Personal.AI order the ending
