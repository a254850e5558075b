// internal/platform/inference/generator/template.go
package generator

import (
	"strings"
)

const recipientPlaceholder = "{recipient}"

var (
	defaultGreetings = []string{"Dear {recipient},", "Hello {recipient},", "Hi {recipient},"}
	defaultClosings  = []string{"Best regards,", "Kind regards,", "Sincerely,", "Thank you,", "Best,"}
)

// FormatPass 回复格式修复：按固定顺序检查问候语与结束语
type FormatPass struct {
	greetings []string
	closings  []string
}

// NewFormatPass 创建格式修复器，首个问候模板与首个结束语作为补全默认值
func NewFormatPass(greetings, closings []string) *FormatPass {
	return &FormatPass{
		greetings: append([]string(nil), greetings...),
		closings:  append([]string(nil), closings...),
	}
}

// DefaultFormatPass 默认问候与结束语模板
func DefaultFormatPass() *FormatPass {
	return NewFormatPass(defaultGreetings, defaultClosings)
}

// Greetings 问候模板副本
func (p *FormatPass) Greetings() []string {
	return append([]string(nil), p.greetings...)
}

// Closings 结束语副本
func (p *FormatPass) Closings() []string {
	return append([]string(nil), p.closings...)
}

// HasGreeting 回复是否以任一模板的称谓词开头
func (p *FormatPass) HasGreeting(reply string) bool {
	for _, g := range p.greetings {
		if salutation := salutationOf(g); salutation != "" && strings.HasPrefix(reply, salutation) {
			return true
		}
	}
	return false
}

// HasClosing 回复是否包含任一结束语
func (p *FormatPass) HasClosing(reply string) bool {
	for _, c := range p.closings {
		if strings.Contains(reply, c) {
			return true
		}
	}
	return false
}

// Apply 补全缺失的问候语与结束语
func (p *FormatPass) Apply(reply, recipient string) string {
	if !p.HasGreeting(reply) && len(p.greetings) > 0 {
		reply = p.Greeting(recipient) + "\n\n" + reply
	}
	if !p.HasClosing(reply) && len(p.closings) > 0 {
		reply += "\n\n" + p.closings[0]
	}
	return reply
}

// Greeting 使用首个模板生成问候语
func (p *FormatPass) Greeting(recipient string) string {
	if len(p.greetings) == 0 {
		return ""
	}
	return strings.ReplaceAll(p.greetings[0], recipientPlaceholder, recipient)
}

// salutationOf 取模板中称呼占位符之前的部分，如 "Dear "
func salutationOf(template string) string {
	idx := strings.Index(template, recipientPlaceholder)
	if idx <= 0 {
		return ""
	}
	return template[:idx]
}

//Personal.AI order the ending
