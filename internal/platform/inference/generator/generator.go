// internal/platform/inference/generator/generator.go
package generator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/metrics"
	"github.com/openeeap/replytune/internal/observability/trace"
	"github.com/openeeap/replytune/internal/platform/inference/openai"
	"github.com/openeeap/replytune/pkg/errors"
)

const (
	// EmptyInputReply 空输入的兜底回复
	EmptyInputReply = "I apologize, but I received an empty message. Could you please provide more details?"

	systemPrompt = "You are a professional business email assistant."

	userPromptTemplate = `You are a professional business email assistant. Generate a polite and helpful reply to the following email.
Follow these guidelines:
1. Be professional and courteous
2. Address the specific points in the email
3. Keep the response clear and concise
4. Use appropriate business language
5. If the input is unclear or nonsensical, respond professionally asking for clarification
6. Always maintain a helpful and professional tone

Original Email:
%s

Write a professional business email reply that appropriately addresses this message.
`

	clarificationTemplate = "Dear %s,\n\nI apologize, but I need some clarification to better assist you. Could you please provide more details or rephrase your message?\n\nBest regards,\nAssistant"
)

// ReplyGenerator 回复生成接口，失败以 Fallback 结果表示而非错误
type ReplyGenerator interface {
	Generate(ctx context.Context, email string) Result
}

// ChatCompleter 对话补全后端
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req *openai.ChatRequest) (*openai.ChatResponse, error)
}

// StyleAdvisor 风格提示来源，通常为训练中的策略
type StyleAdvisor interface {
	TopPhrases(prompt string, k int) []string
}

// Config 生成参数
type Config struct {
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	Timeout          time.Duration
	StyleHints       int
}

// DefaultConfig 默认生成参数
func DefaultConfig() Config {
	return Config{
		Model:            "gpt-3.5-turbo",
		Temperature:      0.7,
		MaxTokens:        300,
		TopP:             0.9,
		FrequencyPenalty: 0.5,
		PresencePenalty:  0.5,
		Timeout:          30 * time.Second,
	}
}

// Option 生成器选项
type Option func(*Generator)

// WithStyleAdvisor 设置风格提示来源
func WithStyleAdvisor(advisor StyleAdvisor) Option {
	return func(g *Generator) {
		g.advisor = advisor
	}
}

// WithFormatPass 替换问候与结束语模板
func WithFormatPass(pass *FormatPass) Option {
	return func(g *Generator) {
		g.format = pass
	}
}

// Generator 邮件回复生成器
type Generator struct {
	client  ChatCompleter
	advisor StyleAdvisor
	format  *FormatPass
	config  Config
	logger  logging.Logger
	metrics *metrics.MetricsCollector
	tracer  trace.Tracer
}

// New 创建回复生成器
func New(client ChatCompleter, config Config, logger logging.Logger, metricsCollector *metrics.MetricsCollector, tracer trace.Tracer, opts ...Option) *Generator {
	g := &Generator{
		client:  client,
		format:  DefaultFormatPass(),
		config:  config,
		logger:  logger,
		metrics: metricsCollector,
		tracer:  tracer,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate 生成回复，任何后端失败都返回澄清兜底回复
func (g *Generator) Generate(ctx context.Context, email string) Result {
	ctx, span := g.tracer.Start(ctx, "Generator.Generate")
	defer span.End()

	startTime := time.Now()
	result := g.generate(ctx, email)

	trace.SetSpanAttributes(ctx,
		trace.StringAttr("generator.outcome", string(result.Outcome)),
		trace.StringAttr("generator.reason", string(result.Reason)),
	)
	g.metrics.RecordGeneration(result.IsFallback(), string(result.Reason), time.Since(startTime))

	if result.IsFallback() {
		fields := []logging.Field{logging.String("reason", string(result.Reason))}
		if result.Err != nil {
			fields = append(fields, logging.Error(result.Err))
		}
		g.logger.WithContext(ctx).Warn("reply generation fell back", fields...)
	}
	return result
}

func (g *Generator) generate(ctx context.Context, email string) Result {
	cleaned := CleanText(email)
	if cleaned == "" {
		return Fallback(EmptyInputReply, ReasonEmptyInput, nil)
	}
	recipient := ExtractRecipient(cleaned)

	callCtx := ctx
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(callCtx, g.buildRequest(cleaned))
	if err != nil {
		return Fallback(ClarificationReply(recipient), classify(err), err)
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return Fallback(ClarificationReply(recipient), ReasonMalformedResponse,
			errors.NewFromCodef(errors.ErrGenerationMalformed, "empty message content"))
	}
	return Generated(g.format.Apply(reply, recipient))
}

// BuildPrompt 构造用户提示词，配置风格提示时追加偏好措辞
func (g *Generator) BuildPrompt(cleaned string) string {
	prompt := fmt.Sprintf(userPromptTemplate, cleaned)
	if g.advisor != nil && g.config.StyleHints > 0 {
		if phrases := g.advisor.TopPhrases(cleaned, g.config.StyleHints); len(phrases) > 0 {
			prompt += "\nPreferred phrasing: " + strings.Join(phrases, ", ") + "\n"
		}
	}
	return prompt
}

func (g *Generator) buildRequest(cleaned string) *openai.ChatRequest {
	return &openai.ChatRequest{
		Model: g.config.Model,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: g.BuildPrompt(cleaned)},
		},
		Temperature:      g.config.Temperature,
		MaxTokens:        g.config.MaxTokens,
		TopP:             g.config.TopP,
		FrequencyPenalty: g.config.FrequencyPenalty,
		PresencePenalty:  g.config.PresencePenalty,
	}
}

// ClarificationReply 后端失败时的澄清回复
func ClarificationReply(recipient string) string {
	return fmt.Sprintf(clarificationTemplate, recipient)
}

func classify(err error) FallbackReason {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, errors.ErrGenerationMalformed.Code):
		return ReasonMalformedResponse
	case errors.Is(err, errors.ErrGenerationRateLimited.Code):
		return ReasonRateLimited
	default:
		return ReasonGenerationFailed
	}
}

//Personal.AI order the ending
