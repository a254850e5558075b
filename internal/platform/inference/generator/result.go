// internal/platform/inference/generator/result.go
package generator

// Outcome 生成结果类别
type Outcome string

const (
	// OutcomeGenerated 后端成功生成
	OutcomeGenerated Outcome = "generated"
	// OutcomeFallback 使用兜底回复
	OutcomeFallback Outcome = "fallback"
)

// FallbackReason 兜底原因
type FallbackReason string

const (
	ReasonEmptyInput        FallbackReason = "empty_input"
	ReasonGenerationFailed  FallbackReason = "generation_failed"
	ReasonMalformedResponse FallbackReason = "malformed_response"
	ReasonRateLimited       FallbackReason = "rate_limited"
	ReasonTimeout           FallbackReason = "timeout"
)

// Result 回复生成结果：Generated 或 Fallback
type Result struct {
	Text    string
	Outcome Outcome
	Reason  FallbackReason
	// Err 导致兜底的原始错误，可能为空
	Err error
}

// Generated 构造成功结果
func Generated(text string) Result {
	return Result{Text: text, Outcome: OutcomeGenerated}
}

// Fallback 构造兜底结果
func Fallback(text string, reason FallbackReason, err error) Result {
	return Result{Text: text, Outcome: OutcomeFallback, Reason: reason, Err: err}
}

// IsFallback 是否为兜底回复
func (r Result) IsFallback() bool {
	return r.Outcome == OutcomeFallback
}

//Personal.AI order the ending
