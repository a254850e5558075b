package dto

import (
	"time"

	"github.com/openeeap/replytune/internal/platform/reward"
)

// ScoreRequest 评分请求
type ScoreRequest struct {
	Text string `json:"text" binding:"required,max=20000" example:"Thank you for reaching out, I'd be happy to help."`
}

// ScoreResponse 评分响应
type ScoreResponse struct {
	Politeness  float64 `json:"politeness" example:"0.42"`
	Helpfulness float64 `json:"helpfulness" example:"0.35"`
	Total       float64 `json:"total" example:"0.3850"`
	WordCount   int     `json:"word_count" example:"10"`
}

// NewScoreResponse 由评分明细构建响应
func NewScoreResponse(b reward.RewardBreakdown) *ScoreResponse {
	return &ScoreResponse{
		Politeness:  b.Politeness,
		Helpfulness: b.Helpfulness,
		Total:       b.Total,
		WordCount:   b.WordCount,
	}
}

// ReplyRequest 回复请求
type ReplyRequest struct {
	Email string `json:"email" binding:"required,max=20000" example:"Anna: Could you help me with the project deadline?"`
}

// ReplyResponse 回复响应
type ReplyResponse struct {
	Reply     string         `json:"reply"`
	Fallback  bool           `json:"fallback" example:"false"`
	Reason    string         `json:"reason,omitempty" example:"timeout"`
	LatencyMS int64          `json:"latency_ms" example:"850"`
	Score     *ScoreResponse `json:"score"`
}

// ReplyResult 回复结果
type ReplyResult struct {
	Reply    string
	Fallback bool
	Reason   string
	Latency  time.Duration
	Score    reward.RewardBreakdown
}

// ToResponse 转换为响应
func (r *ReplyResult) ToResponse() *ReplyResponse {
	return &ReplyResponse{
		Reply:     r.Reply,
		Fallback:  r.Fallback,
		Reason:    r.Reason,
		LatencyMS: r.Latency.Milliseconds(),
		Score:     NewScoreResponse(r.Score),
	}
}

//Personal.AI order the ending
