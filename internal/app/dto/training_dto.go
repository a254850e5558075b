package dto

import (
	"github.com/openeeap/replytune/internal/platform/training"
)

// StartTrainingRequest 训练请求
type StartTrainingRequest struct {
	Dataset             []string `json:"dataset"`
	Epochs              int      `json:"epochs" binding:"gte=1" example:"3"`
	IterationsPerSample int      `json:"iterations_per_sample" binding:"gte=1" example:"5"`
	SnapshotName        string   `json:"snapshot_name" binding:"required" example:"fine_tuned_email_model"`
	PerTokenReward      bool     `json:"per_token_reward" example:"false"`
}

// ListRunsRequest 运行列表请求
type ListRunsRequest struct {
	Limit int `form:"limit" json:"limit" binding:"omitempty,gte=1,lte=100" example:"20"`
}

// GetLimit 获取限制数量
func (r *ListRunsRequest) GetLimit() int {
	if r.Limit == 0 {
		return 20
	}
	return r.Limit
}

// RunResponse 运行详情
type RunResponse struct {
	Run    *training.TrainingRun   `json:"run"`
	Epochs []*training.EpochRecord `json:"epochs,omitempty"`
}

// RunListResponse 运行列表
type RunListResponse struct {
	Runs  []*training.TrainingRun `json:"runs"`
	Total int                     `json:"total"`
}

//Personal.AI order the ending
