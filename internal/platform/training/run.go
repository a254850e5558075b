// internal/platform/training/run.go
package training

import (
	"context"
	"time"
)

// RunStatus 训练运行状态
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// TrainingRun 一次训练运行记录
type TrainingRun struct {
	ID                  string     `json:"id"`
	Status              RunStatus  `json:"status"`
	Epochs              int        `json:"epochs"`
	IterationsPerSample int        `json:"iterations_per_sample"`
	Samples             int        `json:"samples"`
	PerTokenReward      bool       `json:"per_token_reward"`
	SnapshotName        string     `json:"snapshot_name"`
	SnapshotLocation    string     `json:"snapshot_location,omitempty"`
	EpochAverages       []float64  `json:"epoch_averages"`
	Episodes            int        `json:"episodes"`
	Fallbacks           int        `json:"fallbacks"`
	ErrorMessage        string     `json:"error_message,omitempty"`
	StartedAt           time.Time  `json:"started_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

// FinalAverage 最后一轮的平均奖励
func (r *TrainingRun) FinalAverage() float64 {
	if len(r.EpochAverages) == 0 {
		return 0
	}
	return r.EpochAverages[len(r.EpochAverages)-1]
}

// EpochRecord 单轮统计
type EpochRecord struct {
	RunID     string    `json:"run_id"`
	Epoch     int       `json:"epoch"`
	AvgReward float64   `json:"avg_reward"`
	Samples   int       `json:"samples"`
	Fallbacks int       `json:"fallbacks"`
	MeanLoss  float64   `json:"mean_loss"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType 进度事件类型
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventEpochCompleted EventType = "epoch_completed"
	EventRunFinished    EventType = "run_finished"
)

// ProgressEvent 训练进度事件
type ProgressEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Epoch     int       `json:"epoch,omitempty"`
	Epochs    int       `json:"epochs"`
	AvgReward float64   `json:"avg_reward"`
	Fallbacks int       `json:"fallbacks"`
	Status    RunStatus `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// RunRepository 训练运行仓储接口
type RunRepository interface {
	// CreateRun 创建运行记录
	CreateRun(ctx context.Context, run *TrainingRun) error

	// UpdateRun 更新运行记录
	UpdateRun(ctx context.Context, run *TrainingRun) error

	// AddEpoch 追加轮次统计
	AddEpoch(ctx context.Context, record *EpochRecord) error

	// GetRun 获取运行记录
	GetRun(ctx context.Context, id string) (*TrainingRun, error)

	// ListRuns 按开始时间倒序列出最近的运行
	ListRuns(ctx context.Context, limit int) ([]*TrainingRun, error)

	// ListEpochs 列出运行的轮次统计
	ListEpochs(ctx context.Context, runID string) ([]*EpochRecord, error)
}

// EventPublisher 进度事件发布接口
type EventPublisher interface {
	// Publish 发布事件
	Publish(ctx context.Context, event *ProgressEvent) error

	// Close 关闭发布器
	Close() error
}

// SnapshotSink 策略快照存储接口，name 为不透明的目录标识
type SnapshotSink interface {
	// Save 保存快照，返回存储位置
	Save(ctx context.Context, name string, data []byte) (string, error)

	// Load 读取快照
	Load(ctx context.Context, name string) ([]byte, error)
}

//Personal.AI order the ending
