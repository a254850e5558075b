// internal/platform/training/memory.go
package training

import (
	"context"
	"sort"
	"sync"

	"github.com/openeeap/replytune/pkg/errors"
)

// MemoryRunRepository 进程内运行仓储，未启用数据库时使用
type MemoryRunRepository struct {
	mu     sync.RWMutex
	runs   map[string]*TrainingRun
	epochs map[string][]*EpochRecord
}

// NewMemoryRunRepository 创建进程内仓储
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{
		runs:   make(map[string]*TrainingRun),
		epochs: make(map[string][]*EpochRecord),
	}
}

// CreateRun 创建运行记录
func (r *MemoryRunRepository) CreateRun(_ context.Context, run *TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = cloneRun(run)
	return nil
}

// UpdateRun 更新运行记录
func (r *MemoryRunRepository) UpdateRun(_ context.Context, run *TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return errors.NewNotFoundError(errors.ErrDBQueryFailed.Code, "training run not found: "+run.ID)
	}
	r.runs[run.ID] = cloneRun(run)
	return nil
}

// AddEpoch 追加轮次统计
func (r *MemoryRunRepository) AddEpoch(_ context.Context, record *EpochRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := *record
	r.epochs[record.RunID] = append(r.epochs[record.RunID], &rec)
	return nil
}

// GetRun 获取运行记录
func (r *MemoryRunRepository) GetRun(_ context.Context, id string) (*TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrDBQueryFailed.Code, "training run not found: "+id)
	}
	return cloneRun(run), nil
}

// ListRuns 按开始时间倒序列出
func (r *MemoryRunRepository) ListRuns(_ context.Context, limit int) ([]*TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*TrainingRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, cloneRun(run))
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// ListEpochs 列出轮次统计
func (r *MemoryRunRepository) ListEpochs(_ context.Context, runID string) ([]*EpochRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*EpochRecord, 0, len(r.epochs[runID]))
	for _, rec := range r.epochs[runID] {
		c := *rec
		out = append(out, &c)
	}
	return out, nil
}

func cloneRun(run *TrainingRun) *TrainingRun {
	c := *run
	c.EpochAverages = append([]float64(nil), run.EpochAverages...)
	if run.CompletedAt != nil {
		t := *run.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// NoopPublisher 不发布事件
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *ProgressEvent) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }

//Personal.AI order the ending
