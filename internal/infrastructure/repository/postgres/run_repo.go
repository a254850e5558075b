package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/openeeap/replytune/internal/platform/training"
	"github.com/openeeap/replytune/pkg/errors"
)

// TrainingRunModel 训练运行数据库模型
type TrainingRunModel struct {
	ID                  string     `gorm:"primaryKey;type:varchar(64)"`
	Status              string     `gorm:"type:varchar(20);not null;index"`
	Epochs              int        `gorm:"not null"`
	IterationsPerSample int        `gorm:"not null"`
	Samples             int        `gorm:"not null"`
	PerTokenReward      bool       `gorm:"default:false"`
	SnapshotName        string     `gorm:"type:varchar(128);index"`
	SnapshotLocation    string     `gorm:"type:varchar(512)"`
	EpochAverages       string     `gorm:"type:jsonb"` // JSON 数组存储每轮平均奖励
	Episodes            int        `gorm:"default:0"`
	Fallbacks           int        `gorm:"default:0"`
	ErrorMessage        string     `gorm:"type:text"`
	StartedAt           time.Time  `gorm:"not null;index"`
	CompletedAt         *time.Time `gorm:"index"`
	CreatedAt           time.Time  `gorm:"not null"`
	UpdatedAt           time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (TrainingRunModel) TableName() string {
	return "training_runs"
}

// TrainingEpochModel 训练轮次数据库模型
type TrainingEpochModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	RunID     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_run_epoch"`
	Epoch     int       `gorm:"not null;uniqueIndex:idx_run_epoch"`
	AvgReward float64   `gorm:"not null"`
	Samples   int       `gorm:"not null"`
	Fallbacks int       `gorm:"default:0"`
	MeanLoss  float64   `gorm:"default:0"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (TrainingEpochModel) TableName() string {
	return "training_epochs"
}

// runRepo 训练运行 PostgreSQL 仓储实现
type runRepo struct {
	db *gorm.DB
}

// NewRunRepository 创建训练运行仓储
func NewRunRepository(db *gorm.DB, autoMigrate bool) (training.RunRepository, error) {
	if db == nil {
		return nil, errors.NewFromCodef(errors.ErrSysConfigurationError, "database connection cannot be nil")
	}

	// 自动迁移表结构
	if autoMigrate {
		if err := db.AutoMigrate(&TrainingRunModel{}, &TrainingEpochModel{}); err != nil {
			return nil, errors.WrapFromCode(err, errors.ErrDBQueryFailed)
		}
	}

	return &runRepo{db: db}, nil
}

// CreateRun 创建运行记录
func (r *runRepo) CreateRun(ctx context.Context, run *training.TrainingRun) error {
	dbModel, err := toRunModel(run)
	if err != nil {
		return errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}

	if err := r.db.WithContext(ctx).Create(dbModel).Error; err != nil {
		return errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}
	return nil
}

// UpdateRun 更新运行记录
func (r *runRepo) UpdateRun(ctx context.Context, run *training.TrainingRun) error {
	dbModel, err := toRunModel(run)
	if err != nil {
		return errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}

	result := r.db.WithContext(ctx).
		Model(&TrainingRunModel{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":            dbModel.Status,
			"samples":           dbModel.Samples,
			"snapshot_location": dbModel.SnapshotLocation,
			"epoch_averages":    dbModel.EpochAverages,
			"episodes":          dbModel.Episodes,
			"fallbacks":         dbModel.Fallbacks,
			"error_message":     dbModel.ErrorMessage,
			"completed_at":      dbModel.CompletedAt,
		})
	if result.Error != nil {
		return errors.WrapFromCode(result.Error, errors.ErrDBQueryFailed)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError(errors.ErrDBQueryFailed.Code, "training run not found: "+run.ID)
	}
	return nil
}

// AddEpoch 追加轮次统计
func (r *runRepo) AddEpoch(ctx context.Context, record *training.EpochRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	dbModel := &TrainingEpochModel{
		RunID:     record.RunID,
		Epoch:     record.Epoch,
		AvgReward: record.AvgReward,
		Samples:   record.Samples,
		Fallbacks: record.Fallbacks,
		MeanLoss:  record.MeanLoss,
		CreatedAt: createdAt,
	}
	if err := r.db.WithContext(ctx).Create(dbModel).Error; err != nil {
		return errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}
	return nil
}

// GetRun 获取运行记录
func (r *runRepo) GetRun(ctx context.Context, id string) (*training.TrainingRun, error) {
	var dbModel TrainingRunModel
	if err := r.db.WithContext(ctx).First(&dbModel, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(errors.ErrDBQueryFailed.Code, "training run not found: "+id)
		}
		return nil, errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}
	return toRunEntity(&dbModel)
}

// ListRuns 按开始时间倒序列出
func (r *runRepo) ListRuns(ctx context.Context, limit int) ([]*training.TrainingRun, error) {
	query := r.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dbModels []TrainingRunModel
	if err := query.Find(&dbModels).Error; err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}

	runs := make([]*training.TrainingRun, 0, len(dbModels))
	for i := range dbModels {
		run, err := toRunEntity(&dbModels[i])
		if err != nil {
			return nil, errors.WrapFromCode(err, errors.ErrDBQueryFailed)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ListEpochs 列出轮次统计
func (r *runRepo) ListEpochs(ctx context.Context, runID string) ([]*training.EpochRecord, error) {
	var dbModels []TrainingEpochModel
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("epoch ASC").Find(&dbModels).Error; err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrDBQueryFailed)
	}

	records := make([]*training.EpochRecord, 0, len(dbModels))
	for _, m := range dbModels {
		records = append(records, &training.EpochRecord{
			RunID:     m.RunID,
			Epoch:     m.Epoch,
			AvgReward: m.AvgReward,
			Samples:   m.Samples,
			Fallbacks: m.Fallbacks,
			MeanLoss:  m.MeanLoss,
			CreatedAt: m.CreatedAt,
		})
	}
	return records, nil
}

func toRunModel(run *training.TrainingRun) (*TrainingRunModel, error) {
	averages := run.EpochAverages
	if averages == nil {
		averages = []float64{}
	}
	encoded, err := json.Marshal(averages)
	if err != nil {
		return nil, err
	}

	return &TrainingRunModel{
		ID:                  run.ID,
		Status:              string(run.Status),
		Epochs:              run.Epochs,
		IterationsPerSample: run.IterationsPerSample,
		Samples:             run.Samples,
		PerTokenReward:      run.PerTokenReward,
		SnapshotName:        run.SnapshotName,
		SnapshotLocation:    run.SnapshotLocation,
		EpochAverages:       string(encoded),
		Episodes:            run.Episodes,
		Fallbacks:           run.Fallbacks,
		ErrorMessage:        run.ErrorMessage,
		StartedAt:           run.StartedAt,
		CompletedAt:         run.CompletedAt,
	}, nil
}

func toRunEntity(m *TrainingRunModel) (*training.TrainingRun, error) {
	var averages []float64
	if m.EpochAverages != "" {
		if err := json.Unmarshal([]byte(m.EpochAverages), &averages); err != nil {
			return nil, err
		}
	}

	return &training.TrainingRun{
		ID:                  m.ID,
		Status:              training.RunStatus(m.Status),
		Epochs:              m.Epochs,
		IterationsPerSample: m.IterationsPerSample,
		Samples:             m.Samples,
		PerTokenReward:      m.PerTokenReward,
		SnapshotName:        m.SnapshotName,
		SnapshotLocation:    m.SnapshotLocation,
		EpochAverages:       averages,
		Episodes:            m.Episodes,
		Fallbacks:           m.Fallbacks,
		ErrorMessage:        m.ErrorMessage,
		StartedAt:           m.StartedAt,
		CompletedAt:         m.CompletedAt,
	}, nil
}

//Personal.AI order the ending
