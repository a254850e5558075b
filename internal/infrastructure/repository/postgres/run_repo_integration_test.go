//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/openeeap/replytune/internal/platform/training"
	"github.com/openeeap/replytune/pkg/errors"
)

// RunRepositoryTestSuite 训练运行仓储集成测试
type RunRepositoryTestSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	db        *gorm.DB
	repo      training.RunRepository
}

func (s *RunRepositoryTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("replytune_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test123"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(s.T(), err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.db, err = Open(s.ctx, DBConfig{DSN: dsn, MaxOpenConns: 4})
	require.NoError(s.T(), err)

	s.repo, err = NewRunRepository(s.db, true)
	require.NoError(s.T(), err)
}

func (s *RunRepositoryTestSuite) TearDownSuite() {
	if s.db != nil {
		Close(s.db)
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

func (s *RunRepositoryTestSuite) SetupTest() {
	s.db.Exec("TRUNCATE TABLE training_runs, training_epochs")
}

func (s *RunRepositoryTestSuite) TestRunLifecycle() {
	started := time.Now().UTC().Truncate(time.Millisecond)
	run := &training.TrainingRun{
		ID:                  "run-1",
		Status:              training.RunStatusRunning,
		Epochs:              2,
		IterationsPerSample: 5,
		Samples:             5,
		SnapshotName:        "politeness-v1",
		StartedAt:           started,
	}
	require.NoError(s.T(), s.repo.CreateRun(s.ctx, run))

	require.NoError(s.T(), s.repo.AddEpoch(s.ctx, &training.EpochRecord{RunID: "run-1", Epoch: 1, AvgReward: 0.3, Samples: 5}))
	require.NoError(s.T(), s.repo.AddEpoch(s.ctx, &training.EpochRecord{RunID: "run-1", Epoch: 2, AvgReward: 0.4, Samples: 5}))

	completed := started.Add(time.Minute)
	run.Status = training.RunStatusCompleted
	run.EpochAverages = []float64{0.3, 0.4}
	run.Episodes = 10
	run.CompletedAt = &completed
	require.NoError(s.T(), s.repo.UpdateRun(s.ctx, run))

	stored, err := s.repo.GetRun(s.ctx, "run-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), training.RunStatusCompleted, stored.Status)
	assert.Equal(s.T(), []float64{0.3, 0.4}, stored.EpochAverages)
	assert.Equal(s.T(), 10, stored.Episodes)
	require.NotNil(s.T(), stored.CompletedAt)

	epochs, err := s.repo.ListEpochs(s.ctx, "run-1")
	require.NoError(s.T(), err)
	require.Len(s.T(), epochs, 2)
	assert.Equal(s.T(), 1, epochs[0].Epoch)
	assert.InDelta(s.T(), 0.4, epochs[1].AvgReward, 1e-9)
}

func (s *RunRepositoryTestSuite) TestListRunsNewestFirst() {
	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(s.T(), s.repo.CreateRun(s.ctx, &training.TrainingRun{
			ID: id, Status: training.RunStatusCompleted, Epochs: 1, IterationsPerSample: 1,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := s.repo.ListRuns(s.ctx, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), runs, 2)
	assert.Equal(s.T(), "c", runs[0].ID)
	assert.Equal(s.T(), "b", runs[1].ID)
}

func (s *RunRepositoryTestSuite) TestMissingRun() {
	_, err := s.repo.GetRun(s.ctx, "missing")
	assert.True(s.T(), errors.Is(err, errors.ErrDBQueryFailed.Code))

	err = s.repo.UpdateRun(s.ctx, &training.TrainingRun{ID: "missing", Status: training.RunStatusFailed})
	assert.Error(s.T(), err)
}

func TestRunRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RunRepositoryTestSuite))
}
