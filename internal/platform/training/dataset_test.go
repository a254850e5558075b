package training

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/replytune/pkg/errors"
)

func TestParseDataset(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
		want []string
	}{
		{"yaml list", ".yaml", "- Can you review my presentation?\n- I need access to the shared drive.\n",
			[]string{"Can you review my presentation?", "I need access to the shared drive."}},
		{"yaml document", ".yml", "emails:\n  - |\n    Anna: hello\n    second line\n  - hi\n",
			[]string{"Anna: hello\nsecond line", "hi"}},
		{"json list", ".json", `["a", "  ", "b"]`, []string{"a", "b"}},
		{"json document", ".JSON", `{"emails": ["When is the next team meeting?"]}`, []string{"When is the next team meeting?"}},
		{"plain text paragraphs", ".txt", "first email\nstill first\n\n\r\nsecond email\n", []string{"first email\nstill first", "second email"}},
		{"no extension", "", "only one", []string{"only one"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDataset(tt.ext, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDataset_Errors(t *testing.T) {
	_, err := ParseDataset(".json", []byte(`{"emails": 3}`))
	assert.True(t, errors.Is(err, errors.ErrTrainInvalidConfig.Code))

	_, err = ParseDataset(".yaml", []byte("emails: []\n"))
	assert.True(t, errors.Is(err, errors.ErrTrainEmptyDataset.Code))

	_, err = ParseDataset(".txt", []byte("\n\n  \n"))
	assert.True(t, errors.Is(err, errors.ErrTrainEmptyDataset.Code))
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emails.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- hello\n"), 0o644))

	got, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, got)

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, errors.ErrTrainInvalidConfig.Code))
}

func TestDefaultDataset(t *testing.T) {
	ds := DefaultDataset()
	require.Len(t, ds, 5)
	assert.Equal(t, "Could you help me with the project deadline?", ds[0])

	ds[0] = "mutated"
	assert.Equal(t, "Could you help me with the project deadline?", DefaultDataset()[0])
}

func TestMemoryRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.CreateRun(ctx, &TrainingRun{ID: id, Status: RunStatusRunning, StartedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	run, err := repo.GetRun(ctx, "b")
	require.NoError(t, err)
	run.Status = RunStatusCompleted
	run.EpochAverages = []float64{0.4, 0.5}
	require.NoError(t, repo.UpdateRun(ctx, run))

	run.EpochAverages[0] = 9
	stored, err := repo.GetRun(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, stored.Status)
	assert.Equal(t, []float64{0.4, 0.5}, stored.EpochAverages)
	assert.Equal(t, 0.5, stored.FinalAverage())

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	require.NoError(t, repo.AddEpoch(ctx, &EpochRecord{RunID: "b", Epoch: 1, AvgReward: 0.4}))
	require.NoError(t, repo.AddEpoch(ctx, &EpochRecord{RunID: "b", Epoch: 2, AvgReward: 0.5}))
	epochs, err := repo.ListEpochs(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, epochs, 2)

	_, err = repo.GetRun(ctx, "missing")
	assert.Error(t, err)
	assert.Error(t, repo.UpdateRun(ctx, &TrainingRun{ID: "missing"}))
}
