package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/replytune/internal/app/bootstrap"
	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/internal/infrastructure/storage"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/platform/inference/openai"
	"github.com/openeeap/replytune/internal/platform/reward"
	"github.com/openeeap/replytune/internal/platform/training"
)

const fakeContent = "Thank you for your email. I would be happy to help schedule the meeting with the team.\n\nBest regards,"

type fakeChat struct{}

func (fakeChat) CreateChatCompletion(context.Context, *openai.ChatRequest) (*openai.ChatResponse, error) {
	return &openai.ChatResponse{Content: fakeContent, FinishReason: "stop"}, nil
}

type testEnv struct {
	env       *Env
	out       *bytes.Buffer
	repo      *training.MemoryRunRepository
	modelsDir string
}

func newTestEnv(t *testing.T, stdin string) *testEnv {
	t.Helper()
	modelsDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`
training:
  epochs: 2
  iterations_per_sample: 1
  feature_dim: 16
storage:
  local:
    base_path: %s
observability:
  metrics:
    enabled: false
`, modelsDir)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))

	out := &bytes.Buffer{}
	repo := training.NewMemoryRunRepository()
	return &testEnv{
		env: &Env{
			In:         strings.NewReader(stdin),
			Out:        out,
			ConfigFile: configPath,
			NoColor:    true,
			Info:       BuildInfo{Version: "test"},
			AppOptions: []bootstrap.Option{
				bootstrap.WithChatCompleter(fakeChat{}),
				bootstrap.WithLogger(logging.NewNoopLogger()),
				bootstrap.WithRepository(repo),
			},
		},
		out:       out,
		repo:      repo,
		modelsDir: modelsDir,
	}
}

func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return cmd.ExecuteContext(ctx)
}

func TestScoreCmd_Table(t *testing.T) {
	te := newTestEnv(t, "")
	require.NoError(t, run(t, NewScoreCmd(te.env), "Thank", "you,", "happy", "to", "help."))

	out := te.out.String()
	want := reward.NewDefaultRewardModel().Evaluate("Thank you, happy to help.")
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, fmt.Sprintf("%.4f", want.Total))
	assert.Contains(t, out, "Politeness")
	assert.Contains(t, out, "Helpfulness")
	assert.NotContains(t, out, "\x1b[", "colors are disabled")
}

func TestScoreCmd_JSONFromStdin(t *testing.T) {
	text := "Please let me know if I can assist further."
	te := newTestEnv(t, text)
	require.NoError(t, run(t, NewScoreCmd(te.env), "--json"))

	var resp dto.ScoreResponse
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &resp))
	want := reward.NewDefaultRewardModel().Evaluate(text)
	assert.InDelta(t, want.Total, resp.Total, 1e-9)
	assert.Equal(t, want.WordCount, resp.WordCount)
}

func TestReplyCmd_Once(t *testing.T) {
	te := newTestEnv(t, "")
	require.NoError(t, run(t, NewReplyCmd(te.env), "Anna: Could you help me schedule a meeting?"))

	out := te.out.String()
	assert.Contains(t, out, "Dear Anna,")
	assert.Contains(t, out, "happy to help schedule the meeting")
	assert.Contains(t, out, "Status: generated")
	assert.Contains(t, out, "Total")
}

func TestReplyCmd_Interactive(t *testing.T) {
	te := newTestEnv(t, "Could you help?\n\nquit\nnever reached\n")
	require.NoError(t, run(t, NewReplyCmd(te.env)))

	out := te.out.String()
	assert.Contains(t, out, "Type 'quit' to exit.")
	assert.Equal(t, 1, strings.Count(out, "Status: generated"))
	assert.Equal(t, 3, strings.Count(out, "email> "))
	assert.Equal(t, 1, strings.Count(out, "Please enter some text!"))
}

func TestReplyCmd_InteractiveWhitespaceOnly(t *testing.T) {
	te := newTestEnv(t, "   \n\t\n")
	require.NoError(t, run(t, NewReplyCmd(te.env)))

	out := te.out.String()
	assert.Equal(t, 2, strings.Count(out, "Please enter some text!"))
	assert.NotContains(t, out, "Status:")
}

func TestTrainCmd(t *testing.T) {
	te := newTestEnv(t, "")
	datasetPath := filepath.Join(t.TempDir(), "emails.yaml")
	require.NoError(t, os.WriteFile(datasetPath, []byte("emails:\n  - Can you review my slides?\n  - When is lunch?\n"), 0o600))

	require.NoError(t, run(t, NewTrainCmd(te.env), "--dataset", datasetPath, "--epochs", "1", "--snapshot", "cli_model"))

	out := te.out.String()
	assert.Contains(t, out, "Training on 2 emails, 1 epochs, 1 iterations per sample")
	assert.Contains(t, out, "completed")
	assert.FileExists(t, filepath.Join(te.modelsDir, storage.ObjectKey("cli_model")))

	runs, err := te.repo.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].EpochAverages, 1)
	assert.Equal(t, 2, runs[0].Samples)
}

func TestTrainCmd_MissingDataset(t *testing.T) {
	te := newTestEnv(t, "")
	err := run(t, NewTrainCmd(te.env), "--dataset", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestReplyCmd_WithTrainedPolicy(t *testing.T) {
	te := newTestEnv(t, "")
	require.NoError(t, run(t, NewTrainCmd(te.env), "--epochs", "1"))

	te.out.Reset()
	require.NoError(t, run(t, NewReplyCmd(te.env), "--policy", "fine_tuned_email_model", "When is the meeting?"))
	assert.Contains(t, te.out.String(), "Status: generated")

	err := run(t, NewReplyCmd(te.env), "--policy", "unknown_model", "hello")
	assert.Error(t, err)
}

func TestDemoCmd(t *testing.T) {
	te := newTestEnv(t, "")
	require.NoError(t, run(t, NewDemoCmd(te.env)))

	out := te.out.String()
	assert.Contains(t, out, DemoEmail)
	assert.Contains(t, out, "=== Before fine-tuning ===")
	assert.Contains(t, out, "Fine-tuning on 5 emails for 2 epochs")
	assert.Contains(t, out, "=== After fine-tuning ===")
	assert.Contains(t, out, "Total score change: +0.0000")
	assert.FileExists(t, filepath.Join(te.modelsDir, storage.ObjectKey(DemoSnapshotName)))
}

func TestReportCmd(t *testing.T) {
	te := newTestEnv(t, "")
	reportPath := filepath.Join(t.TempDir(), "out", "report.html")

	err := run(t, NewReportCmd(te.env), "--out", reportPath)
	require.Error(t, err, "no runs recorded yet")

	require.NoError(t, run(t, NewTrainCmd(te.env)))
	require.NoError(t, run(t, NewReportCmd(te.env), "--out", reportPath, "--runs", "3"))

	html, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Average reward per epoch")
	assert.Contains(t, te.out.String(), "Rendered 1 runs")
}

func TestRenderReport(t *testing.T) {
	runs := []*training.TrainingRun{
		{ID: "9f1c2d3e-aaaa", Status: training.RunStatusCompleted, EpochAverages: []float64{0.31, 0.35, 0.36}},
		{ID: "short", Status: training.RunStatusCancelled, EpochAverages: []float64{0.2}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, runs))
	html := buf.String()
	assert.Contains(t, html, "replytune training report")
	assert.Contains(t, html, "9f1c2d3e (completed)")
	assert.Contains(t, html, "short (cancelled)")
}

func TestTextFromArgs(t *testing.T) {
	text, err := textFromArgs([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a b", text)

	text, err = textFromArgs(nil, strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)

	_, err = textFromArgs(nil, nil)
	assert.Error(t, err)
}

//Personal.AI order the ending
