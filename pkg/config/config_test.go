package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/replytune/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv(openAIKeyEnv, "sk-test")

	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 1e-5, cfg.Training.LearningRate)
	assert.Equal(t, 0.2, cfg.Training.Epsilon)
	assert.Equal(t, 0.99, cfg.Training.Gamma)
	assert.Equal(t, 0.95, cfg.Training.Lambda)
	assert.Equal(t, 5, cfg.Training.IterationsPerSample)
	assert.Equal(t, 3, cfg.Training.Epochs)
	assert.False(t, cfg.Training.PerTokenReward)
	assert.Equal(t, "fine_tuned_email_model", cfg.Training.SnapshotName)

	assert.Equal(t, "gpt-3.5-turbo", cfg.Generator.Model)
	assert.Equal(t, 0.7, cfg.Generator.Temperature)
	assert.Equal(t, 300, cfg.Generator.MaxTokens)
	assert.Equal(t, 0.9, cfg.Generator.TopP)
	assert.Equal(t, 30*time.Second, cfg.Generator.Timeout)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "local", cfg.Storage.Provider)

	assert.False(t, cfg.Reward.Cache.Enabled)
	assert.Zero(t, cfg.Reward.Cache.LocalSize)
	assert.Equal(t, "replytune:score", cfg.Reward.Cache.KeyPrefix)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
training:
  epochs: 7
  per_token_reward: true
generator:
  timeout: 5s
openai:
  api_key: sk-file
`)
	t.Setenv("REPLYTUNE_TRAINING_ITERATIONS_PER_SAMPLE", "2")
	t.Setenv(openAIKeyEnv, "sk-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Training.Epochs)
	assert.True(t, cfg.Training.PerTokenReward)
	assert.Equal(t, 2, cfg.Training.IterationsPerSample)
	assert.Equal(t, 5*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey, "file value wins over the OPENAI_API_KEY fallback")
}

func TestLoad_InvalidTraining(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"epsilon at one", "training:\n  epsilon: 1.0\n"},
		{"gamma zero", "training:\n  gamma: 0\n"},
		{"no iterations", "training:\n  iterations_per_sample: 0\n"},
		{"snapshot escapes directory", "training:\n  snapshot_name: ../x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrTrainInvalidConfig.Code))
		})
	}
}

func TestLoad_DependentSections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"kafka without topic", "kafka:\n  enabled: true\n  topic: \"\"\n", "kafka.topic"},
		{"minio without endpoint", "storage:\n  provider: minio\n", "storage.minio"},
		{"tracing without provider", "observability:\n  tracing:\n    enabled: true\n", "tracing.provider"},
		{"unknown storage", "storage:\n  provider: s3\n", "storage.provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrSysConfigurationError.Code))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "observability:\n  logging:\n    level: info\n")

	loader := NewLoader(LoaderOptions{ConfigFile: path})
	_, err := loader.Load()
	require.NoError(t, err)

	var seen string
	loader.OnReload(func(oldConfig, newConfig *Config) error {
		seen = oldConfig.Observability.Logging.Level + "->" + newConfig.Observability.Logging.Level
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("observability:\n  logging:\n    level: debug\n"), 0o600))
	require.NoError(t, loader.viper.ReadInConfig())
	require.NoError(t, loader.reload())

	assert.Equal(t, "info->debug", seen)
	assert.Equal(t, "debug", loader.Get().Observability.Logging.Level)
}

func TestDatabaseDSN(t *testing.T) {
	dc := DatabaseConfig{Host: "db", Port: 5432, Username: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", dc.DSN())
}
