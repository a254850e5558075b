package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/pkg/errors"
)

func TestLocalSink_SaveLoad(t *testing.T) {
	base := t.TempDir()
	sink := NewLocalSink(base, logging.NewNoopLogger())
	ctx := context.Background()

	location, err := sink.Save(ctx, "fine_tuned_email_model", []byte(`{"version":1}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "fine_tuned_email_model", "policy.json"), location)

	data, err := sink.Load(ctx, "fine_tuned_email_model")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(data))

	// overwrite keeps a single file
	_, err = sink.Save(ctx, "fine_tuned_email_model", []byte(`{"version":2}`))
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(base, "fine_tuned_email_model"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalSink_Errors(t *testing.T) {
	sink := NewLocalSink(t.TempDir(), logging.NewNoopLogger())
	ctx := context.Background()

	_, err := sink.Load(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrStorageNotFound.Code))

	for _, name := range []string{"", "../escape", "a/b", ".hidden", "x..y"} {
		_, err := sink.Save(ctx, name, []byte("{}"))
		assert.Error(t, err, name)
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "fine_tuned_email_model/policy.json", ObjectKey("fine_tuned_email_model"))
}
