package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string  `mapstructure:"snapshot_name" validate:"required,snapshot_name"`
	Epsilon float64 `mapstructure:"epsilon" validate:"gte=0,lt=1"`
	Text    string  `json:"text" validate:"not_blank"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{
			name: "valid",
			in:   sample{Name: "fine_tuned_email_model", Epsilon: 0.2, Text: "hi"},
		},
		{
			name:    "path traversal rejected",
			in:      sample{Name: "../etc", Epsilon: 0.2, Text: "hi"},
			wantErr: "snapshot_name must be a single path segment",
		},
		{
			name:    "epsilon upper bound",
			in:      sample{Name: "ok", Epsilon: 1, Text: "hi"},
			wantErr: "epsilon must be less than 1",
		},
		{
			name:    "blank text",
			in:      sample{Name: "ok", Epsilon: 0.2, Text: "   "},
			wantErr: "text is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFormattedValidationError_Fields(t *testing.T) {
	err := New().Validate(&sample{Epsilon: -1, Text: "x"})
	require.Error(t, err)

	formatted, ok := err.(*FormattedValidationError)
	require.True(t, ok)
	require.Len(t, formatted.Errors, 2)
	assert.Equal(t, "snapshot_name", formatted.Errors[0].Field)
	assert.Equal(t, "required", formatted.Errors[0].Tag)
	assert.Equal(t, "epsilon", formatted.Errors[1].Field)
}

func TestValidateVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateVar("https://api.openai.com/v1", "url"))
	assert.Error(t, v.ValidateVar("not a url", "url"))
}
