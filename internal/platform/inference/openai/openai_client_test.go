package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/trace"
	"github.com/openeeap/replytune/pkg/errors"
)

const okBody = `{
  "id": "chatcmpl-1",
  "model": "gpt-3.5-turbo",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "  Dear team,\n\nSure.  "}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func newTestClient(url string, retries int) *Client {
	return NewClient(logging.NewNoopLogger(), trace.NewNoopTracer(), Config{
		BaseURL:     url,
		APIKey:      "sk-test",
		Timeout:     2 * time.Second,
		MaxRetries:  retries,
		BackoffBase: time.Millisecond,
	})
}

func testRequest() *ChatRequest {
	return &ChatRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    []ChatMessage{{Role: "user", Content: "hello"}},
		Temperature: 0.7,
		MaxTokens:   300,
		TopP:        0.9,
	}
}

func TestCreateChatCompletion_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Equal(t, 300, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL+"/v1/", 0).CreateChatCompletion(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "Dear team,\n\nSure.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, int64(15), resp.TotalTokens)
	assert.Equal(t, "chatcmpl-1", resp.ID)
}

func TestCreateChatCompletion_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL, 2).CreateChatCompletion(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "Dear team,\n\nSure.", resp.Content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCreateChatCompletion_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).CreateChatCompletion(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGenerationFailed.Code))
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreateChatCompletion_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"no choices", `{"choices": []}`},
		{"empty content", `{"choices": [{"message": {"content": "   "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, 2).CreateChatCompletion(context.Background(), testRequest())
			assert.True(t, errors.Is(err, errors.ErrGenerationMalformed.Code))
		})
	}
}

func TestCreateChatCompletion_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL, 2).CreateChatCompletion(ctx, testRequest())
	assert.Error(t, err)
}
