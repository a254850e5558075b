// Package openai provides a chat-completions client used as the reply
// generation backend. It rate limits outgoing calls on the client side and
// retries transient failures.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/observability/trace"
	"github.com/openeeap/replytune/pkg/errors"
)

const (
	// DefaultBaseURL is the public OpenAI API root
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultTimeout     = 30 * time.Second
	defaultBackoffBase = 500 * time.Millisecond
	maxErrorBodyBytes  = 4096
)

// Client is a minimal chat-completions client
type Client struct {
	logger      logging.Logger
	tracer      trace.Tracer
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
	apiKey      string
	orgID       string
	maxRetries  int
	backoffBase time.Duration
}

// Config contains configuration for the client
type Config struct {
	BaseURL           string
	APIKey            string
	OrganizationID    string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
	BackoffBase       time.Duration
}

// ChatMessage is one message of a chat conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat-completions API
type ChatRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

// ChatResponse holds the fields of a completion the generator needs
type ChatResponse struct {
	ID           string
	Model        string
	Content      string
	FinishReason string
	TotalTokens  int64
}

// NewClient creates a new chat-completions client
func NewClient(logger logging.Logger, tracer trace.Tracer, config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.BackoffBase == 0 {
		config.BackoffBase = defaultBackoffBase
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		logger:      logger,
		tracer:      tracer,
		httpClient:  &http.Client{Timeout: config.Timeout},
		limiter:     rate.NewLimiter(limit, burst),
		baseURL:     strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:      config.APIKey,
		orgID:       config.OrganizationID,
		maxRetries:  config.MaxRetries,
		backoffBase: config.BackoffBase,
	}
}

// statusError is a non-2xx answer from the API
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai returned status %d: %s", e.status, e.message)
}

// CreateChatCompletion sends a chat request and returns the first choice
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	ctx, span := c.tracer.Start(ctx, "OpenAIClient.CreateChatCompletion", trace.SpanKindClient())
	defer span.End()

	startTime := time.Now()
	endpoint := c.baseURL + "/chat/completions"

	var resp *ChatResponse
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithContext(ctx).Info("retrying chat completion",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
			if waitErr := c.backoff(ctx, attempt); waitErr != nil {
				err = waitErr
				break
			}
		}

		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			trace.RecordSpanError(ctx, waitErr)
			return nil, errors.WrapFromCode(waitErr, errors.ErrGenerationRateLimited)
		}

		resp, err = c.doChat(ctx, endpoint, req)
		if err == nil {
			break
		}
		if !c.isRetryableError(ctx, err) {
			break
		}
	}

	if err != nil {
		trace.RecordSpanError(ctx, err)
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr
		}
		return nil, errors.WrapFromCode(err, errors.ErrGenerationFailed)
	}

	trace.SetSpanAttributes(ctx,
		trace.StringAttr("openai.model", resp.Model),
		trace.IntAttr("openai.total_tokens", int(resp.TotalTokens)),
	)
	c.logger.WithContext(ctx).Debug("chat completion finished",
		logging.String("model", resp.Model),
		logging.Int64("tokens", resp.TotalTokens),
		logging.Duration("latency", time.Since(startTime)),
	)

	return resp, nil
}

// doChat performs a single request
func (c *Client) doChat(ctx context.Context, endpoint string, req *ChatRequest) (*ChatResponse, error) {
	httpReq, err := c.buildRequest(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := gjson.GetBytes(body, "error.message").String()
		if message == "" {
			message = truncate(string(body), maxErrorBodyBytes)
		}
		return nil, &statusError{status: resp.StatusCode, message: message}
	}

	return parseChatResponse(body)
}

func parseChatResponse(body []byte) (*ChatResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.NewFromCodef(errors.ErrGenerationMalformed, "invalid JSON body")
	}

	result := gjson.ParseBytes(body)
	choice := result.Get("choices.0")
	if !choice.Exists() {
		return nil, errors.NewFromCodef(errors.ErrGenerationMalformed, "no choices")
	}

	content := strings.TrimSpace(choice.Get("message.content").String())
	if content == "" {
		return nil, errors.NewFromCodef(errors.ErrGenerationMalformed, "empty message content")
	}

	return &ChatResponse{
		ID:           result.Get("id").String(),
		Model:        result.Get("model").String(),
		Content:      content,
		FinishReason: choice.Get("finish_reason").String(),
		TotalTokens:  result.Get("usage.total_tokens").Int(),
	}, nil
}

// buildRequest builds an HTTP request with proper headers and body
func (c *Client) buildRequest(ctx context.Context, endpoint string, body interface{}) (*http.Request, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.orgID != "" {
		req.Header.Set("OpenAI-Organization", c.orgID)
	}

	return req, nil
}

// isRetryableError retries transport failures, 429 and 5xx answers
func (c *Client) isRetryableError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if _, ok := err.(*errors.AppError); ok {
		return false
	}
	if se, ok := err.(*statusError); ok {
		return se.status == http.StatusTooManyRequests || se.status >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * c.backoffBase)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

//Personal.AI order the ending
