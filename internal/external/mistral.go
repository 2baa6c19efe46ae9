package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"meteo/internal/types"
)

const (
	mistralAPIBase       = "https://api.mistral.ai/v1"
	mistralDefaultModel  = "mistral-small"
	mistralDefaultTokens = 500
)

const mistralDefaultTemperature float32 = 0.7

// MistralConfig holds the configuration for a MistralClient.
type MistralConfig struct {
	APIKey      types.SecretString
	BaseURL     string // defaults to mistralAPIBase
	Model       string // defaults to mistral-small
	MaxTokens   int
	Temperature *float32 // nil means 0.7
	Logger      *slog.Logger
}

// MistralClient generates advice text through Mistral's OpenAI-compatible
// chat completions endpoint. Requests are sent through a BaseClient so the
// remote advisor gets the same breaker and retry behavior as the weather API.
type MistralClient struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *slog.Logger
}

// NewMistralClient creates a client with its own breaker. Failed completions
// are not retried.
func NewMistralClient(httpClient *http.Client, cfg MistralConfig) *MistralClient {
	base := NewBaseClient(
		httpClient,
		"mistral",
		RetryPolicy{
			MaxRetries: 0,
			MinWait:    time.Second,
			MaxWait:    5 * time.Second,
		},
		"Meteo/1.0",
	)
	return NewMistralClientWithBase(base, cfg)
}

// NewMistralClientWithBase creates a client around a pre-configured BaseClient.
func NewMistralClientWithBase(base *BaseClient, cfg MistralConfig) *MistralClient {
	oc := openai.DefaultConfig(cfg.APIKey.Unmask())
	oc.BaseURL = mistralAPIBase
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	oc.HTTPClient = base

	model := cfg.Model
	if model == "" {
		model = mistralDefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = mistralDefaultTokens
	}
	temperature := mistralDefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	// go-openai omits a zero temperature from the request body, which would
	// leave the provider's default in place.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MistralClient{
		api:         openai.NewClientWithConfig(oc),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Complete sends prompt as a single user message and returns the trimmed
// content of the first choice. Errors are *types.AppError: upstream_unreachable
// or upstream_circuit_open when the service could not be contacted,
// upstream_bad_status or upstream_bad_response when it answered badly.
func (c *MistralClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.mapError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", types.NewAppError(
			types.ErrCodeUpstreamBadResponse,
			"advisor returned no choices",
			nil,
		)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", types.NewAppError(
			types.ErrCodeUpstreamBadResponse,
			"advisor returned empty content",
			nil,
		)
	}

	c.logger.InfoContext(ctx, "remote advice generated",
		"model", c.model,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (c *MistralClient) mapError(ctx context.Context, err error) error {
	// BaseClient already produced a classified error.
	if appErr, ok := asAppError(err); ok {
		return types.NewAppErrorWithDetails(
			appErr.Code,
			"advisor: "+appErr.Message,
			appErr.Err,
			appErr.Details,
		)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		c.logger.WarnContext(ctx, "advisor API error",
			"status_code", apiErr.HTTPStatusCode,
			"message", apiErr.Message,
		)
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamBadStatus,
			fmt.Sprintf("advisor returned %d", apiErr.HTTPStatusCode),
			err,
			map[string]any{"status": apiErr.HTTPStatusCode},
		)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamBadStatus,
			fmt.Sprintf("advisor returned %d", reqErr.HTTPStatusCode),
			err,
			map[string]any{"status": reqErr.HTTPStatusCode},
		)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return types.NewAppError(types.ErrCodeUpstreamUnreachable, "advisor unreachable", err)
	}

	// What remains is a 2xx body the SDK could not decode.
	return types.NewAppError(
		types.ErrCodeUpstreamBadResponse,
		"failed to decode advisor response",
		err,
	)
}
