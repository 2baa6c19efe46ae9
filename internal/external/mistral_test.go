package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteo/internal/advisory"
	"meteo/internal/types"
)

func newTestMistral(serverURL string) *MistralClient {
	return NewMistralClientWithBase(newTestBase(fastPolicy(0)), MistralConfig{
		APIKey:  types.SecretString("mistral-key"),
		BaseURL: serverURL + "/v1",
	})
}

func completionJSON(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"created": 1718620800,
		"model":   "mistral-small",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 80, "total_tokens": 200},
	})
	return string(b)
}

func TestMistral_Complete(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON("  🧥 Prenez une veste.\n")))
	}))
	defer server.Close()

	text, err := newTestMistral(server.URL).Complete(context.Background(), "conseil ?")
	require.NoError(t, err)

	assert.Equal(t, "🧥 Prenez une veste.", text)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer mistral-key", gotAuth)
	assert.Equal(t, "mistral-small", gotBody.Model)
	assert.Equal(t, 500, gotBody.MaxTokens)
	assert.InDelta(t, 0.7, gotBody.Temperature, 1e-6)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "conseil ?", gotBody.Messages[0].Content)
}

func TestMistral_ExplicitZeroTemperatureIsSent(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON("Prenez un pull.")))
	}))
	defer server.Close()

	zero := float32(0)
	client := NewMistralClientWithBase(newTestBase(fastPolicy(0)), MistralConfig{
		APIKey:      types.SecretString("mistral-key"),
		BaseURL:     server.URL + "/v1",
		Temperature: &zero,
	})
	_, err := client.Complete(context.Background(), "conseil ?")
	require.NoError(t, err)

	require.Contains(t, body, "temperature", "a zero temperature must not be dropped")
	assert.InDelta(t, 0, body["temperature"], 1e-6)
}

func TestMistral_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    types.ErrorCode
		failure advisory.FailureKind
	}{
		{"openai style error", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, types.ErrCodeUpstreamBadStatus, advisory.FailureBadResponse},
		{"plain error body", http.StatusUnprocessableEntity, `{"message":"invalid model"}`, types.ErrCodeUpstreamBadStatus, advisory.FailureBadResponse},
		{"server error", http.StatusInternalServerError, `oops`, types.ErrCodeUpstreamBadStatus, advisory.FailureBadResponse},
		{"no choices", http.StatusOK, `{"id":"x","choices":[]}`, types.ErrCodeUpstreamBadResponse, advisory.FailureBadResponse},
		{"blank content", http.StatusOK, completionJSON("   "), types.ErrCodeUpstreamBadResponse, advisory.FailureBadResponse},
		{"not json", http.StatusOK, `<html>`, types.ErrCodeUpstreamBadResponse, advisory.FailureBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestMistral(server.URL).Complete(context.Background(), "p")
			code, ok := types.CodeOf(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, tt.failure, advisory.ClassifyFailure(err))
		})
	}
}

func TestMistral_UnreachableService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestMistral(url).Complete(context.Background(), "p")
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrCodeUpstreamUnreachable, code)
	assert.Equal(t, advisory.FailureUnreachable, advisory.ClassifyFailure(err))
}

func TestMistral_AdvisorFallsBackWithUnreachableNotice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	adv := advisory.NewAdvisor(newTestMistral(url), nil)
	got := adv.Advise(context.Background(), "Paris", types.WeatherSnapshot{
		TemperatureC: 22,
		Description:  "ciel dégagé",
		WindSpeedMs:  2,
		HumidityPct:  50,
		IsDaytime:    true,
	})

	assert.True(t, got.Fallback)
	assert.Equal(t, types.AdviceSourceLocal, got.Source)
	assert.Equal(t, advisory.NoticeUnreachable+advisory.ClothingAdvice(22, "ciel dégagé", 2, 50, true), got.Text)
}

var _ advisory.RemoteClient = (*MistralClient)(nil)
