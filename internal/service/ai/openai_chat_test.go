package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobadwizard/backend/internal/config"
)

type capturedRequest struct {
	Path          string
	Authorization string
	Model         string
	Messages      []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
}

func makeTestServer(t *testing.T, statusCode int, body any, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.Path = r.URL.Path
			captured.Authorization = r.Header.Get("Authorization")
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			captured.Model = req.Model
			captured.Messages = req.Messages
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func openAIConfig(baseURL, apiKey string) *config.Config {
	return &config.Config{
		Generation: config.GenerationConfig{
			Provider:        config.ProviderOpenAI,
			BreakerFailures: 3,
			BreakerCooldown: time.Second,
		},
		OpenAI: config.OpenAIConfig{
			APIKey:      apiKey,
			BaseURL:     baseURL,
			Model:       "gpt-4o",
			Temperature: 0.7,
		},
	}
}

func TestOpenAIGeneratorSendsPromptThroughChain(t *testing.T) {
	var got capturedRequest
	srv := makeTestServer(t, http.StatusOK, completion("\n<h2><b>Designer</b></h2>\n"), &got)

	gen := NewGenerator(context.Background(), openAIConfig(srv.URL, "test-key"), zap.NewNop())
	out, err := gen.Generate(context.Background(), "write the ad")
	require.NoError(t, err)

	assert.Equal(t, "<h2><b>Designer</b></h2>", out)
	assert.Equal(t, "/chat/completions", got.Path)
	assert.Equal(t, "Bearer test-key", got.Authorization)
	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "write the ad", got.Messages[0].Content)
}

func TestOpenAIGeneratorAuthFailure(t *testing.T) {
	body := map[string]any{"error": map[string]any{"message": "Incorrect API key", "type": "invalid_request_error"}}
	srv := makeTestServer(t, http.StatusUnauthorized, body, nil)

	gen := NewGenerator(context.Background(), openAIConfig(srv.URL, "bad"), zap.NewNop())
	_, err := gen.Generate(context.Background(), "prompt")
	assert.ErrorContains(t, err, "Incorrect API key")
}

func TestOpenAIGeneratorBlankContent(t *testing.T) {
	srv := makeTestServer(t, http.StatusOK, completion("   "), nil)

	gen := NewGenerator(context.Background(), openAIConfig(srv.URL, "k"), zap.NewNop())
	_, err := gen.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIConfigNewChatModelRequiresKey(t *testing.T) {
	_, err := config.OpenAIConfig{BaseURL: "http://127.0.0.1:1", Model: "gpt-4o"}.NewChatModel(context.Background())
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}
