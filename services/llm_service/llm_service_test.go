package llm_service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serisow/autbot/config"
	"github.com/serisow/autbot/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) map[string]interface{} {
	return map[string]interface{}{
		"api_url":     url,
		"api_key":     "test-key",
		"model_name":  "test-model",
		"max_retries": 1,
		"retry_delay": time.Millisecond,
		"parameters": map[string]interface{}{
			"max_tokens":  256,
			"temperature": 0.2,
		},
	}
}

func TestOpenAIService_CallLLM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.Equal(t, float64(256), body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Automattic"}}]}`))
	}))
	defer server.Close()

	svc := NewOpenAIService(logging.Discard())
	got, err := svc.CallLLM(context.Background(), testConfig(server.URL), "Where did Autumn work last?")

	require.NoError(t, err)
	assert.Equal(t, "Automattic", got)
}

func TestOpenAIService_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error":{"message":"upstream","type":"server_error"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	svc := NewOpenAIService(logging.Discard())
	got, err := svc.CallLLM(context.Background(), testConfig(server.URL), "hi")

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIService_QuotaErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`))
	}))
	defer server.Close()

	svc := NewOpenAIService(logging.Discard())
	_, err := svc.CallLLM(context.Background(), testConfig(server.URL), "hi")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, "insufficient_quota", httpErr.ErrorType)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAIService_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg["max_retries"] = 2

	svc := NewOpenAIService(logging.Discard())
	_, err := svc.CallLLM(context.Background(), cfg, "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenAIService_StopsOnCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg["retry_delay"] = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	svc := NewOpenAIService(logging.Discard())
	_, err := svc.CallLLM(ctx, cfg, "hi")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestOpenAIService_MissingKey(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg["api_key"] = ""
	cfg["max_retries"] = 0

	svc := NewOpenAIService(logging.Discard())
	_, err := svc.CallLLM(context.Background(), cfg, "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key not found")
}

func TestAnthropicService_CallLLM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		w.Write([]byte(`{"content":[{"type":"text","text":"Product Engineering Lead"}]}`))
	}))
	defer server.Close()

	svc := NewAnthropicService(logging.Discard())
	got, err := svc.CallLLM(context.Background(), testConfig(server.URL), "role?")

	require.NoError(t, err)
	assert.Equal(t, "Product Engineering Lead", got)
}

func TestGeminiService_CallLLM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello from gemini"}]}}]}`))
	}))
	defer server.Close()

	svc := NewGeminiService(logging.Discard())
	got, err := svc.CallLLM(context.Background(), testConfig(server.URL), "hi")

	require.NoError(t, err)
	assert.Equal(t, "hello from gemini", got)
}

func TestGeminiService_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	svc := NewGeminiService(logging.Discard())
	_, err := svc.CallLLM(context.Background(), testConfig(server.URL), "hi")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "PERMISSION_DENIED", httpErr.ErrorType)
	assert.Equal(t, "API key not valid", httpErr.Message)
}

func TestProviderConfig(t *testing.T) {
	cfg := config.Config{
		LLMProvider:     "anthropic",
		AnthropicAPIKey: "ak",
		AnthropicAPIURL: "https://anthropic.test",
		AnthropicModel:  "claude",
		OpenAIAPIKey:    "sk",
		LLMMaxRetries:   2,
		LLMMaxTokens:    512,
		LLMTemperature:  0.5,
	}

	got := ProviderConfig(cfg)

	assert.Equal(t, "ak", got["api_key"])
	assert.Equal(t, "https://anthropic.test", got["api_url"])
	assert.Equal(t, "claude", got["model_name"])
	assert.Equal(t, 2, got["max_retries"])
	assert.Equal(t, 512, maxTokens(got, 0))
	assert.Equal(t, 0.5, got["parameters"].(map[string]interface{})["temperature"])

	cfg.LLMProvider = "openai"
	assert.Equal(t, "sk", ProviderConfig(cfg)["api_key"])
}

func TestMockLLMService_RecordsPrompts(t *testing.T) {
	mock := &MockLLMService{}
	got, err := mock.CallLLM(context.Background(), nil, "first")

	require.NoError(t, err)
	assert.Equal(t, "mock response", got)
	assert.Equal(t, []string{"first"}, mock.Prompts())
}
