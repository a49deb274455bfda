package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type AnthropicService struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewAnthropicService(logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
}

func (s *AnthropicService) CallLLM(ctx context.Context, config map[string]interface{}, prompt string) (string, error) {
	return callWithRetries(ctx, s.logger, "Anthropic", config, func() (string, error) {
		return s.callAnthropic(ctx, config, prompt)
	})
}

func (s *AnthropicService) callAnthropic(ctx context.Context, config map[string]interface{}, prompt string) (string, error) {
	apiURL, ok := stringParam(config, "api_url")
	if !ok {
		return "", fmt.Errorf("api_url not found in config")
	}

	apiKey, ok := stringParam(config, "api_key")
	if !ok {
		return "", fmt.Errorf("api_key not found in config")
	}

	modelName, ok := stringParam(config, "model_name")
	if !ok {
		return "", fmt.Errorf("model_name not found in config")
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": modelName,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": maxTokens(config, 1000),
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newHTTPError("Anthropic", resp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}

	content, ok := result["content"].([]interface{})
	if !ok || len(content) == 0 {
		return "", fmt.Errorf("unexpected response format from Anthropic API")
	}

	message, ok := content[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected message format in Anthropic API response")
	}

	text, ok := message["text"].(string)
	if !ok {
		return "", fmt.Errorf("text not found in Anthropic API response")
	}

	return text, nil
}
