package llm_service

import (
	"context"
	"strconv"
	"time"

	"github.com/serisow/autbot/config"
)

type LLMService interface {
	CallLLM(ctx context.Context, config map[string]interface{}, prompt string) (string, error)
}

// ProviderConfig builds the per-call config map for the provider selected in cfg.
func ProviderConfig(cfg config.Config) map[string]interface{} {
	callConfig := map[string]interface{}{
		"max_retries": cfg.LLMMaxRetries,
		"parameters": map[string]interface{}{
			"max_tokens":  cfg.LLMMaxTokens,
			"temperature": cfg.LLMTemperature,
		},
	}

	switch cfg.LLMProvider {
	case "anthropic":
		callConfig["api_url"] = cfg.AnthropicAPIURL
		callConfig["api_key"] = cfg.AnthropicAPIKey
		callConfig["model_name"] = cfg.AnthropicModel
	case "gemini":
		callConfig["api_url"] = cfg.GeminiAPIURL
		callConfig["api_key"] = cfg.GeminiAPIKey
		callConfig["model_name"] = cfg.GeminiModel
	default:
		callConfig["api_url"] = cfg.OpenAIAPIURL
		callConfig["api_key"] = cfg.OpenAIAPIKey
		callConfig["model_name"] = cfg.OpenAIModel
	}
	return callConfig
}

// Helper function to safely parse float values
func safeParseFloat(value interface{}, defaultValue float64) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return defaultValue
}

func maxTokens(config map[string]interface{}, fallback int) int {
	params, ok := config["parameters"].(map[string]interface{})
	if !ok {
		return fallback
	}
	return int(safeParseFloat(params["max_tokens"], float64(fallback)))
}

func retryDelay(config map[string]interface{}) time.Duration {
	if d, ok := config["retry_delay"].(time.Duration); ok {
		return d
	}
	return 2 * time.Second
}

func stringParam(config map[string]interface{}, key string) (string, bool) {
	v, ok := config[key].(string)
	return v, ok && v != ""
}
