package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	HTTPPort     string
	Domains      []string
	CertCacheDir string

	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIAPIURL    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicAPIURL string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiAPIURL    string
	GeminiModel     string
	LLMTimeout      time.Duration
	LLMMaxRetries   int
	LLMMaxTokens    int
	LLMTemperature  float64

	Embedder            string
	EmbeddingModel      string
	EmbeddingAPIURL     string
	VectorStore         string
	DatabaseURL         string
	DataDir             string
	ChunkSentences      int
	ChunkOverlap        int
	RetrievalTopK       int
	CandidateMultiplier int
	PromptVariant       string
	PromptFile          string

	AllowedOrigins     []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	RateLimitCleanup   time.Duration
	RateLimitRetention time.Duration

	LogLevel string
	LogDir   string
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	cfg := Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		HTTPPort:     getEnv("HTTP_PORT", "8086"),
		Domains:      getEnvAsList("DOMAIN", []string{"example.com"}),
		CertCacheDir: getEnv("CERT_CACHE_DIR", "../autbot_certs"),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIURL:    getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicAPIURL: getEnv("ANTHROPIC_API_URL", "https://api.anthropic.com/v1/messages"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL:    getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		LLMTimeout:      time.Duration(getEnvAsInt("LLM_TIMEOUT", 30)) * time.Second,
		LLMMaxRetries:   getEnvAsInt("LLM_MAX_RETRIES", 1),
		LLMMaxTokens:    getEnvAsInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature:  getEnvAsFloat("LLM_TEMPERATURE", 0.2),

		Embedder:            strings.ToLower(getEnv("EMBEDDER", "openai")),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingAPIURL:     getEnv("EMBEDDING_API_URL", "https://api.openai.com/v1/embeddings"),
		VectorStore:         strings.ToLower(getEnv("VECTOR_STORE", "memory")),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DataDir:             getEnv("DATA_DIR", "./data"),
		ChunkSentences:      getEnvAsInt("CHUNK_SENTENCES", 5),
		ChunkOverlap:        getEnvAsInt("CHUNK_OVERLAP", 1),
		RetrievalTopK:       getEnvAsInt("RETRIEVAL_TOP_K", 4),
		CandidateMultiplier: getEnvAsInt("RETRIEVAL_CANDIDATE_MULTIPLIER", 2),
		PromptVariant:       getEnv("PROMPT_VARIANT", "default"),
		PromptFile:          getEnv("PROMPT_FILE", ""),

		RateLimitRequests:  getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:    time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW", 3600)) * time.Second,
		RateLimitCleanup:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP_INTERVAL", 600)) * time.Second,
		RateLimitRetention: time.Duration(getEnvAsInt("RATE_LIMIT_RETENTION", 7200)) * time.Second,

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogDir:   getEnv("LOG_DIR", ""),
	}
	cfg.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", defaultOrigins(cfg))
	// The sweep must not outrun the limiting window.
	if cfg.RateLimitRetention < cfg.RateLimitWindow {
		cfg.RateLimitRetention = cfg.RateLimitWindow
	}
	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// LLMConfigured reports whether the selected provider has a credential.
func (c Config) LLMConfigured() bool {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "gemini":
		return c.GeminiAPIKey != ""
	default:
		return c.OpenAIAPIKey != ""
	}
}

func defaultOrigins(c Config) []string {
	if c.IsProduction() {
		origins := make([]string, 0, len(c.Domains))
		for _, d := range c.Domains {
			origins = append(origins, "https://"+d)
		}
		return origins
	}
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
