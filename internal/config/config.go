package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	OpenAIKey      string
	OpenAIEndpoint string
	OpenAIModel    string
	DocumentsDir   string
	MaxPromptChars int
	AllowedOrigins []string
	Port           string
}

// Load reads configuration from the environment, providing sensible defaults.
// A missing API key is not fatal: generation routes degrade to errors instead.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	cfg := Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIEndpoint: getEnv("OPENAI_API_ENDPOINT", "https://api.openai.com/v1"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		DocumentsDir:   getEnv("DOCUMENTS_DIR", "./documents"),
		MaxPromptChars: getEnvInt("MAX_PROMPT_CHARS", 40000),
		AllowedOrigins: splitOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		Port:           getEnv("PORT", "8000"),
	}

	if err := os.MkdirAll(cfg.DocumentsDir, 0o755); err != nil {
		log.Fatalf("failed to ensure documents dir %s: %v", cfg.DocumentsDir, err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("ignoring invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return val
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
