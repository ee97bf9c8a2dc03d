package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"timesheet-ai/internal/llm"
	"timesheet-ai/internal/storage"
	"timesheet-ai/internal/timesheet"
)

// Config holds all configuration for the application.
type Config struct {
	LLMProvider        string
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	LLMTimeout         time.Duration
	LLMAutoload        bool
	EmbeddingBaseURL   string
	EmbeddingModelName string
	QdrantURL          string
	QdrantCollection   string
	QdrantVectorSize   int
	DBPath             string
	SessionTTL         time.Duration
	APIPort            string
	LogLevel           slog.Level
	LogFormat          string

	// Settings are the processing defaults used when a request or profile
	// does not override them.
	Settings timesheet.Settings
}

// MemoryEnabled reports whether activity memory is configured.
func (c *Config) MemoryEnabled() bool {
	return c.QdrantURL != "" && c.EmbeddingBaseURL != ""
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	// Walk up towards the project root looking for a .env file
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", llm.ProviderLocal)),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		QdrantURL:          getEnv("QDRANT_URL", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "activities"),
		DBPath:             getEnv("DB_PATH", storage.MemoryPath),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	switch cfg.LLMProvider {
	case llm.ProviderOpenAI:
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required for provider %q", llm.ProviderOpenAI)
		}
	case llm.ProviderLocal, llm.ProviderOffline:
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be one of %s, %s, %s", llm.ProviderOpenAI, llm.ProviderLocal, llm.ProviderOffline)
	}

	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", llm.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.LLMAutoload, err = getBool("LLM_AUTOLOAD", false); err != nil {
		return nil, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	// The vector size must match the output of the embeddings model; it is
	// only needed when activity memory is enabled.
	if cfg.MemoryEnabled() {
		vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
		if vectorSizeStr == "" {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required when QDRANT_URL and EMBEDDING_BASE_URL are set")
		}
		vectorSize, err := strconv.Atoi(vectorSizeStr)
		if err != nil {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
		}
		if vectorSize <= 0 {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
		}
		cfg.QdrantVectorSize = vectorSize
	}

	if cfg.Settings, err = loadSettings(); err != nil {
		return nil, err
	}

	// Create the data directory for file databases
	if !storage.IsMemory(cfg.DBPath) {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// loadSettings reads the processing defaults.
func loadSettings() (timesheet.Settings, error) {
	s := timesheet.DefaultSettings()
	var err error

	if s.MaxChunkMinutes, err = getInt("MAX_CHUNK_MINUTES", s.MaxChunkMinutes); err != nil {
		return s, err
	}
	if s.MinWordsSplit, err = getInt("MIN_WORDS_SPLIT", s.MinWordsSplit); err != nil {
		return s, err
	}
	if s.IgnoreMeetings, err = getBool("IGNORE_MEETINGS", s.IgnoreMeetings); err != nil {
		return s, err
	}
	if s.FillGaps, err = getBool("FILL_GAPS", s.FillGaps); err != nil {
		return s, err
	}
	s.WorkStart = getEnv("WORK_START", s.WorkStart)
	s.WorkEnd = getEnv("WORK_END", s.WorkEnd)
	if v := getEnv("AI_CREATIVITY", ""); v != "" {
		if s.Creativity, err = strconv.ParseFloat(v, 64); err != nil {
			return s, fmt.Errorf("AI_CREATIVITY must be a number: %w", err)
		}
	}

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid processing defaults: %w", err)
	}
	return s, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}
