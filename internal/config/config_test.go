package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"timesheet-ai/internal/storage"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"LLM_PROVIDER", "LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL", "LLM_TIMEOUT", "LLM_AUTOLOAD",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
	"QDRANT_URL", "QDRANT_COLLECTION", "QDRANT_VECTOR_SIZE",
	"DB_PATH", "SESSION_TTL", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	"MAX_CHUNK_MINUTES", "MIN_WORDS_SPLIT", "IGNORE_MEETINGS", "FILL_GAPS",
	"WORK_START", "WORK_END", "AI_CREATIVITY",
}

// isolateEnv clears every configuration variable and moves into an empty
// directory so no .env file is picked up. Both are restored on cleanup.
func isolateEnv(t *testing.T) {
	t.Helper()

	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	originalWd, _ := os.Getwd()
	_ = os.Chdir(t.TempDir())

	t.Cleanup(func() {
		_ = os.Chdir(originalWd)
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:     "default values",
			setupEnv: func(t *testing.T) {},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMProvider == "local" &&
					cfg.LLMBaseURL == "http://localhost:8080" &&
					cfg.LLMModelName == "Llama-3.1-8B-Instruct" &&
					cfg.LLMAPIKey == "" &&
					cfg.LLMTimeout == 30*time.Second &&
					!cfg.LLMAutoload &&
					cfg.DBPath == storage.MemoryPath &&
					cfg.SessionTTL == 24*time.Hour &&
					cfg.QdrantCollection == "activities" &&
					cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					!cfg.MemoryEnabled() &&
					cfg.Settings.MaxChunkMinutes == 15 &&
					cfg.Settings.WorkStart == "09:00"
			},
		},
		{
			name: "openai requires api key",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_PROVIDER", "openai")
			},
			wantErr: true,
		},
		{
			name: "openai with api key",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_PROVIDER", "OpenAI")
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LLM_BASE_URL", "https://api.openai.com")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMProvider == "openai" && cfg.LLMAPIKey == "sk-test"
			},
		},
		{
			name: "unknown provider",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_PROVIDER", "anthropic")
			},
			wantErr: true,
		},
		{
			name: "offline provider",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_PROVIDER", "offline")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMProvider == "offline"
			},
		},
		{
			name: "memory requires QDRANT_VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_URL", "http://localhost:6333")
				setEnv("EMBEDDING_BASE_URL", "http://localhost:8081")
			},
			wantErr: true,
		},
		{
			name: "invalid QDRANT_VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_URL", "http://localhost:6333")
				setEnv("EMBEDDING_BASE_URL", "http://localhost:8081")
				setEnv("QDRANT_VECTOR_SIZE", "invalid")
			},
			wantErr: true,
		},
		{
			name: "zero QDRANT_VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_URL", "http://localhost:6333")
				setEnv("EMBEDDING_BASE_URL", "http://localhost:8081")
				setEnv("QDRANT_VECTOR_SIZE", "0")
			},
			wantErr: true,
		},
		{
			name: "memory enabled",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_URL", "http://localhost:6333")
				setEnv("EMBEDDING_BASE_URL", "http://localhost:8081")
				setEnv("QDRANT_VECTOR_SIZE", "768")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.MemoryEnabled() && cfg.QdrantVectorSize == 768
			},
		},
		{
			name: "vector size ignored without memory",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_URL", "http://localhost:6333")
				setEnv("QDRANT_VECTOR_SIZE", "invalid")
			},
			checkConfig: func(cfg *Config) bool {
				return !cfg.MemoryEnabled() && cfg.QdrantVectorSize == 0
			},
		},
		{
			name: "custom durations and logging",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_TIMEOUT", "90s")
				setEnv("SESSION_TTL", "2h")
				setEnv("LLM_AUTOLOAD", "true")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "JSON")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMTimeout == 90*time.Second &&
					cfg.SessionTTL == 2*time.Hour &&
					cfg.LLMAutoload &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json"
			},
		},
		{
			name: "invalid timeout",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_TIMEOUT", "30")
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			setupEnv: func(t *testing.T) {
				setEnv("LOG_LEVEL", "verbose")
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			setupEnv: func(t *testing.T) {
				setEnv("LOG_FORMAT", "xml")
			},
			wantErr: true,
		},
		{
			name: "processing defaults",
			setupEnv: func(t *testing.T) {
				setEnv("MAX_CHUNK_MINUTES", "30")
				setEnv("MIN_WORDS_SPLIT", "5")
				setEnv("IGNORE_MEETINGS", "false")
				setEnv("FILL_GAPS", "false")
				setEnv("WORK_START", "08:00")
				setEnv("WORK_END", "16:30")
				setEnv("AI_CREATIVITY", "0.3")
			},
			checkConfig: func(cfg *Config) bool {
				s := cfg.Settings
				return s.MaxChunkMinutes == 30 &&
					s.MinWordsSplit == 5 &&
					!s.IgnoreMeetings &&
					!s.FillGaps &&
					s.WorkStart == "08:00" &&
					s.WorkEnd == "16:30" &&
					s.Creativity == 0.3
			},
		},
		{
			name: "processing defaults out of range",
			setupEnv: func(t *testing.T) {
				setEnv("MAX_CHUNK_MINUTES", "500")
			},
			wantErr: true,
		},
		{
			name: "invalid boolean",
			setupEnv: func(t *testing.T) {
				setEnv("FILL_GAPS", "sometimes")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	isolateEnv(t)

	wd, _ := os.Getwd()
	if err := os.WriteFile(filepath.Join(wd, ".env"), []byte("LLM_PROVIDER=offline\nAPI_PORT=9100\n"), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	// godotenv sets the variables for the process; clear them afterwards
	t.Cleanup(func() {
		unsetEnv("LLM_PROVIDER")
		unsetEnv("API_PORT")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMProvider != "offline" || cfg.APIPort != "9100" {
		t.Errorf("Load() did not apply .env: provider=%q port=%q", cfg.LLMProvider, cfg.APIPort)
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolateEnv(t)

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test", "sessions.db")
	setEnv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check that directory was created
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}

	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}
