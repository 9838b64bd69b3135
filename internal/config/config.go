// Package config provides application configuration management.
// It loads settings from environment variables (optionally from a .env file)
// and provides defaults for the chat server and the offline corpus builder.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/garyellow/campus-ai-go/internal/segment"
)

// ValidationMode selects which settings are mandatory.
type ValidationMode int

const (
	// ServerMode validates settings needed by the HTTP server.
	ServerMode ValidationMode = iota
	// BuildMode validates settings needed by the corpus builder CLI.
	BuildMode
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	ChatTimeout     time.Duration

	// Data Configuration
	DataDir      string // Served under /data, parent of the defaults below
	KnowledgeDir string // Source files for the corpus builder
	CorpusDir    string // Persisted corpus artifacts
	SQLitePath   string
	CorpusWatch  bool // Reload the corpus when CorpusDir changes

	// Corpus builder
	SegmentMaxSize  int
	SegmentOverlap  int
	CaptionInterval time.Duration

	// LLM Configuration
	GeminiAPIKey      string
	GeminiChatModel   string
	GeminiVisionModel string
	GroqAPIKey        string // Optional OpenAI-compatible fallback
	GroqChatModel     string

	// Rate limits (token bucket per requester)
	ChatRateBurst        float64
	ChatRateRefillPerSec float64

	// R2 corpus publishing (optional)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2CorpusKey       string

	// Observability
	SentryDSN         string
	SentryToken       string // Better Stack Errors token, used when SentryDSN is empty
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64
	BetterStackToken  string
	MetricsUsername   string
	MetricsPassword   string // empty = no auth on /metrics
	AdminToken        string // bearer token for /admin/reload; empty = route disabled
}

// Load reads configuration for the HTTP server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates it
// for the given mode. A .env file in the working directory is loaded first if present.
func LoadForMode(mode ValidationMode) (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv(EnvDataDir, "./data")

	cfg := &Config{
		Port:            getEnv(EnvPort, "5001"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),
		ChatTimeout:     getDurationEnv(EnvChatTimeout, ChatProcessing),

		DataDir:      dataDir,
		KnowledgeDir: getEnv(EnvKnowledgeDir, filepath.Join(dataDir, "knowledge_source")),
		CorpusDir:    getEnv(EnvCorpusDir, filepath.Join(dataDir, "corpus")),
		SQLitePath:   getEnv(EnvSQLitePath, filepath.Join(dataDir, "campus.db")),
		CorpusWatch:  getBoolEnv(EnvCorpusWatch, true),

		SegmentMaxSize:  getIntEnv(EnvSegmentMaxSize, segment.DefaultMaxSize),
		SegmentOverlap:  getIntEnv(EnvSegmentOverlap, segment.DefaultOverlap),
		CaptionInterval: getDurationEnv(EnvCaptionInterval, CaptionInterval),

		GeminiAPIKey:      getEnv(EnvGeminiAPIKey, ""),
		GeminiChatModel:   getEnv(EnvGeminiChatModel, ""),
		GeminiVisionModel: getEnv(EnvGeminiVisionModel, ""),
		GroqAPIKey:        getEnv(EnvGroqAPIKey, ""),
		GroqChatModel:     getEnv(EnvGroqChatModel, ""),

		ChatRateBurst:        getFloatEnv(EnvChatRateBurst, 10.0),
		ChatRateRefillPerSec: getFloatEnv(EnvChatRateRefill, 0.2), // 1 per 5s

		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2CorpusKey:       getEnv(EnvR2CorpusKey, "corpus/bundle.json.zst"),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		BetterStackToken:  getEnv(EnvBetterStackToken, ""),
		MetricsUsername:   getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:   getEnv(EnvMetricsPassword, ""),
		AdminToken:        getEnv(EnvAdminToken, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for server use.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks that the settings required by mode are usable.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if c.KnowledgeDir == "" && mode == BuildMode {
		errs = append(errs, errors.New("KNOWLEDGE_DIR is required"))
	}
	if c.CorpusDir == "" {
		errs = append(errs, errors.New("CORPUS_DIR is required"))
	}
	if c.SegmentMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("SEGMENT_MAX_SIZE must be positive, got %d", c.SegmentMaxSize))
	}
	if c.SegmentOverlap < 0 || c.SegmentOverlap >= c.SegmentMaxSize {
		errs = append(errs, fmt.Errorf("SEGMENT_OVERLAP must be in [0, SEGMENT_MAX_SIZE), got %d", c.SegmentOverlap))
	} else if c.SegmentMaxSize <= c.SegmentOverlap+segment.TagBudget {
		errs = append(errs, fmt.Errorf("SEGMENT_MAX_SIZE must exceed SEGMENT_OVERLAP plus %d runes for the source tag, got %d/%d",
			segment.TagBudget, c.SegmentMaxSize, c.SegmentOverlap))
	}
	if c.CaptionInterval < 0 {
		errs = append(errs, fmt.Errorf("CAPTION_INTERVAL cannot be negative, got %v", c.CaptionInterval))
	}

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, errors.New("PORT is required"))
		}
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required"))
		}
		if c.ChatTimeout <= 0 {
			errs = append(errs, fmt.Errorf("CHAT_TIMEOUT must be positive, got %v", c.ChatTimeout))
		}
		if c.ChatRateBurst <= 0 || c.ChatRateRefillPerSec <= 0 {
			errs = append(errs, errors.New("CHAT_RATE_BURST and CHAT_RATE_REFILL_PER_SEC must be positive"))
		}
	}

	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be within [0, 1], got %v", c.SentrySampleRate))
	}

	return errors.Join(errs...)
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}

// R2Enabled returns true when every R2 credential is present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// R2Endpoint returns the S3-compatible endpoint for the configured account.
func (c *Config) R2Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv accepts 1/0, true/false, yes/no (case-insensitive).
func getBoolEnv(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return defaultValue
	}
}
