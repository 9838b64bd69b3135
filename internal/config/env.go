// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvChatTimeout     = "CHAT_TIMEOUT"

	// Data
	EnvDataDir      = "DATA_DIR"
	EnvKnowledgeDir = "KNOWLEDGE_DIR"
	EnvCorpusDir    = "CORPUS_DIR"
	EnvSQLitePath   = "SQLITE_PATH"
	EnvCorpusWatch  = "CORPUS_WATCH"

	// Corpus builder
	EnvSegmentMaxSize  = "SEGMENT_MAX_SIZE"
	EnvSegmentOverlap  = "SEGMENT_OVERLAP"
	EnvCaptionInterval = "CAPTION_INTERVAL"

	// LLM
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvGeminiChatModel   = "GEMINI_CHAT_MODEL"
	EnvGeminiVisionModel = "GEMINI_VISION_MODEL"
	EnvGroqAPIKey        = "GROQ_API_KEY"
	EnvGroqChatModel     = "GROQ_CHAT_MODEL"

	// Rate limits
	EnvChatRateBurst  = "CHAT_RATE_BURST"
	EnvChatRateRefill = "CHAT_RATE_REFILL_PER_SEC"

	// R2 corpus publishing
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"
	EnvR2CorpusKey       = "R2_CORPUS_KEY"

	// Sentry
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken = "BETTERSTACK_TOKEN"

	// Metrics auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"

	// Admin
	EnvAdminToken = "ADMIN_TOKEN"
)
