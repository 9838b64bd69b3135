// Package genai talks to the chat and vision models behind the assistant.
//
// Gemini goes through google.golang.org/genai. Groq is reached through its
// OpenAI-compatible endpoint with github.com/openai/openai-go/v3. Calls are
// retried per model, then fall through the model chain, then to the next
// provider.
package genai

import (
	"context"
	"time"
)

// Provider identifies an LLM provider.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderGroq   Provider = "groq"
)

// ProviderEndpoint holds base URLs for OpenAI-compatible providers.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq: "https://api.groq.com/openai/v1/",
}

// String returns the provider name.
func (p Provider) String() string {
	return string(p)
}

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior message in a conversation.
type Turn struct {
	Role Role
	Text string
}

// Converser produces the next model reply for a conversation.
type Converser interface {
	// Converse sends message after history, under the system instruction.
	Converse(ctx context.Context, system string, history []Turn, message string) (string, error)
	Provider() Provider
	Model() string
	Close() error
}

// Observer receives per-call LLM outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	RecordLLM(provider, status string, duration float64)
}

// RetryConfig uses Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts includes the initial attempt.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// LLMConfig configures every provider. A provider without an API key is skipped.
type LLMConfig struct {
	GeminiAPIKey      string
	GeminiChatModels  []string
	GeminiVisionModel string

	GroqAPIKey     string
	GroqChatModels []string

	Retry RetryConfig
}

// Default models. The first entry of a chain is primary.
var (
	DefaultGeminiChatModels  = []string{"gemini-2.0-flash", "gemini-2.5-flash-lite"}
	DefaultGeminiVisionModel = "gemini-2.0-flash"
	DefaultGroqChatModels    = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
)

// Generation settings. Answers must stick to the supplied context, so sampling is greedy.
const (
	Temperature     = 0.0
	TopP            = 0.95
	TopK            = 40
	MaxOutputTokens = 4096
)

// Retry defaults.
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// ModelChain returns []string{override} when override is set, otherwise defaults.
func ModelChain(override string, defaults []string) []string {
	if override != "" {
		return []string{override}
	}
	return append([]string(nil), defaults...)
}
