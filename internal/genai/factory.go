package genai

import (
	"context"
	"log/slog"
)

// NewConverser builds the fallback chain: every Gemini model, then every Groq
// model. It returns nil, nil when no provider has a key.
func NewConverser(ctx context.Context, cfg LLMConfig, observer Observer) (*FallbackConverser, error) {
	var chain []Converser

	if cfg.GeminiAPIKey != "" {
		client, err := newGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			slog.WarnContext(ctx, "Gemini unavailable", "error", err)
		} else {
			for _, m := range cfg.GeminiChatModels {
				chain = append(chain, newGeminiConverser(client, m))
			}
		}
	}

	if cfg.GroqAPIKey != "" {
		for _, m := range cfg.GroqChatModels {
			c, err := newOpenAIConverser(ProviderGroq, cfg.GroqAPIKey, m)
			if err != nil {
				slog.WarnContext(ctx, "Groq model unavailable", "model", m, "error", err)
				continue
			}
			chain = append(chain, c)
		}
	}

	if len(chain) == 0 {
		slog.InfoContext(ctx, "No LLM provider configured")
		return nil, nil //nolint:nilnil // chat disabled without a provider
	}

	slog.InfoContext(ctx, "LLM chain configured",
		"primary", chain[0].Provider(),
		"model", chain[0].Model(),
		"chain_size", len(chain))
	return NewFallbackConverser(cfg.Retry, observer, chain...), nil
}
