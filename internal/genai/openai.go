package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiConverser implements Converser against an OpenAI-compatible endpoint.
type openaiConverser struct {
	client   openai.Client
	model    string
	provider Provider
}

func newOpenAIConverser(provider Provider, apiKey, model string, opts ...option.RequestOption) (*openaiConverser, error) {
	baseURL, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}
	opts = append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		// Retries are handled by the fallback chain.
		option.WithMaxRetries(0),
	}, opts...)
	return &openaiConverser{
		client:   openai.NewClient(opts...),
		model:    model,
		provider: provider,
	}, nil
}

// Converse implements Converser.
func (o *openaiConverser) Converse(ctx context.Context, system string, history []Turn, message string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, turn := range history {
		if turn.Role == RoleModel {
			messages = append(messages, openai.AssistantMessage(turn.Text))
		} else {
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	params := openai.ChatCompletionNewParams{
		Model:       o.model,
		Messages:    messages,
		Temperature: openai.Float(Temperature),
		TopP:        openai.Float(TopP),
		MaxTokens:   openai.Int(MaxOutputTokens),
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", wrapError(err, o.provider, o.model)
	}
	if len(resp.Choices) == 0 {
		return "", wrapError(errors.New("no choices"), o.provider, o.model)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", wrapError(errors.New("empty response"), o.provider, o.model)
	}
	slog.DebugContext(ctx, "OpenAI-compatible reply",
		"provider", o.provider,
		"model", o.model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

func (o *openaiConverser) Provider() Provider { return o.provider }

func (o *openaiConverser) Model() string { return o.model }

func (o *openaiConverser) Close() error { return nil }
