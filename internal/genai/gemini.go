package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiConverser implements Converser with the Gemini API.
type geminiConverser struct {
	client *genai.Client
	model  string
}

func newGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

func newGeminiConverser(client *genai.Client, model string) *geminiConverser {
	return &geminiConverser{client: client, model: model}
}

// Converse implements Converser.
func (g *geminiConverser) Converse(ctx context.Context, system string, history []Turn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](Temperature),
		TopP:            genai.Ptr[float32](TopP),
		TopK:            genai.Ptr[float32](TopK),
		MaxOutputTokens: MaxOutputTokens,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", wrapError(err, ProviderGemini, g.model)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", wrapError(errors.New("empty response"), ProviderGemini, g.model)
	}
	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "Gemini reply",
			"model", g.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return text, nil
}

func (g *geminiConverser) Provider() Provider { return ProviderGemini }

func (g *geminiConverser) Model() string { return g.model }

// Close is a no-op; genai.Client holds no resources that need releasing.
func (g *geminiConverser) Close() error { return nil }

// Captioner describes images with a Gemini vision model.
// Each Caption is a single model call; throttling and retries belong to the
// caller so that every attempt is paced.
type Captioner struct {
	client   *genai.Client
	model    string
	observer Observer
}

// NewCaptioner creates a Gemini image captioner. It returns nil, nil when
// apiKey is empty.
func NewCaptioner(ctx context.Context, apiKey, model string, observer Observer) (*Captioner, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // captioning disabled without a key
	}
	if model == "" {
		model = DefaultGeminiVisionModel
	}
	client, err := newGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return &Captioner{client: client, model: model, observer: observer}, nil
}

// Caption returns the model's plain-text description of the image.
func (c *Captioner) Caption(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](Temperature)}

	var text string
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		err = wrapError(err, ProviderGemini, c.model)
	} else {
		text = strings.TrimSpace(resp.Text())
	}
	if c.observer != nil {
		c.observer.RecordLLM(string(ProviderGemini), errorStatus(err), time.Since(start).Seconds())
	}
	if err != nil {
		return "", fmt.Errorf("caption image: %w", err)
	}
	return text, nil
}
