package extract

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/garyellow/campus-ai-go/internal/genai"
	"golang.org/x/time/rate"
)

// ImagePrompt asks the vision model for every piece of text or location in an image.
const ImagePrompt = "Analyze this image. Extract all text, map locations, dates, or names found. Output plain text."

// Captioner describes an image in plain text.
type Captioner interface {
	Caption(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}

// ImageReader captions images through a vision model, at most one call per
// interval. Retries of a failed caption wait for the limiter too.
type ImageReader struct {
	captioner Captioner
	limiter   *rate.Limiter
	retry     genai.RetryConfig
}

// NewImageReader creates an image reader. A non-positive interval disables
// throttling. A zero retry config makes a single attempt per image.
func NewImageReader(captioner Captioner, interval time.Duration, retry genai.RetryConfig) *ImageReader {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &ImageReader{captioner: captioner, limiter: rate.NewLimiter(limit, 1), retry: retry}
}

// Kind implements Reader.
func (*ImageReader) Kind() string { return "image" }

// Read implements Reader.
func (r *ImageReader) Read(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/png"
	}

	var text string
	err = genai.WithRetry(ctx, r.retry, func(attempt int, err error) {
		slog.DebugContext(ctx, "Retrying image caption", "file", filepath.Base(path), "attempt", attempt, "error", err)
	}, func() error {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("caption throttle: %w", err)
		}
		var err error
		text, err = r.captioner.Caption(ctx, ImagePrompt, mimeType, data)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("caption image: %w", err)
	}
	return text, nil
}
