package main

import (
	"context"
	"fmt"
	"time"

	"github.com/garyellow/campus-ai-go/internal/config"
	"github.com/garyellow/campus-ai-go/internal/corpus"
	"github.com/garyellow/campus-ai-go/internal/extract"
	"github.com/garyellow/campus-ai-go/internal/genai"
	"github.com/garyellow/campus-ai-go/internal/segment"
	"github.com/spf13/cobra"
)

var (
	buildNoImages bool
	buildPublish  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the corpus from the knowledge directory",
	Long: `Extracts text from every PDF, HTML, text and image file in the knowledge
directory, splits it into tagged segments, fits the TF-IDF index and writes
knowledge_base.json, vectorizer.json and tfidf_matrix.json to the corpus
directory. Images are captioned with Gemini when GEMINI_API_KEY is set.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildNoImages, "no-images", false, "skip image captioning")
	buildCmd.Flags().BoolVar(&buildPublish, "publish", false, "publish the corpus to R2 after building")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	images, err := newImageReader(ctx)
	if err != nil {
		return err
	}
	if images == nil {
		log.Info("Image captioning disabled")
	}

	builder := corpus.NewBuilder(extract.NewDefaultRegistry(images), segment.Options{
		MaxSize: cfg.SegmentMaxSize,
		Overlap: cfg.SegmentOverlap,
	})

	start := time.Now()
	c, stats, err := builder.Build(ctx, cfg.KnowledgeDir)
	if err != nil {
		return fmt.Errorf("build corpus: %w", err)
	}
	if err := corpus.Save(cfg.CorpusDir, c); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}

	log.WithField("files", stats.Files).
		WithField("skipped", stats.Skipped).
		WithField("segments", stats.Segments).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Corpus built")
	cmd.Printf("Built %d segments from %d files (%d skipped) into %s\n",
		stats.Segments, stats.Files, stats.Skipped, cfg.CorpusDir)

	if buildPublish {
		return runPublish(cmd, nil)
	}
	return nil
}

// newImageReader returns nil when captioning is disabled or no Gemini key is set.
func newImageReader(ctx context.Context) (*extract.ImageReader, error) {
	if buildNoImages || cfg.GeminiAPIKey == "" {
		return nil, nil
	}
	captioner, err := genai.NewCaptioner(ctx, cfg.GeminiAPIKey, cfg.GeminiVisionModel, nil)
	if err != nil {
		return nil, fmt.Errorf("create captioner: %w", err)
	}
	return extract.NewImageReader(timedCaptioner{captioner}, cfg.CaptionInterval, genai.DefaultRetryConfig()), nil
}

// timedCaptioner bounds each captioning attempt.
type timedCaptioner struct {
	extract.Captioner
}

func (t timedCaptioner) Caption(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.CaptionRequest)
	defer cancel()
	return t.Captioner.Caption(ctx, prompt, mimeType, data)
}
