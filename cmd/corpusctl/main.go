// Package main provides corpusctl, the offline knowledge base tool: it builds
// the TF-IDF corpus from source documents, publishes it to R2, pulls it back
// and inspects retrieval results.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/garyellow/campus-ai-go/internal/config"
	"github.com/garyellow/campus-ai-go/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log *logger.Logger

	knowledgeDirFlag string
	corpusDirFlag    string
	logLevelFlag     string
)

var rootCmd = &cobra.Command{
	Use:           "corpusctl",
	Short:         "Build and manage the campus knowledge base",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.LoadForMode(config.BuildMode)
		if err != nil {
			return err
		}
		if knowledgeDirFlag != "" {
			loaded.KnowledgeDir = knowledgeDirFlag
		}
		if corpusDirFlag != "" {
			loaded.CorpusDir = corpusDirFlag
		}
		if logLevelFlag != "" {
			loaded.LogLevel = logLevelFlag
		}
		cfg = loaded

		log = logger.NewWithOptions(logger.Options{
			Level:            cfg.LogLevel,
			Writer:           cmd.ErrOrStderr(),
			BetterStackToken: cfg.BetterStackToken,
		}).WithModule("corpusctl")
		slog.SetDefault(log.Logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if log != nil {
			return log.Shutdown(cmd.Context())
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&knowledgeDirFlag, "knowledge-dir", "", "source documents directory (overrides KNOWLEDGE_DIR)")
	rootCmd.PersistentFlags().StringVar(&corpusDirFlag, "corpus-dir", "", "corpus artifacts directory (overrides CORPUS_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (overrides LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
