package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyellow/campus-ai-go/internal/corpus"
	"github.com/garyellow/campus-ai-go/internal/retrieval"
	"github.com/spf13/cobra"
)

var queryScores bool

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Print the knowledge context the server would send for a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryScores, "scores", false, "list similarity hits with their cosine scores")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	query := strings.Join(args, " ")

	c, err := corpus.Load(cfg.CorpusDir)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	r := retrieval.New(corpus.NewHolder(c), nil)

	cmd.Printf("Strategy: %s\n\n", r.Choose(query).Name())
	if queryScores {
		hits := c.Rank(query, retrieval.TopK, retrieval.MinScore)
		if len(hits) == 0 {
			cmd.Println("No segments above the similarity threshold.")
		}
		for i, h := range hits {
			cmd.Printf("[%d] segment %d (%.3f) %s\n", i+1, h.Index, h.Score, firstLine(h.Segment))
		}
		cmd.Println()
	}
	cmd.Println(r.Context(ctx, query))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
