package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyellow/campus-ai-go/internal/config"
	"github.com/garyellow/campus-ai-go/internal/r2client"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the local corpus to R2 as a compressed bundle",
	Args:  cobra.NoArgs,
	RunE:  runPublish,
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the published corpus bundle from R2",
	Args:  cobra.NoArgs,
	RunE:  runPull,
}

func init() {
	rootCmd.AddCommand(publishCmd, pullCmd)
}

func newPublisher(ctx context.Context) (*r2client.Publisher, error) {
	if !cfg.R2Enabled() {
		return nil, errors.New("R2 is not configured: set R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME")
	}
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2Endpoint(),
		AccessKeyID: cfg.R2AccessKeyID,
		SecretKey:   cfg.R2SecretAccessKey,
		BucketName:  cfg.R2BucketName,
	})
	if err != nil {
		return nil, fmt.Errorf("create R2 client: %w", err)
	}
	return r2client.NewPublisher(client, cfg.R2CorpusKey), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, config.R2Transfer)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	publisher, err := newPublisher(ctx)
	if err != nil {
		return err
	}
	bundle, err := publisher.Publish(ctx, cfg.CorpusDir)
	if err != nil {
		return fmt.Errorf("publish corpus: %w", err)
	}
	cmd.Printf("Published %d segments to %s/%s\n", bundle.Segments, cfg.R2BucketName, cfg.R2CorpusKey)
	return nil
}

func runPull(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	publisher, err := newPublisher(ctx)
	if err != nil {
		return err
	}
	c, err := publisher.Pull(ctx, cfg.CorpusDir)
	if err != nil {
		return fmt.Errorf("pull corpus: %w", err)
	}
	cmd.Printf("Pulled %d segments into %s\n", c.Len(), cfg.CorpusDir)
	return nil
}
