package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/vellum/internal/bootstrap"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/rag/ingest"
	"github.com/akolanti/vellum/internal/rag/ingest/objectSource"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/spf13/cobra"
)

// documentPipeline is the part of ingest.Pipeline the commands drive.
type documentPipeline interface {
	Run(ctx context.Context, params jobModel.IngestParams, progress ingest.Progress) (jobModel.IngestReport, error)
	Documents(ctx context.Context, bucket, prefix string) ([]objectSource.ObjectInfo, error)
	Reset(ctx context.Context) error
	Count(ctx context.Context) (uint64, error)
}

var (
	pipeline documentPipeline

	bucket string
	prefix string
)

var rootCmd = &cobra.Command{
	Use:   "vellum-ingest",
	Short: "Load documents into the Vellum vector index",
	Long: `Reads documents from the configured source (minio or a local directory),
chunks and embeds them, and writes the vectors to the configured index.
Connection settings come from the environment or a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupPipeline,
}

func init() {
	settings := config.FromEnv()
	rootCmd.PersistentFlags().StringVar(&bucket, "bucket", settings.MinioBucket, "bucket (or directory under the local root) to read")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "", "only consider objects under this prefix")
}

func setupPipeline(cmd *cobra.Command, _ []string) error {
	if pipeline != nil {
		return nil
	}
	settings := config.Load()
	config.ReloadSecrets()
	logger_i.Init(settings.IsProd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	index, err := bootstrap.Index(ctx, settings)
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	embedder, model, err := bootstrap.Embedder(ctx, settings)
	if err != nil {
		return fmt.Errorf("embedding client: %w", err)
	}
	source := bootstrap.Source(settings)
	if source == nil {
		return errors.New("document source is not available")
	}
	pipeline = ingest.NewPipeline(source, embedder, index, model)
	return nil
}
