package main

import (
	"fmt"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/spf13/cobra"
)

var runFlags struct {
	chunkSize int
	overlap   int
	maxDocs   int
	cleanup   bool
	evalQuery string
	topK      int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest every document under the bucket and prefix",
	Long: `Lists the bucket, extracts text from each supported file, and writes
the embedded chunks to the index. Single file failures are reported at the
end and do not stop the run. A retrieval check runs against --eval-query
once all files are processed.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	runCmd.Flags().IntVar(&runFlags.chunkSize, "chunk-size", config.DefaultChunkSize, "chunk size in characters")
	runCmd.Flags().IntVar(&runFlags.overlap, "overlap", config.DefaultChunkOverlap, "characters shared by neighbouring chunks")
	runCmd.Flags().IntVar(&runFlags.maxDocs, "max-docs", config.DefaultMaxDocs, "stop after this many files, 0 for no limit")
	runCmd.Flags().BoolVar(&runFlags.cleanup, "cleanup", false, "drop the collection before ingesting")
	runCmd.Flags().StringVar(&runFlags.evalQuery, "eval-query", config.DefaultEvalQuery, "query used for the retrieval check")
	runCmd.Flags().IntVar(&runFlags.topK, "top-k", config.DefaultEvalTopK, "hits inspected by the retrieval check")
	rootCmd.AddCommand(runCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	params := jobModel.IngestParams{
		Bucket:       bucket,
		Prefix:       prefix,
		ChunkSize:    runFlags.chunkSize,
		ChunkOverlap: runFlags.overlap,
		MaxDocs:      runFlags.maxDocs,
		Cleanup:      runFlags.cleanup,
		EvalQuery:    runFlags.evalQuery,
		EvalTopK:     runFlags.topK,
	}

	report, err := pipeline.Run(cmd.Context(), params, func(step jobModel.InternalStatus) {
		cmd.Printf("step: %s\n", step)
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("files found:     %d\n", report.FilesFound)
	cmd.Printf("files processed: %d\n", report.FilesProcessed)
	cmd.Printf("files failed:    %d\n", report.FilesFailed)
	cmd.Printf("chunks written:  %d\n", report.Chunks)
	cmd.Printf("accuracy:        %.2f\n", report.Accuracy)
	for _, name := range report.FailedFiles {
		cmd.Printf("  failed: %s\n", name)
	}
	return nil
}
