package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/commonModels"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/internal/rag/embedding"
	"github.com/akolanti/vellum/internal/rag/ingest/objectSource"
	"github.com/akolanti/vellum/internal/rag/vectorDB"
	"github.com/akolanti/vellum/pkg/logger_i"
)

var logger = logger_i.NewLogger("Document Ingestion")

// Progress is told about every step change so job status stays current.
type Progress = func(step jobModel.InternalStatus)

type Pipeline struct {
	source         objectSource.Source
	embedder       embedding.Embedder
	index          vectorDB.Index
	embeddingModel string
}

// NewPipeline wires ingestion. source may be nil when only uploads are ingested.
func NewPipeline(source objectSource.Source, embedder embedding.Embedder, index vectorDB.Index, embeddingModel string) *Pipeline {
	return &Pipeline{
		source:         source,
		embedder:       embedder,
		index:          index,
		embeddingModel: embeddingModel,
	}
}

// WithDefaults fills zero values. MaxDocs is left alone since <= 0 means
// no limit.
func WithDefaults(p jobModel.IngestParams) jobModel.IngestParams {
	if p.Bucket == "" {
		p.Bucket = config.DefaultBucket
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = config.DefaultChunkSize
	}
	if p.ChunkOverlap < 0 {
		p.ChunkOverlap = 0
	}
	if p.EvalQuery == "" {
		p.EvalQuery = config.DefaultEvalQuery
	}
	if p.EvalTopK <= 0 {
		p.EvalTopK = config.DefaultEvalTopK
	}
	return p
}

// Run ingests every object under bucket/prefix. Failures of single files
// are counted in the report; only setup failures end the run.
func (p *Pipeline) Run(ctx context.Context, params jobModel.IngestParams, progress Progress) (jobModel.IngestReport, error) {
	log := logger_i.FromContext(ctx, "Document Ingestion")
	params = WithDefaults(params)
	report := jobModel.IngestReport{}

	if p.source == nil {
		return report, errors.New("no document source configured")
	}
	if err := p.prepareIndex(ctx, params.Cleanup, progress); err != nil {
		return report, err
	}

	step(progress, jobModel.IngestListing)
	objects, err := p.source.List(ctx, params.Bucket, params.Prefix)
	if err != nil {
		return report, fmt.Errorf("listing %s/%s: %w", params.Bucket, params.Prefix, err)
	}
	if params.MaxDocs > 0 && len(objects) > params.MaxDocs {
		objects = objects[:params.MaxDocs]
	}
	report.FilesFound = len(objects)
	log.Info("Found documents", "bucket", params.Bucket, "prefix", params.Prefix, "count", len(objects))

	tempDir, err := os.MkdirTemp("", "vellum-ingest-")
	if err != nil {
		return report, err
	}
	defer os.RemoveAll(tempDir)

	step(progress, jobModel.IngestProcessing)
	for i, obj := range objects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		chunks, err := p.ingestObject(ctx, params, obj, filepath.Join(tempDir, fmt.Sprintf("%d%s", i, filepath.Ext(obj.Key))))
		if err != nil {
			log.Error("Failed to ingest document", "key", obj.Key, "error", err)
			report.FilesFailed++
			report.FailedFiles = append(report.FailedFiles, obj.Key)
			metrics.IncrementIngestedFile("failed")
			continue
		}
		report.FilesProcessed++
		report.Chunks += chunks
		metrics.IncrementIngestedFile("ok")
	}

	report.Accuracy = p.evaluateStep(ctx, params, progress)
	log.Info("Ingestion finished", "processed", report.FilesProcessed, "failed", report.FilesFailed, "chunks", report.Chunks)
	return report, nil
}

// IngestUpload ingests one file already on local disk and removes it afterwards.
func (p *Pipeline) IngestUpload(ctx context.Context, params jobModel.IngestParams, progress Progress) (jobModel.IngestReport, error) {
	params = WithDefaults(params)
	report := jobModel.IngestReport{FilesFound: 1}
	defer func() {
		if err := os.Remove(params.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Error("Error removing uploaded file", "path", params.FilePath, "error", err)
		}
	}()

	if err := p.prepareIndex(ctx, params.Cleanup, progress); err != nil {
		return report, err
	}

	step(progress, jobModel.IngestProcessing)
	chunks, err := p.IngestFile(ctx, params.FilePath, params.FileName, params)
	if err != nil {
		report.FilesFailed = 1
		report.FailedFiles = []string{params.FileName}
		metrics.IncrementIngestedFile("failed")
		return report, err
	}
	report.FilesProcessed = 1
	report.Chunks = chunks
	metrics.IncrementIngestedFile("ok")
	report.Accuracy = p.evaluateStep(ctx, params, progress)
	return report, nil
}

// IngestFile extracts, chunks, embeds and upserts a single local file and
// returns the number of chunks written.
func (p *Pipeline) IngestFile(ctx context.Context, path, fileName string, params jobModel.IngestParams) (int, error) {
	docType := getDocType(fileName)
	if docType == commonModels.ERR {
		return 0, fmt.Errorf("%w: %s", errUnsupportedType, fileName)
	}

	pages, err := extractText(path, docType)
	if err != nil {
		return 0, err
	}
	doc := commonModels.Document{
		Id:                  utils.GetNewUUID(),
		FileName:            fileName,
		LastIngestTimestamp: time.Now().UTC(),
		ContentType:         docType,
	}
	chunks := PrepareChunks(pages, doc, p.embeddingModel, params.ChunkSize, params.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no text extracted from %s", fileName)
	}
	logger_i.FromContext(ctx, "Document Ingestion").Debug("Prepared chunks", "file", fileName, "pages", len(pages), "chunks", len(chunks))

	if err := BatchIngest(ctx, chunks, p.index, p.embedder); err != nil {
		return 0, err
	}
	metrics.AddIngestedChunks(len(chunks))
	return len(chunks), nil
}

// Evaluate runs a plain top-k search and returns the mean similarity score,
// a rough signal that the index answers the domain's typical question.
func (p *Pipeline) Evaluate(ctx context.Context, query string, topK int) (float64, error) {
	vector, err := p.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return 0, err
	}
	hits, err := p.index.Search(ctx, vectorDB.SearchRequest{Vector: vector, TopK: topK, Mode: vectorDB.ModePlain})
	if errors.Is(err, vectorDB.ErrIndexUnavailable) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(hits) == 0 {
		return 0, nil
	}
	var total float64
	for _, h := range hits {
		total += float64(h.Score)
	}
	return total / float64(len(hits)), nil
}

// Documents lists what a Run with the same bucket and prefix would ingest.
func (p *Pipeline) Documents(ctx context.Context, bucket, prefix string) ([]objectSource.ObjectInfo, error) {
	if p.source == nil {
		return nil, errors.New("no document source configured")
	}
	if bucket == "" {
		bucket = config.DefaultBucket
	}
	return p.source.List(ctx, bucket, prefix)
}

// Reset drops every indexed chunk.
func (p *Pipeline) Reset(ctx context.Context) error {
	return p.index.Reset(ctx)
}

func (p *Pipeline) Count(ctx context.Context) (uint64, error) {
	return p.index.Count(ctx)
}

func (p *Pipeline) prepareIndex(ctx context.Context, cleanup bool, progress Progress) error {
	if cleanup {
		step(progress, jobModel.IngestReset)
		if err := p.index.Reset(ctx); err != nil {
			return fmt.Errorf("resetting index: %w", err)
		}
	}
	if err := p.index.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

func (p *Pipeline) ingestObject(ctx context.Context, params jobModel.IngestParams, obj objectSource.ObjectInfo, tempPath string) (int, error) {
	if getDocType(obj.Key) == commonModels.ERR {
		return 0, fmt.Errorf("%w: %s", errUnsupportedType, obj.Key)
	}
	if err := p.source.Download(ctx, params.Bucket, obj.Key, tempPath); err != nil {
		return 0, err
	}
	defer os.Remove(tempPath)
	return p.IngestFile(ctx, tempPath, filepath.Base(obj.Key), params)
}

func (p *Pipeline) evaluateStep(ctx context.Context, params jobModel.IngestParams, progress Progress) float64 {
	step(progress, jobModel.IngestEvaluation)
	accuracy, err := p.Evaluate(ctx, params.EvalQuery, params.EvalTopK)
	if err != nil {
		logger_i.FromContext(ctx, "Document Ingestion").Warn("Evaluation failed", "error", err)
		return 0
	}
	return accuracy
}

func step(progress Progress, s jobModel.InternalStatus) {
	if progress != nil {
		progress(s)
	}
}

// BatchIngest embeds and upserts chunks in fixed-size batches.
func BatchIngest(ctx context.Context, chunks []commonModels.DocChunk, index vectorDB.Index, embedder embedding.Embedder) error {
	for i := 0; i < len(chunks); i += config.IngestUpsertBatch {
		end := min(i+config.IngestUpsertBatch, len(chunks))
		currentBatch := chunks[i:end]

		texts := make([]string, len(currentBatch))
		for j, c := range currentBatch {
			texts[j] = c.Chunk
		}

		start := time.Now()
		vectors, err := embedder.EmbedBatch(ctx, texts)
		metrics.CaptureExecutionMetrics("ingest_embedding", time.Since(start))
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}

		if err := index.UpsertBatch(ctx, currentBatch, vectors); err != nil {
			return fmt.Errorf("upserting batch failed: %w", err)
		}
	}
	return nil
}
