package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/customHttpClient"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/internal/rag/embedding"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("openai_embedding")
var once sync.Once
var sharedClient embedding.Embedder

// Config targets any OpenAI-compatible embeddings endpoint, including a
// self-hosted text-embeddings-inference service.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	BatchSize int
	Timeout   time.Duration
}

type client struct {
	api       openai.Client
	model     string
	batchSize int
}

func GetOpenAIEmbeddingClient(cfg Config) embedding.Embedder {
	once.Do(func() {
		sharedClient = New(cfg)
		logger.Info("Embedding client created", "model", cfg.Model, "baseURL", cfg.BaseURL)
	})
	return sharedClient
}

func New(cfg Config) embedding.Embedder {
	if cfg.APIKey == "" {
		cfg.APIKey = config.EmbeddingServiceKey
	}
	if cfg.Model == "" {
		cfg.Model = config.EmbeddingModelName
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = config.EmbeddingBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(customHttpClient.NewPooledClient(0)),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &client{
		api:       openai.NewClient(opts...),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch keeps the input order even though the service may answer out of order.
func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger_i.FromContext(ctx, "openai_embedding")
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		vectors, err := c.embed(ctx, texts[start:end])
		if err != nil {
			log.Error("Embedding batch failed", "from", start, "to", end, "error", err)
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no embedding inputs")
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding_call", time.Since(start)) }()

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			v[j] = float32(f)
		}
		vectors[i] = v
	}
	return vectors, nil
}
