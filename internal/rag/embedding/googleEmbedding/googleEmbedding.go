package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/internal/rag/embedding"
	"github.com/akolanti/vellum/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	batchSize int
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string, dimension int32, batchSize int) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return
	}
	embeddingClient = &client{
		genAi:     c,
		model:     modelName,
		dimension: dimension,
		batchSize: batchSize,
	}
	logger.Info("Google Embedding client created", "model", modelName)
	go closeClient(ctx)
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
}

func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		if apikey == "" {
			logger.Error("GOOGLE_API_KEY is not set")
			return
		}
		newGoogleEmbedder(ctx, modelName, apikey, config.EmbeddingOutputDimensionality, config.EmbeddingBatchSize)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embedWithRetry(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		vectors, err := c.embedWithRetry(ctx, texts[start:end], "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// embedWithRetry retries once after a rate-limit answer.
func (c *client) embedWithRetry(ctx context.Context, texts []string, task string) ([][]float32, error) {
	log := logger_i.FromContext(ctx, "google_embedding")
	vectors, err := c.doCall(ctx, texts, task)
	if err != nil && isRateLimited(err) {
		log.Warn("Rate limit hit, retrying", "backoff", config.EmbeddingRateLimitBackoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(config.EmbeddingRateLimitBackoff):
		}
		vectors, err = c.doCall(ctx, texts, task)
	}
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, err
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, texts []string, task string) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding_call", time.Since(start)) }()

	dimension := c.dimension
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, getContent(texts), &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             task,
	})
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("google embedding returned an unexpected number of vectors for %d inputs", len(texts))
	}
	vectors := make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

func getContent(chunks []string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, genai.NewContentFromText(chunk, genai.RoleUser))
	}
	return contents
}

func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	return false
}
