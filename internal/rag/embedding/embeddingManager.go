package embedding

import "context"

// Embedder turns text into fixed-length vectors. The same implementation
// must serve ingestion and query time so both land in one vector space.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
