package vectorDB

import (
	"context"
	"errors"

	"github.com/akolanti/vellum/internal/domain/commonModels"
)

// ErrIndexUnavailable means there is nothing to search yet: no collection,
// or no index configured. Callers treat it as an empty result.
var ErrIndexUnavailable = errors.New("vector index unavailable")

type SearchMode int

const (
	ModePlain SearchMode = iota
	// ModeDiversity re-ranks with maximal marginal relevance.
	ModeDiversity
)

// payload keys shared by every index implementation
const (
	KeyText        = "text"
	KeyFileName    = "file_name"
	KeyPageLabel   = "page_label"
	KeyDocId       = "source_doc_id"
	KeyChunkOrder  = "chunk_order"
	KeyChunkId     = "chunk_id"
	KeyIngestedAt  = "ingested_at"
	KeyEmbedModel  = "embedding_model"
	KeyContentType = "content_type"
)

type SearchRequest struct {
	Vector []float32
	TopK   int
	Mode   SearchMode
	// Relevance is the MMR lambda: 1 ranks purely by similarity, 0 purely by novelty.
	Relevance float32
}

type Hit struct {
	Text     string
	Metadata map[string]any
	Score    float32
}

type Index interface {
	Search(ctx context.Context, req SearchRequest) ([]Hit, error)
	EnsureCollection(ctx context.Context) error
	UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error
	Reset(ctx context.Context) error
	Count(ctx context.Context) (uint64, error)
}

// ChunkPayload is the metadata stored next to every vector.
func ChunkPayload(chunk commonModels.DocChunk) map[string]any {
	return map[string]any{
		KeyText:        chunk.Chunk,
		KeyFileName:    chunk.Doc.FileName,
		KeyPageLabel:   chunk.PageLabel,
		KeyDocId:       chunk.Doc.Id,
		KeyChunkOrder:  chunk.ChunkPageOrder,
		KeyChunkId:     chunk.ChunkId,
		KeyIngestedAt:  chunk.Doc.LastIngestTimestamp.Unix(),
		KeyEmbedModel:  chunk.EmbeddingModel,
		KeyContentType: string(chunk.Doc.ContentType),
	}
}
