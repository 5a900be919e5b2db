package rag

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/internal/rag/embedding"
	"github.com/akolanti/vellum/internal/rag/vectorDB"
	"github.com/akolanti/vellum/pkg/logger_i"
)

const unknownSource = "unknown"

// Retriever turns a query into at most k citations, one per source file.
type Retriever struct {
	embedder  embedding.Embedder
	index     vectorDB.Index
	relevance float32
	defaultK  int
}

// NewRetriever accepts a nil index, in which case every search is empty.
func NewRetriever(embedder embedding.Embedder, index vectorDB.Index, relevance float32, defaultK int) *Retriever {
	if defaultK <= 0 {
		defaultK = config.DefaultContextWindow
	}
	return &Retriever{embedder: embedder, index: index, relevance: relevance, defaultK: defaultK}
}

// Retrieve over-fetches with MMR and keeps the first hit of each file, so a
// single long document cannot crowd out the rest.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]chatModel.Citation, error) {
	log := logger_i.FromContext(ctx, "Retriever")
	if k <= 0 {
		k = r.defaultK
	}
	if r.index == nil {
		return []chatModel.Citation{}, nil
	}

	start := time.Now()
	vector, err := r.embedder.GetEmbedding(ctx, query)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	start = time.Now()
	hits, err := r.index.Search(ctx, vectorDB.SearchRequest{
		Vector:    vector,
		TopK:      k * config.RetrievalOverFetchFactor,
		Mode:      vectorDB.ModeDiversity,
		Relevance: r.relevance,
	})
	metrics.CaptureExecutionMetrics("vector_search", time.Since(start))
	if errors.Is(err, vectorDB.ErrIndexUnavailable) {
		log.Warn("Vector index unavailable, continuing without context")
		return []chatModel.Citation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	citations := make([]chatModel.Citation, 0, k)
	for _, hit := range uniqueBySource(hits) {
		if len(citations) == k {
			break
		}
		citations = append(citations, toCitation(hit))
	}
	log.Debug("Retrieved citations", "candidates", len(hits), "kept", len(citations))
	return citations, nil
}

// uniqueBySource keeps the first hit per file in a single ordered pass.
func uniqueBySource(hits []vectorDB.Hit) []vectorDB.Hit {
	seen := make(map[string]bool, len(hits))
	out := make([]vectorDB.Hit, 0, len(hits))
	for _, h := range hits {
		src := sourceOf(h)
		if seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, h)
	}
	return out
}

func sourceOf(h vectorDB.Hit) string {
	if name, ok := h.Metadata[vectorDB.KeyFileName].(string); ok && name != "" {
		return name
	}
	return unknownSource
}

func toCitation(h vectorDB.Hit) chatModel.Citation {
	score := float64(h.Score)
	return chatModel.Citation{
		Source:         sourceOf(h),
		Page:           pageOf(h.Metadata[vectorDB.KeyPageLabel]),
		Text:           h.Text,
		RelevanceScore: &score,
	}
}

// pageOf accepts the label as stored by any index: string, integer or float.
func pageOf(label any) int {
	switch v := label.(type) {
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
