package memoryDB

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/akolanti/vellum/internal/domain/commonModels"
	"github.com/akolanti/vellum/internal/rag/vectorDB"
)

type point struct {
	id       string
	vector   []float32
	text     string
	metadata map[string]any
}

// Index keeps vectors in process memory. It backs local runs and tests.
type Index struct {
	mu      sync.RWMutex
	created bool
	points  []point
	byId    map[string]int
}

func New() *Index {
	return &Index{byId: make(map[string]int)}
}

func (m *Index) EnsureCollection(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = true
	return nil
}

func (m *Index) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = nil
	m.byId = make(map[string]int)
	m.created = true
	return nil
}

func (m *Index) Count(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.points)), nil
}

func (m *Index) UpsertBatch(_ context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = true
	for i, chunk := range chunks {
		p := point{
			id:       chunk.ChunkId,
			vector:   vectors[i],
			text:     chunk.Chunk,
			metadata: vectorDB.ChunkPayload(chunk),
		}
		if idx, ok := m.byId[p.id]; ok {
			m.points[idx] = p
			continue
		}
		m.byId[p.id] = len(m.points)
		m.points = append(m.points, p)
	}
	return nil
}

type scored struct {
	idx   int
	score float32
}

func (m *Index) Search(_ context.Context, req vectorDB.SearchRequest) ([]vectorDB.Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.created {
		return nil, vectorDB.ErrIndexUnavailable
	}
	if req.TopK <= 0 || len(m.points) == 0 {
		return []vectorDB.Hit{}, nil
	}

	ranked := make([]scored, len(m.points))
	for i, p := range m.points {
		ranked[i] = scored{idx: i, score: cosine(req.Vector, p.vector)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	var picked []scored
	if req.Mode == vectorDB.ModeDiversity {
		picked = m.mmr(ranked, req.TopK, req.Relevance)
	} else {
		picked = ranked[:min(req.TopK, len(ranked))]
	}

	hits := make([]vectorDB.Hit, 0, len(picked))
	for _, s := range picked {
		p := m.points[s.idx]
		metadata := make(map[string]any, len(p.metadata))
		for k, v := range p.metadata {
			metadata[k] = v
		}
		hits = append(hits, vectorDB.Hit{Text: p.text, Metadata: metadata, Score: s.score})
	}
	return hits, nil
}

// mmr greedily picks the candidate maximising
// lambda*sim(query) - (1-lambda)*max sim(already picked).
func (m *Index) mmr(ranked []scored, k int, lambda float32) []scored {
	candidates := append([]scored(nil), ranked...)
	picked := make([]scored, 0, k)
	for len(picked) < k && len(candidates) > 0 {
		best, bestVal := 0, float32(math.Inf(-1))
		for ci, c := range candidates {
			var redundancy float32
			for _, s := range picked {
				if sim := cosine(m.points[c.idx].vector, m.points[s.idx].vector); sim > redundancy {
					redundancy = sim
				}
			}
			if val := lambda*c.score - (1-lambda)*redundancy; val > bestVal {
				best, bestVal = ci, val
			}
		}
		picked = append(picked, candidates[best])
		candidates = append(candidates[:best], candidates[best+1:]...)
	}
	return picked
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
