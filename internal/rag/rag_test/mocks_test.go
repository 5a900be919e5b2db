package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/commonModels"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/rag/vectorDB"
)

// MockIndex implements vectorDB.Index
type MockIndex struct {
	OnSearch func(ctx context.Context, req vectorDB.SearchRequest) ([]vectorDB.Hit, error)
	requests []vectorDB.SearchRequest
}

func (m *MockIndex) Search(ctx context.Context, req vectorDB.SearchRequest) ([]vectorDB.Hit, error) {
	m.requests = append(m.requests, req)
	if m.OnSearch != nil {
		return m.OnSearch(ctx, req)
	}
	return []vectorDB.Hit{}, nil
}

func (m *MockIndex) EnsureCollection(context.Context) error { return nil }
func (m *MockIndex) UpsertBatch(context.Context, []commonModels.DocChunk, [][]float32) error {
	return nil
}
func (m *MockIndex) Reset(context.Context) error           { return nil }
func (m *MockIndex) Count(context.Context) (uint64, error) { return 0, nil }

type MockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return []float32{0.1, 0.2}, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

// MockGenerator implements llm.Generator
type MockGenerator struct {
	OnGenerate func(ctx context.Context, messages []chatModel.Message, modelId string) (string, error)
	received   [][]chatModel.Message
}

func (m *MockGenerator) Generate(ctx context.Context, messages []chatModel.Message, modelId string) (string, error) {
	m.received = append(m.received, messages)
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, messages, modelId)
	}
	return "mocked llm response", nil
}

type MockSearcher struct {
	OnRetrieve func(ctx context.Context, query string, k int) ([]chatModel.Citation, error)
}

func (m *MockSearcher) Retrieve(ctx context.Context, query string, k int) ([]chatModel.Citation, error) {
	if m.OnRetrieve != nil {
		return m.OnRetrieve(ctx, query, k)
	}
	return []chatModel.Citation{}, nil
}

// MockStore implements chatModel.ConversationStore
type MockStore struct {
	mu            sync.Mutex
	OnGetMessages func(ctx context.Context, sessionId string) ([]chatModel.Message, error)
	OnAppend      func(ctx context.Context, sessionId string, message chatModel.Message) error
	appended      []chatModel.Message
}

func (m *MockStore) Append(ctx context.Context, sessionId string, message chatModel.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OnAppend != nil {
		if err := m.OnAppend(ctx, sessionId, message); err != nil {
			return err
		}
	}
	m.appended = append(m.appended, message)
	return nil
}

func (m *MockStore) GetMessages(ctx context.Context, sessionId string) ([]chatModel.Message, error) {
	if m.OnGetMessages != nil {
		return m.OnGetMessages(ctx, sessionId)
	}
	return []chatModel.Message{}, nil
}

func (m *MockStore) ListRecent(context.Context, string, int) ([]chatModel.ConversationSummary, error) {
	return nil, nil
}

type MockIngestor struct {
	OnRun    func(ctx context.Context, params jobModel.IngestParams, progress func(jobModel.InternalStatus)) (jobModel.IngestReport, error)
	OnUpload func(ctx context.Context, params jobModel.IngestParams, progress func(jobModel.InternalStatus)) (jobModel.IngestReport, error)
}

func (m *MockIngestor) Run(ctx context.Context, params jobModel.IngestParams, progress func(jobModel.InternalStatus)) (jobModel.IngestReport, error) {
	return m.OnRun(ctx, params, progress)
}

func (m *MockIngestor) IngestUpload(ctx context.Context, params jobModel.IngestParams, progress func(jobModel.InternalStatus)) (jobModel.IngestReport, error) {
	return m.OnUpload(ctx, params, progress)
}

func hit(file, text string, score float32, page any) vectorDB.Hit {
	return vectorDB.Hit{
		Text:     text,
		Score:    score,
		Metadata: map[string]any{vectorDB.KeyFileName: file, vectorDB.KeyPageLabel: page},
	}
}
