package rag_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/data/store"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/akolanti/vellum/internal/rag/llm"
	"github.com/akolanti/vellum/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/vellum/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ollamaStub struct{}

func (ollamaStub) Generate(_ context.Context, cfg modelConfig.ModelConfig, _ []chatModel.Message) (string, error) {
	return "Assistant: hello from " + cfg.Id, nil
}

func newGateway() *llm.Gateway {
	reg := registry.New([]modelConfig.ModelConfig{{Id: "mistral", Name: "Mistral", Provider: modelConfig.ProviderOllama, IsActive: true}})
	return llm.NewGateway(reg, map[modelConfig.Provider]llm.Backend{modelConfig.ProviderOllama: ollamaStub{}})
}

func ctxWithTrace() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

// empty index, active ollama model, no session id
func TestHandleTurnScenarioA(t *testing.T) {
	retriever := rag.NewRetriever(&MockEmbedder{}, memoryDB.New(), 0.7, 5)
	s := rag.NewService(retriever, newGateway(), store.NewInMemoryConversationStore(), nil, rag.Options{})

	res, err := s.HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello from mistral", res.Response)
	assert.NotNil(t, res.Citations)
	assert.Empty(t, res.Citations)
	assert.NotEmpty(t, res.SessionId)
}

func TestHandleTurnScenarioC(t *testing.T) {
	st := &MockStore{}
	s := rag.NewService(&MockSearcher{}, newGateway(), st, nil, rag.Options{})

	_, err := s.HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "Hello", ModelId: "nonexistent"})
	assert.ErrorIs(t, err, errs.ErrConfigNotFound)
	assert.Empty(t, st.appended)
}

func TestHandleTurnScenarioD(t *testing.T) {
	gen := &MockGenerator{}
	calls := 0
	gen.OnGenerate = func(context.Context, []chatModel.Message, string) (string, error) {
		calls++
		if calls == 1 {
			return "first answer", nil
		}
		return "second answer", nil
	}
	s := rag.NewService(&MockSearcher{}, gen, store.NewInMemoryConversationStore(), nil, rag.Options{})

	first, err := s.HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "first question"})
	require.NoError(t, err)
	second, err := s.HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "second question", SessionId: first.SessionId})
	require.NoError(t, err)

	require.Len(t, second.History, 4)
	assert.Equal(t, chatModel.UserMessage("first question"), second.History[0])
	assert.Equal(t, "first answer", second.History[1].Content)
	assert.Equal(t, chatModel.UserMessage("second question"), second.History[2])
	assert.Equal(t, "second answer", second.History[3].Content)
	assert.Equal(t, first.SessionId, second.SessionId)

	// the second generation saw the first turn before the new message
	sent := gen.received[1]
	assert.Equal(t, "first question", sent[1].Content)
	assert.Equal(t, "first answer", sent[2].Content)
	assert.Equal(t, "second question", sent[3].Content)
}

func TestHandleTurnStripsRoleLabel(t *testing.T) {
	tests := []struct {
		generated string
		want      string
	}{
		{"assistant: hi", "hi"},
		{"Assistant: hi", "hi"},
		{"hi assistant: there", "hi assistant: there"},
		{"ASSISTANT: hi", "ASSISTANT: hi"},
	}
	for _, tt := range tests {
		t.Run(tt.generated, func(t *testing.T) {
			gen := &MockGenerator{OnGenerate: func(context.Context, []chatModel.Message, string) (string, error) {
				return tt.generated, nil
			}}
			st := &MockStore{}
			res, err := rag.NewService(&MockSearcher{}, gen, st, nil, rag.Options{}).HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "q", SessionId: "s"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Response)
			require.Len(t, st.appended, 2)
			assert.Equal(t, tt.want, st.appended[1].Content)
		})
	}
}

func TestHandleTurnPersistsSoftErrors(t *testing.T) {
	gen := &MockGenerator{OnGenerate: func(context.Context, []chatModel.Message, string) (string, error) {
		return "Error communicating with LLM: connection refused", nil
	}}
	st := &MockStore{}
	citations := []chatModel.Citation{{Source: "a.pdf", Text: "alpha"}}
	searcher := &MockSearcher{OnRetrieve: func(context.Context, string, int) ([]chatModel.Citation, error) { return citations, nil }}

	res, err := rag.NewService(searcher, gen, st, nil, rag.Options{}).HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "q", SessionId: "s"})
	require.NoError(t, err)
	assert.Equal(t, citations, res.Citations)
	require.Len(t, st.appended, 2)
	assert.Equal(t, chatModel.RoleUser, st.appended[0].Role)
	assert.Equal(t, citations, st.appended[1].Citations)
}

func TestHandleTurnDegrades(t *testing.T) {
	prior := []chatModel.Message{chatModel.UserMessage("earlier"), chatModel.AssistantMessage("reply", nil)}
	tests := []struct {
		name        string
		searcher    *MockSearcher
		store       *MockStore
		wantHistory int
	}{
		{
			name: "retrieval failure",
			searcher: &MockSearcher{OnRetrieve: func(context.Context, string, int) ([]chatModel.Citation, error) {
				return nil, errors.New("db timeout")
			}},
			store: &MockStore{OnGetMessages: func(context.Context, string) ([]chatModel.Message, error) {
				return prior, nil
			}},
			wantHistory: -1,
		},
		{
			name:     "history failure",
			searcher: &MockSearcher{},
			store: &MockStore{OnGetMessages: func(context.Context, string) ([]chatModel.Message, error) {
				return nil, errors.New("redis down")
			}},
			wantHistory: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockGenerator{}
			res, err := rag.NewService(tt.searcher, gen, tt.store, nil, rag.Options{}).HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "q", SessionId: "s"})
			require.NoError(t, err)
			assert.Equal(t, config.DegradedChatResponse, res.Response)
			assert.Empty(t, res.Citations)
			assert.Equal(t, "s", res.SessionId)
			assert.Empty(t, tt.store.appended)
			assert.Empty(t, gen.received)
			if tt.wantHistory == 0 {
				assert.Empty(t, res.History)
			} else {
				assert.Equal(t, prior, res.History)
			}
		})
	}
}

func TestHandleTurnSurvivesPersistFailure(t *testing.T) {
	st := &MockStore{OnAppend: func(context.Context, string, chatModel.Message) error { return errors.New("disk full") }}
	res, err := rag.NewService(&MockSearcher{}, &MockGenerator{}, st, nil, rag.Options{}).HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "q"})
	require.NoError(t, err)
	assert.Equal(t, "mocked llm response", res.Response)
	assert.Len(t, res.History, 2)
}

func TestHandleTurnPassesContextWindowAndModel(t *testing.T) {
	var gotK int
	var gotModel string
	searcher := &MockSearcher{OnRetrieve: func(_ context.Context, _ string, k int) ([]chatModel.Citation, error) {
		gotK = k
		return nil, nil
	}}
	gen := &MockGenerator{OnGenerate: func(_ context.Context, _ []chatModel.Message, modelId string) (string, error) {
		gotModel = modelId
		return "ok", nil
	}}
	_, err := rag.NewService(searcher, gen, &MockStore{}, nil, rag.Options{}).HandleTurn(ctxWithTrace(), rag.TurnRequest{Message: "q", ModelId: "gpt-4", ContextWindow: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, gotK)
	assert.Equal(t, "gpt-4", gotModel)
}

func TestIngestDocument_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		job            jobModel.Job
		ingestor       *MockIngestor
		expectedStatus jobModel.JobStatus
		expectedSteps  []jobModel.InternalStatus
	}{
		{
			name: "Bucket_Success",
			job:  jobModel.Job{Id: "job-1", JobType: jobModel.JobTypeBucketIngest},
			ingestor: &MockIngestor{OnRun: func(_ context.Context, _ jobModel.IngestParams, progress func(jobModel.InternalStatus)) (jobModel.IngestReport, error) {
				progress(jobModel.IngestListing)
				progress(jobModel.IngestProcessing)
				return jobModel.IngestReport{FilesFound: 2, FilesProcessed: 2, Chunks: 10}, nil
			}},
			expectedStatus: jobModel.JobStatusComplete,
			expectedSteps:  []jobModel.InternalStatus{jobModel.IngestListing, jobModel.IngestProcessing},
		},
		{
			name: "Upload_Failure",
			job:  jobModel.Job{Id: "job-2", JobType: jobModel.JobTypeUploadIngest},
			ingestor: &MockIngestor{OnUpload: func(context.Context, jobModel.IngestParams, func(jobModel.InternalStatus)) (jobModel.IngestReport, error) {
				return jobModel.IngestReport{FilesFound: 1, FilesFailed: 1}, errors.New("unsupported document type")
			}},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var steps []jobModel.InternalStatus
			s := rag.NewService(&MockSearcher{}, &MockGenerator{}, &MockStore{}, tt.ingestor, rag.Options{
				JobUpdates: func(_ context.Context, job jobModel.Job) { steps = append(steps, job.CurrentStep) },
			})

			result := s.IngestDocument(ctxWithTrace(), tt.job)

			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedSteps, steps)
			if tt.expectedStatus == jobModel.JobStatusError {
				assert.Equal(t, http.StatusInternalServerError, result.Error.Code)
				assert.Equal(t, 1, result.Result.FilesFailed)
			} else {
				assert.Equal(t, 10, result.Result.Chunks)
			}
		})
	}
}
