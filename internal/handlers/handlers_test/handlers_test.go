package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/vellum/internal/api"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/data/store"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/handlers"
	"github.com/akolanti/vellum/internal/job"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/akolanti/vellum/internal/rag/ingest/objectSource"
	"github.com/akolanti/vellum/internal/registry"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockRagService struct {
	OnHandleTurn func(ctx context.Context, req rag.TurnRequest) (rag.TurnResult, error)
	received     []rag.TurnRequest
}

func (m *MockRagService) HandleTurn(ctx context.Context, req rag.TurnRequest) (rag.TurnResult, error) {
	m.received = append(m.received, req)
	if m.OnHandleTurn != nil {
		return m.OnHandleTurn(ctx, req)
	}
	return rag.TurnResult{Response: "ok", Citations: []chatModel.Citation{}, SessionId: "s-1"}, nil
}

func (m *MockRagService) Search(ctx context.Context, query string, k int) ([]chatModel.Citation, error) {
	return []chatModel.Citation{}, nil
}

func (m *MockRagService) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job {
	return j
}

type fixture struct {
	router   http.Handler
	rag      *MockRagService
	jobs     *job.Service
	convos   *store.InMemoryConversationStore
	registry *registry.MemoryRegistry
	filesDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rag: &MockRagService{},
		jobs: job.InitJobService(job.ServiceConfig{
			JobChannel:        make(chan jobModel.Job, 10),
			DispatcherChannel: make(chan bool, 1),
			JobStore:          store.InitInMemoryJobStore(),
		}),
		convos:   store.NewInMemoryConversationStore(),
		registry: registry.New(registry.DefaultModels()),
		filesDir: t.TempDir(),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(f.filesDir, "documents"), 0o755))

	handlers.InitHandlers(handlers.Dependencies{
		Rag:              f.rag,
		Jobs:             f.jobs,
		Conversations:    f.convos,
		Registry:         f.registry,
		Files:            objectSource.NewLocal(f.filesDir),
		Bucket:           "documents",
		CitationMaxChars: 10,
		UploadDir:        t.TempDir(),
	})

	r := chi.NewRouter()
	r.Get("/", handlers.GetHandler)
	r.Get("/health", handlers.HealthHandler)
	r.Post("/chat", handlers.ChatHandler)
	r.Get("/history", handlers.HistoryListHandler)
	r.Get("/history/{session_id}", handlers.HistorySessionHandler)
	r.Get("/admin/models", handlers.ListModelsHandler)
	r.Post("/admin/models", handlers.CreateModelHandler)
	r.Put("/admin/models/{id}", handlers.UpdateModelHandler)
	r.Post("/admin/ingest", handlers.PostAdminIngestHandler)
	r.Post("/ingest", handlers.PostIngestHandler)
	r.Get("/status/{id}", handlers.GetStatusHandler)
	r.Get("/files/{filename}", handlers.FileHandler)
	f.router = r
	return f
}

func (f *fixture) do(method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req = req.WithContext(context.WithValue(req.Context(), config.TRACE_ID_KEY, "trace-1"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServiceEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[api.WelcomeResponse](t, rec).Message, config.ProjectName)
}

func TestChatHandler(t *testing.T) {
	score := 0.5
	tests := []struct {
		name     string
		body     string
		turn     func(ctx context.Context, req rag.TurnRequest) (rag.TurnResult, error)
		wantCode int
		wantMsg  string
	}{
		{name: "missing message", body: `{"session_id":"x"}`, wantCode: http.StatusBadRequest, wantMsg: "message is required"},
		{name: "malformed json", body: `{"message":`, wantCode: http.StatusBadRequest, wantMsg: "malformed request body"},
		{name: "context window out of range", body: `{"message":"hi","context_window":500}`, wantCode: http.StatusBadRequest, wantMsg: "context_window failed max"},
		{
			name: "unknown model",
			body: `{"message":"hi","model_id":"nope"}`,
			turn: func(ctx context.Context, req rag.TurnRequest) (rag.TurnResult, error) {
				return rag.TurnResult{}, fmt.Errorf("model id %q: %w", req.ModelId, errs.ErrConfigNotFound)
			},
			wantCode: http.StatusNotFound,
			wantMsg:  "model config not found",
		},
		{
			name: "unexpected failure",
			body: `{"message":"hi"}`,
			turn: func(ctx context.Context, req rag.TurnRequest) (rag.TurnResult, error) {
				return rag.TurnResult{}, errors.New("boom")
			},
			wantCode: http.StatusInternalServerError,
			wantMsg:  "chat failed",
		},
		{
			name: "success truncates citations",
			body: `{"message":"hi","model_id":"mistral","session_id":"s-9","context_window":3}`,
			turn: func(ctx context.Context, req rag.TurnRequest) (rag.TurnResult, error) {
				cites := []chatModel.Citation{{Source: "a.pdf", Page: 2, Text: "0123456789abcdef", RelevanceScore: &score}}
				return rag.TurnResult{
					Response:  "answer",
					Citations: cites,
					History:   []chatModel.Message{chatModel.UserMessage("hi"), chatModel.AssistantMessage("answer", cites)},
					SessionId: req.SessionId,
				}, nil
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.rag.OnHandleTurn = tt.turn
			rec := f.do(http.MethodPost, "/chat", []byte(tt.body), "application/json")
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode != http.StatusOK {
				body := decode[api.ErrorResponse](t, rec)
				assert.Equal(t, tt.wantCode, body.Code)
				assert.Contains(t, body.Message, tt.wantMsg)
				assert.Equal(t, "trace-1", body.TraceId)
				return
			}

			body := decode[api.ChatResponse](t, rec)
			assert.Equal(t, "answer", body.Response)
			assert.Equal(t, "s-9", body.SessionId)
			require.Len(t, body.Citations, 1)
			assert.Equal(t, "0123456789...", body.Citations[0].Text)
			require.Len(t, body.History, 2)
			assert.Len(t, body.History[1].Citations, 1)

			require.Len(t, f.rag.received, 1)
			assert.Equal(t, rag.TurnRequest{Message: "hi", ModelId: "mistral", SessionId: "s-9", ContextWindow: 3}, f.rag.received[0])
		})
	}
}

func TestChatHandlerEmptyCitationsIsArray(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/chat", []byte(`{"message":"hi"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"citations":[]`)
	assert.Contains(t, rec.Body.String(), `"history":[]`)
}

func TestHistoryHandlers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.convos.Append(ctx, "s1", chatModel.UserMessage("first question")))
	require.NoError(t, f.convos.Append(ctx, "s1", chatModel.AssistantMessage("first answer", nil)))
	require.NoError(t, f.convos.Append(ctx, "s2", chatModel.UserMessage("second question")))

	rec := f.do(http.MethodGet, "/history?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.ConversationSummaryResponse](t, rec), 1)

	rec = f.do(http.MethodGet, "/history?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/history/s1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[[]api.MessageResponse](t, rec)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "first answer", msgs[1].Content)

	rec = f.do(http.MethodGet, "/history/unknown", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestModelAdminHandlers(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/admin/models", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.ModelConfigResponse](t, rec), len(registry.DefaultModels()))

	create := `{"id":"gpt-4o","name":"GPT-4o","provider":"OpenAI","api_key":"sk-secret","is_active":true}`
	rec = f.do(http.MethodPost, "/admin/models", []byte(create), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.ModelConfigResponse](t, rec)
	assert.Equal(t, "****", created.ApiKey)
	assert.Equal(t, "openai", created.Provider)

	active, ok := f.registry.GetActive()
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", active.Id)
	assert.Equal(t, "sk-secret", active.ApiKey)

	rec = f.do(http.MethodPost, "/admin/models", []byte(create), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/admin/models", []byte(`{"id":"x"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	update := `{"id":"ignored","name":"GPT-4o mini","provider":"openai","api_key":"****","is_active":true}`
	rec = f.do(http.MethodPut, "/admin/models/gpt-4o", []byte(update), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated, err := f.registry.Get("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "GPT-4o mini", updated.Name)
	assert.Equal(t, "sk-secret", updated.ApiKey)

	rec = f.do(http.MethodPut, "/admin/models/ghost", []byte(update), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminIngestQueuesJob(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/admin/ingest", nil, "application/json")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	initResp := decode[api.InitJobResponse](t, rec)
	assert.Equal(t, config.APIV1Prefix+"/status/"+initResp.Id, initResp.StatusURL)

	queued := <-f.jobs.JobChannel
	assert.Equal(t, initResp.Id, queued.Id)
	assert.Equal(t, jobModel.JobTypeBucketIngest, queued.JobType)
	assert.Equal(t, "documents", queued.Params.Bucket)
	assert.Equal(t, "trace-1", queued.TraceId)

	rec = f.do(http.MethodGet, "/status/"+initResp.Id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[api.JobResponse](t, rec)
	assert.Equal(t, string(jobModel.JobStatusQueued), status.Status)
	assert.Nil(t, status.Result)

	rec = f.do(http.MethodPost, "/admin/ingest", []byte(`{"chunk_size":10}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/status/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartBody(t *testing.T, filename, content string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestUploadIngest(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "notes.md", "agentic systems plan and act")
	rec := f.do(http.MethodPost, "/ingest", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	queued := <-f.jobs.JobChannel
	assert.Equal(t, jobModel.JobTypeUploadIngest, queued.JobType)
	assert.Equal(t, "notes.md", queued.Params.FileName)
	data, err := os.ReadFile(queued.Params.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "agentic systems plan and act", string(data))

	body, ct = multipartBody(t, "malware.exe", "nope")
	rec = f.do(http.MethodPost, "/ingest", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/ingest", []byte("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileHandler(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.filesDir, "documents", "paper.txt"), []byte("paper body"), 0o644))

	rec := f.do(http.MethodGet, "/files/paper.txt", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paper body", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = f.do(http.MethodGet, "/files/missing.pdf", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
