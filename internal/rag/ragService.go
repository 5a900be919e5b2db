package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/internal/rag/llm"
	"github.com/akolanti/vellum/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

// Service is what the HTTP layer, the MCP tools and the worker pool call.
// The private struct holds the clients so callers cannot reach past it.
type Service interface {
	HandleTurn(ctx context.Context, req TurnRequest) (TurnResult, error)
	Search(ctx context.Context, query string, k int) ([]chatModel.Citation, error)
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

// Ingestor runs ingestion jobs. ingest.Pipeline satisfies it.
type Ingestor interface {
	Run(ctx context.Context, params jobModel.IngestParams, progress func(jobModel.InternalStatus)) (jobModel.IngestReport, error)
	IngestUpload(ctx context.Context, params jobModel.IngestParams, progress func(jobModel.InternalStatus)) (jobModel.IngestReport, error)
}

// Searcher finds the passages a turn is grounded on. *Retriever satisfies it.
type Searcher interface {
	Retrieve(ctx context.Context, query string, k int) ([]chatModel.Citation, error)
}

// TurnRequest is one chat message. UserId is only logged.
type TurnRequest struct {
	Message       string
	ModelId       string
	SessionId     string
	UserId        string
	ContextWindow int
}

// TurnResult carries the reply and the full thread after the turn.
type TurnResult struct {
	Response  string
	Citations []chatModel.Citation
	History   []chatModel.Message
	SessionId string
}

// Options tunes the service; zero values fall back to config defaults.
type Options struct {
	HistoryWindow int
	// JobUpdates receives every job step change; may be nil.
	JobUpdates func(ctx context.Context, job jobModel.Job)
}

type service struct {
	retriever Searcher
	generator llm.Generator
	store     chatModel.ConversationStore
	ingestor  Ingestor
	options   Options
	logger    *logger_i.Logger
}

func NewService(retriever Searcher, generator llm.Generator, store chatModel.ConversationStore, ingestor Ingestor, options Options) Service {
	if options.HistoryWindow <= 0 {
		options.HistoryWindow = config.HistoryWindow
	}
	return &service{
		retriever: retriever,
		generator: generator,
		store:     store,
		ingestor:  ingestor,
		options:   options,
		logger:    logger_i.NewLogger("RAG Service"),
	}
}

// HandleTurn answers one chat message. Only ErrConfigNotFound is returned
// as an error; any other failure before generation produces the degraded
// reply, which is not persisted.
func (s *service) HandleTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	sessionId := req.SessionId
	if sessionId == "" {
		sessionId = utils.GetNewUUID()
	}
	log := logger_i.FromContext(ctx, "RAG Service").With("sessionId", sessionId, "userId", req.UserId)

	var prior []chatModel.Message
	var citations []chatModel.Citation

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		history, err := s.executeHistoryStep(gctx, sessionId)
		if err != nil {
			return err
		}
		prior = history
		return nil
	})
	g.Go(func() error {
		found, err := s.executeRetrievalStep(gctx, req.Message, req.ContextWindow)
		if err != nil {
			return err
		}
		citations = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return s.degraded(log, sessionId, prior, err), nil
	}

	messages := Assemble(citations, prior, req.Message, s.options.HistoryWindow)

	answer, err := s.executeLLMStep(ctx, messages, req.ModelId)
	if errors.Is(err, errs.ErrConfigNotFound) {
		metrics.IncrementChatTurn("config_not_found")
		return TurnResult{}, err
	}
	if err != nil {
		return s.degraded(log, sessionId, prior, err), nil
	}
	answer = stripRoleLabel(answer)

	userMsg := chatModel.UserMessage(req.Message)
	assistantMsg := chatModel.AssistantMessage(answer, citations)
	s.executePersistStep(ctx, log, sessionId, userMsg, assistantMsg)

	history := make([]chatModel.Message, 0, len(prior)+2)
	history = append(history, prior...)
	history = append(history, userMsg, assistantMsg)

	metrics.IncrementChatTurn("ok")
	return TurnResult{
		Response:  answer,
		Citations: citations,
		History:   history,
		SessionId: sessionId,
	}, nil
}

func (s *service) Search(ctx context.Context, query string, k int) ([]chatModel.Citation, error) {
	return s.retriever.Retrieve(ctx, query, k)
}

// IngestDocument runs an ingestion job to completion and reports progress
// through Options.JobUpdates.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	progress := func(step jobModel.InternalStatus) {
		job = logOutput(job, step, logger_i.FromContext(ctx, "RAG Service"))
		if s.options.JobUpdates != nil {
			s.options.JobUpdates(ctx, job)
		}
	}

	var report jobModel.IngestReport
	var err error
	switch job.JobType {
	case jobModel.JobTypeUploadIngest:
		report, err = s.ingestor.IngestUpload(ctx, job.Params, progress)
	default:
		report, err = s.ingestor.Run(ctx, job.Params, progress)
	}
	job.Result = report
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE", true)
	}
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	return job
}

func (s *service) degraded(log *logger_i.Logger, sessionId string, prior []chatModel.Message, err error) TurnResult {
	log.Error("Chat turn degraded", "error", err)
	metrics.IncrementChatTurn("degraded")
	history := prior
	if history == nil {
		history = []chatModel.Message{}
	}
	return TurnResult{
		Response:  config.DegradedChatResponse,
		Citations: []chatModel.Citation{},
		History:   history,
		SessionId: sessionId,
	}
}

var roleLabels = []string{"assistant: ", "Assistant: "}

// stripRoleLabel removes a role prefix some models echo back.
func stripRoleLabel(text string) string {
	for _, label := range roleLabels {
		if strings.HasPrefix(text, label) {
			return strings.TrimPrefix(text, label)
		}
	}
	return text
}
