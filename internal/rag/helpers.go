package rag

import (
	"context"
	"net/http"
	"time"

	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/pkg/logger_i"
)

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("IngestDocument", "jobId", job.Id, "step", job.CurrentStep)
	return job
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "jobId", job.Id, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) executeHistoryStep(ctx context.Context, sessionId string) ([]chatModel.Message, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("history_load", time.Since(start)) }()

	return s.store.GetMessages(ctx, sessionId)
}

func (s *service) executeRetrievalStep(ctx context.Context, query string, k int) ([]chatModel.Citation, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, query, k)
}

func (s *service) executeLLMStep(ctx context.Context, messages []chatModel.Message, modelId string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.generator.Generate(ctx, messages, modelId)
}

// executePersistStep appends user then assistant. A failure is logged and
// the turn still succeeds.
func (s *service) executePersistStep(ctx context.Context, log *logger_i.Logger, sessionId string, user, assistant chatModel.Message) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("persist", time.Since(start)) }()

	if err := s.store.Append(ctx, sessionId, user); err != nil {
		log.Error("Failed to persist user message", "error", err)
		return
	}
	if err := s.store.Append(ctx, sessionId, assistant); err != nil {
		log.Error("Failed to persist assistant message", "error", err)
	}
}
