package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/pkg/logger_i"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
	}
}

// Submit stores a queued ingestion job and hands it to the worker pool.
// The channel send blocks when the buffer is full so a burst of uploads
// cannot overwhelm the process.
func (s *Service) Submit(ctx context.Context, jobType jobModel.JobType, params jobModel.IngestParams) (jobModel.Job, error) {
	log := logger_i.FromContext(ctx, "JobService")
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)

	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     traceId,
		JobType:     jobType,
		Params:      params,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
	}
	if err := s.JobStore.SaveJob(ctx, newJob); err != nil {
		return jobModel.Job{}, fmt.Errorf("save queued job: %w", err)
	}

	metrics.IncrementJobsInQueue()
	select {
	case s.JobChannel <- newJob:
	case <-ctx.Done():
		metrics.DecrementJobsInQueue()
		return jobModel.Job{}, ctx.Err()
	}
	log.Info("Created new job", "jobId", newJob.Id, "type", jobType)

	// ingestion is slow and bursty, every job asks for a worker and idle
	// ones retire on their own
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	metrics.StartDispatcherSignalCount()
	log.Debug("Signalling dispatcher", "requestCount", accurateCount)
	select {
	case s.DispatcherChannel <- true:
	default:
	}
	return newJob, nil
}

func (s *Service) Status(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}

// SaveProgress persists intermediate job state reported by the pipeline.
func (s *Service) SaveProgress(ctx context.Context, job jobModel.Job) {
	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		logger_i.FromContext(ctx, "JobService").Error("Failed to save job progress", "jobId", job.Id, "error", err)
	}
}
