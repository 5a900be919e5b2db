package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/vellum/internal/config"
	jobmodel "github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IngestJobTimeout)
	defer cancel()
	log := logger_i.FromContext(ctx, "Worker").With("jobId", job.Id)
	log.Debug("Processing job", "type", job.JobType)

	job = saveJobState(ctx, job, jobmodel.JobStatusRunning)
	job = _ragService.IngestDocument(ctx, job)
	job.EndTime = time.Now()

	final := jobmodel.JobStatusComplete
	if job.Status == jobmodel.JobStatusError {
		final = jobmodel.JobStatusError
	}
	job = saveJobState(ctx, job, final)
	log.Info("Job finished", "status", job.Status, "files", job.Result.FilesProcessed, "chunks", job.Result.Chunks)
}

// removeWorker expects the caller to have already given up the worker's
// slot in currentWorkerCount.
func removeWorker(id int64, reason string) {
	count := atomic.LoadInt64(&currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "workerId", id, "reason", reason, "workerCount", count)
	workerWaitGroup.Done()
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) jobmodel.Job {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger_i.FromContext(ctx, "Worker").Error("Failed to update job status", "jobId", job.Id, "error", err)
	}
	return job
}
