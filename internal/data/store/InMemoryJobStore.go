package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/pkg/logger_i"
)

type storedJob struct {
	job     jobModel.Job
	savedAt time.Time
}

// InMemoryJobStore keeps jobs for the same TTL the redis store uses, so
// status polling behaves the same on either backend.
type InMemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]storedJob
	ttl  time.Duration
	now  func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs: make(map[string]storedJob),
		ttl:  config.RedisJobStoreTTL,
		now:  time.Now,
	}
}

func (s *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	s.jobs[job.Id] = storedJob{job: job, savedAt: now}
	logger_i.FromContext(ctx, "InMem JobStore").Debug("Saved job", "jobId", job.Id, "status", job.Status, "step", job.CurrentStep)
	return nil
}

func (s *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	s.mu.RLock()
	entry, found := s.jobs[jobId]
	s.mu.RUnlock()
	if found && s.expired(entry, s.now()) {
		found = false
	}
	logger_i.FromContext(ctx, "InMem JobStore").Debug("Job lookup", "jobId", jobId, "found", found)
	if !found {
		return jobModel.Job{}, false
	}
	return entry.job, true
}

func (s *InMemoryJobStore) DeleteJob(_ context.Context, jobId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobId)
}

func (s *InMemoryJobStore) expired(entry storedJob, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.savedAt) > s.ttl
}

func (s *InMemoryJobStore) sweepLocked(now time.Time) {
	for id, entry := range s.jobs {
		if s.expired(entry, now) {
			delete(s.jobs, id)
		}
	}
}
