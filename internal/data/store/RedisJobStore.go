package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/data/redisStore"
	"github.com/akolanti/vellum/internal/domain/jobModel"
	"github.com/akolanti/vellum/pkg/logger_i"
)

const jobKeyPrefix = "job:"

type RedisJobStore struct {
	store *redisStore.Store
}

// GetRedisJobStore returns nil when redis is unreachable.
func GetRedisJobStore(ctx context.Context, addr string) *RedisJobStore {
	s := redisStore.GetRedisStore(ctx, addr, config.RedisJobStore)
	if s == nil {
		return nil
	}
	return &RedisJobStore{store: s}
}

func jobKey(id string) string { return jobKeyPrefix + id }

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := logger_i.FromContext(ctx, "JobStore").With("jobId", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, jobKey(job.Id), data, config.RedisJobStoreTTL)
	if err == nil {
		log.Debug("Saved job to Redis", "step", job.CurrentStep)
	}
	return err
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := logger_i.FromContext(ctx, "JobStore").With("jobId", jobId)
	val, err := s.store.Get(ctx, jobKey(jobId))
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("Error reading job", "error", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("Stored job is unreadable", "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	log := logger_i.FromContext(ctx, "JobStore").With("jobId", jobID)
	if err := s.store.Del(ctx, jobKey(jobID)); err != nil {
		log.Error("Error deleting job from Redis", "error", err)
		return
	}
	log.Debug("Job deleted from Redis")
}

func TestJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{store: store}
}
