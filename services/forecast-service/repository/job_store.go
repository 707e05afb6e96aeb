package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
)

const (
	jobKeyPrefix = "forecast:job:"
	// QueueKey is the Redis list the worker pops job ids from.
	QueueKey = "forecast:queue"
	// DefaultJobTTL bounds how long job metadata and results are kept.
	DefaultJobTTL = 24 * time.Hour
)

var (
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueEmpty is returned by Dequeue when nothing arrived in time.
	ErrQueueEmpty = errors.New("queue empty")
)

// JobStore keeps async job state and the queue of pending job ids.
type JobStore interface {
	Save(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	Delete(ctx context.Context, id string) error
	Enqueue(ctx context.Context, id string) error
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

// RedisJobStore stores jobs as JSON under forecast:job:<id> with a TTL and
// queues ids on the forecast:queue list.
type RedisJobStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisJobStore(rdb *redis.Client, ttl time.Duration) *RedisJobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &RedisJobStore{rdb: rdb, ttl: ttl}
}

// JobKey returns the Redis key of a job.
func JobKey(id string) string {
	return jobKeyPrefix + id
}

func (s *RedisJobStore) Save(ctx context.Context, job *models.Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	if err := s.rdb.Set(ctx, JobKey(job.ID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	val, err := s.rdb.Get(ctx, JobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	var job models.Job
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisJobStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, JobKey(id)).Err()
}

func (s *RedisJobStore) Enqueue(ctx context.Context, id string) error {
	if err := s.rdb.RPush(ctx, QueueKey, id).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", id, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job id.
func (s *RedisJobStore) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := s.rdb.BLPop(ctx, timeout, QueueKey).Result()
	if err == redis.Nil {
		return "", ErrQueueEmpty
	}
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", ErrQueueEmpty
	}
	return res[1], nil
}
