package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	awspkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/aws"
	apperrors "github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/errors"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/repository"
)

// DefaultStorageDir holds uploads waiting for the worker.
const DefaultStorageDir = "./data/forecast_jobs"

// ForecastWorker persists async uploads, queues them and scores them in
// the background.
type ForecastWorker struct {
	jobs        repository.JobStore
	svc         ForecastService
	dir         string
	logger      *zap.Logger
	metrics     *awspkg.MetricsClient
	pollTimeout time.Duration
	retryDelay  time.Duration
}

func NewForecastWorker(jobs repository.JobStore, svc ForecastService, storageDir string, metrics *awspkg.MetricsClient, logger *zap.Logger) (*ForecastWorker, error) {
	if jobs == nil || svc == nil {
		return nil, errors.New("forecast worker: job store and service are required")
	}
	if storageDir == "" {
		storageDir = DefaultStorageDir
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("forecast worker: create storage dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastWorker{
		jobs:        jobs,
		svc:         svc,
		dir:         storageDir,
		logger:      logger,
		metrics:     metrics,
		pollTimeout: 5 * time.Second,
		retryDelay:  500 * time.Millisecond,
	}, nil
}

// Submit stores the upload on disk and queues a pending job for it.
func (w *ForecastWorker) Submit(ctx context.Context, name string, r io.Reader) (*models.Job, error) {
	now := time.Now().UTC()
	job := &models.Job{
		ID:        uuid.New().String(),
		Status:    models.JobPending,
		FileName:  name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.FilePath = filepath.Join(w.dir, job.ID+".csv")

	f, err := os.OpenFile(job.FilePath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to persist file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(job.FilePath)
		return nil, fmt.Errorf("failed to persist file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(job.FilePath)
		return nil, fmt.Errorf("failed to persist file: %w", err)
	}

	if err := w.jobs.Save(ctx, job); err != nil {
		os.Remove(job.FilePath)
		return nil, err
	}
	if err := w.jobs.Enqueue(ctx, job.ID); err != nil {
		os.Remove(job.FilePath)
		_ = w.jobs.Delete(ctx, job.ID)
		return nil, err
	}

	if w.metrics.IsEnabled() {
		go func() {
			mctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = w.metrics.RecordCount(mctx, awspkg.MetricJobsQueued, map[string]string{"Service": ServiceName})
		}()
	}
	w.logger.Info("Forecast job queued", zap.String("job_id", job.ID), zap.String("file", name))
	return job, nil
}

// Get returns a job by id.
func (w *ForecastWorker) Get(ctx context.Context, id string) (*models.Job, error) {
	return w.jobs.Get(ctx, id)
}

// Process scores one queued job and stores its result or failure. The
// persisted upload is removed either way.
func (w *ForecastWorker) Process(ctx context.Context, id string) error {
	job, err := w.jobs.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("read job %s: %w", id, err)
	}
	defer os.Remove(job.FilePath)

	job.Status = models.JobProcessing
	job.UpdatedAt = time.Now().UTC()
	if err := w.jobs.Save(ctx, job); err != nil {
		return err
	}

	resp, err := w.score(ctx, job)
	job.UpdatedAt = time.Now().UTC()
	if err != nil {
		w.logger.Warn("Forecast job failed", zap.String("job_id", id), zap.Error(err))
		job.Status = models.JobFailed
		job.Error = apperrors.FromError(err)
		return w.jobs.Save(ctx, job)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		job.Status = models.JobFailed
		job.Error = apperrors.ErrInternalServer.Wrap(err)
		return w.jobs.Save(ctx, job)
	}
	job.Status = models.JobDone
	job.Result = b
	w.logger.Info("Forecast job done", zap.String("job_id", id), zap.Int("rows", resp.Rows))
	return w.jobs.Save(ctx, job)
}

func (w *ForecastWorker) score(ctx context.Context, job *models.Job) (*models.ForecastResponse, error) {
	f, err := os.Open(filepath.Clean(job.FilePath))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return w.svc.Forecast(ctx, ForecastInput{Source: models.SourceJob, Name: job.FileName, Body: f})
}

// Run pops job ids until ctx is cancelled.
func (w *ForecastWorker) Run(ctx context.Context) {
	w.logger.Info("forecast worker started", zap.String("queue", repository.QueueKey), zap.String("dir", w.dir))
	for {
		if ctx.Err() != nil {
			w.logger.Info("forecast worker stopping")
			return
		}

		id, err := w.jobs.Dequeue(ctx, w.pollTimeout)
		if errors.Is(err, repository.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.retryDelay):
			}
			continue
		}

		if err := w.Process(ctx, id); err != nil {
			w.logger.Error("forecast job processing failed", zap.String("job_id", id), zap.Error(err))
		}
	}
}

// StartForecastWorker runs the worker in the background.
func StartForecastWorker(ctx context.Context, w *ForecastWorker) {
	go w.Run(ctx)
}
