package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siap-api/pkg/jobs"
)

type fileRemover interface {
	Delete(name string) error
}

// FileJanitorConfig sizes the removal queue.
type FileJanitorConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// FileJanitor removes stored files that rows no longer reference. Removal runs
// on a background queue once Start has been called and inline otherwise.
type FileJanitor struct {
	storage fileRemover
	queue   *jobs.Queue[string]
	metrics *MetricsService
	logger  *zap.Logger
}

// NewFileJanitor wires a janitor around the given storage.
func NewFileJanitor(storage fileRemover, metrics *MetricsService, logger *zap.Logger, cfg FileJanitorConfig) *FileJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &FileJanitor{storage: storage, metrics: metrics, logger: logger}
	j.queue = jobs.New("file-janitor", j.handle, jobs.Config{
		Workers:    cfg.Workers,
		BufferSize: 256,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return j
}

// Start launches the background workers.
func (j *FileJanitor) Start(ctx context.Context) {
	j.queue.Start(ctx)
}

// Stop waits for the workers and flushes pending removals.
func (j *FileJanitor) Stop() {
	j.queue.Stop()
}

// Remove schedules paths for deletion. Empty paths are skipped.
func (j *FileJanitor) Remove(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		job := jobs.Job[string]{ID: uuid.NewString(), Payload: path}
		err := j.queue.Enqueue(job)
		if err == nil {
			continue
		}
		if !errors.Is(err, jobs.ErrNotStarted) {
			j.logger.Warn("file removal not queued, deleting inline", zap.String("path", path), zap.Error(err))
		}
		if err := j.handle(context.Background(), job); err != nil {
			j.logger.Warn("failed to remove stored file", zap.String("path", path), zap.Error(err))
		}
	}
}

func (j *FileJanitor) handle(_ context.Context, job jobs.Job[string]) error {
	err := j.storage.Delete(job.Payload)
	j.metrics.RecordFileCleanup(err == nil)
	return err
}
