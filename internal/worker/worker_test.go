package worker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	jobs chan *models.BatchJob
}

func (q *fakeQueue) EnqueueBatch(ctx context.Context, key string, job *models.BatchJob) error {
	q.jobs <- job
	return nil
}

func (q *fakeQueue) DequeueBatch(ctx context.Context, key string) (*models.BatchJob, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case job := <-q.jobs:
		return job, nil
	}
}

type fakeBatchUC struct {
	subtitles.UseCase
	runs int32
}

func (u *fakeBatchUC) RunBatch(ctx context.Context, job *models.BatchJob, h *tasks.Handle) (*models.BatchReport, error) {
	atomic.AddInt32(&u.runs, 1)
	return &models.BatchReport{Keyword: job.Keyword, Platform: job.Platform}, nil
}

func newTestWorker(uc *fakeBatchUC) (*Worker, *fakeQueue) {
	cfg := &config.Config{Redis: config.RedisConfig{BatchQueueKey: "batch_jobs"}}
	q := &fakeQueue{jobs: make(chan *models.BatchJob, 4)}
	return NewWorker(cfg, logger.NewNop(), q, uc, tasks.NewRegistry()), q
}

func TestProcessOneRejectsMalformedJob(t *testing.T) {
	uc := &fakeBatchUC{}
	w, q := newTestWorker(uc)

	q.jobs <- &models.BatchJob{JobID: "j1", Keyword: "cooking", Platform: models.PlatformBilibili, MaxResults: -1}

	err := w.processOne(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&uc.runs))
}

func TestProcessOneRejectsOversizedJob(t *testing.T) {
	uc := &fakeBatchUC{}
	w, q := newTestWorker(uc)

	q.jobs <- &models.BatchJob{JobID: "j2", Keyword: "cooking", Platform: models.PlatformBilibili, MaxResults: 500}

	err := w.processOne(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&uc.runs))
}

func TestProcessOneRunsValidJob(t *testing.T) {
	uc := &fakeBatchUC{}
	w, q := newTestWorker(uc)

	q.jobs <- &models.BatchJob{JobID: "j3", Keyword: "cooking", Platform: models.PlatformBilibili, MaxResults: 5}

	require.NoError(t, w.processOne(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&uc.runs))
}
