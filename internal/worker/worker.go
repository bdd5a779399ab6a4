package worker

import (
	"context"
	"sync"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/utils"
	"github.com/pkg/errors"
)

const cpuBackoff = 10 * time.Second

// Worker drains the Redis batch queue. Each dequeued job runs the full
// search-and-acquire sequence under a local task registry.
type Worker struct {
	logger     logger.Logger
	redisRepo  subtitles.RedisRepository
	subtitleUC subtitles.UseCase
	tasks      *tasks.Registry
	cfg        *config.Config
	wg         sync.WaitGroup
}

func NewWorker(cfg *config.Config, logger logger.Logger, redisRepo subtitles.RedisRepository, subtitleUC subtitles.UseCase, taskRegistry *tasks.Registry) *Worker {
	return &Worker{
		logger:     logger,
		redisRepo:  redisRepo,
		subtitleUC: subtitleUC,
		tasks:      taskRegistry,
		cfg:        cfg,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting batch worker")
	for i := 0; i < w.cfg.Worker.WorkerCount; i++ {
		w.wg.Add(1)
		go w.worker(ctx, i)
	}
}

func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) worker(ctx context.Context, id int) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if canAcceptJob, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !canAcceptJob {
			w.logger.Infof("worker %d: CPU usage is high: %f", id, usage)
			select {
			case <-ctx.Done():
				return
			case <-time.After(cpuBackoff):
			}
			continue
		}

		if err := w.processOne(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Errorf("worker %d: %v", id, err)
		}
	}
}

func (w *Worker) processOne(ctx context.Context) error {
	job, err := w.redisRepo.DequeueBatch(ctx, w.cfg.Redis.BatchQueueKey)
	if err != nil {
		return errors.Wrap(err, "worker.processOne.DequeueBatch")
	}
	// The queue is a trust boundary: anything can LPush. A malformed job
	// is rejected here instead of crashing a worker goroutine downstream.
	if err := utils.ValidateStruct(ctx, job); err != nil {
		return errors.Wrapf(err, "worker.processOne: rejecting malformed job %q", job.JobID)
	}
	w.logger.Infof("processing batch job %s: %q on %s", job.JobID, job.Keyword, job.Platform)

	id := w.tasks.Create()
	h := tasks.NewHandle(w.tasks, id)
	report, err := w.subtitleUC.RunBatch(ctx, job, h)
	if err != nil {
		h.Fail(err)
		return errors.Wrapf(err, "batch job %s", job.JobID)
	}
	h.Complete(report)
	w.logger.Infof("batch job %s finished: %d/%d acquired", job.JobID, report.Succeeded, report.Total)
	return nil
}
