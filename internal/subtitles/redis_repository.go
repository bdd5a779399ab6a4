package subtitles

import (
	"context"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
)

// RedisRepository is the batch job queue consumed by the worker process.
type RedisRepository interface {
	EnqueueBatch(ctx context.Context, key string, job *models.BatchJob) error
	// DequeueBatch blocks until a job is available.
	DequeueBatch(ctx context.Context, key string) (*models.BatchJob, error)
}
