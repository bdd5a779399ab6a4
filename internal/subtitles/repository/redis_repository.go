package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

type batchRedisRepo struct {
	redisClient *redis.Client
}

func NewBatchRedisRepo(redisClient *redis.Client) subtitles.RedisRepository {
	return &batchRedisRepo{
		redisClient: redisClient,
	}
}

func (r *batchRedisRepo) EnqueueBatch(ctx context.Context, key string, job *models.BatchJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	return errors.Wrap(r.redisClient.LPush(ctx, key, job).Err(), "batchRedisRepo.EnqueueBatch")
}

func (r *batchRedisRepo) DequeueBatch(ctx context.Context, key string) (*models.BatchJob, error) {
	res, err := r.redisClient.BLPop(ctx, 0*time.Second, key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "batchRedisRepo.DequeueBatch")
	}
	job := &models.BatchJob{}
	if err = json.Unmarshal([]byte(res[1]), job); err != nil {
		return nil, errors.Wrap(err, "batchRedisRepo.DequeueBatch.Unmarshal")
	}
	return job, nil
}
