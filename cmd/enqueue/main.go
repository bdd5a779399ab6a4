package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/platform"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/repository"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/usecase"
	clientRedis "github.com/amankumarsingh77/cloud-transcript-service/pkg/db/redis"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/ratelimit"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
)

// Pushes one batch job onto the worker queue. Handy for smoke tests and
// cron-driven ingestion. Jobs go through the use case so flag values get
// the same validation as API submissions.
func main() {
	keyword := flag.String("keyword", "", "search keyword")
	platformName := flag.String("platform", "bilibili", "platform name")
	maxResults := flag.Int("max", 5, "maximum search hits to acquire")
	configFile := flag.String("config", "config.yml", "config file path")
	flag.Parse()

	cfgFile, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	redisClient, err := clientRedis.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("could not connect to redis: %v", err)
	}
	defer redisClient.Close()

	nop := logger.NewNop()
	limiter := ratelimit.NewLimiter(cfg.RateLimit.QPS, cfg.RateLimit.TPM)
	policy := retry.Policy{
		MaxRetries: cfg.Retry.MaxRetries,
		Delay:      time.Duration(cfg.Retry.DelaySeconds) * time.Second,
	}
	platforms := platform.NewRegistry(cfg, limiter, policy, nop)
	redisRepo := repository.NewBatchRedisRepo(redisClient)
	uc := usecase.NewSubtitleUseCase(
		cfg, nil, redisRepo, nil, platforms, nil, nil, nil, nil, policy, nop,
	)

	job := &models.BatchJob{
		Keyword:    *keyword,
		Platform:   models.Platform(*platformName),
		MaxResults: *maxResults,
	}
	if err := uc.EnqueueBatch(context.Background(), job); err != nil {
		log.Fatalf("enqueue: %v", err)
	}
	log.Printf("job %s enqueued: %q on %s (max %d)", job.JobID, job.Keyword, job.Platform, job.MaxResults)
}
