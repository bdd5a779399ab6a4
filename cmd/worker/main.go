package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/downloader"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/platform"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/repository"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/usecase"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/transcriber"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/worker"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/db/aws"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/db/postgres"
	clientRedis "github.com/amankumarsingh77/cloud-transcript-service/pkg/db/redis"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/ratelimit"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
)

func main() {
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	defer psqlDB.Close()

	redisClient, err := clientRedis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	appLogger.Infof("redis connected")
	defer redisClient.Close()

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Infof("could not connect to s3: %s", err)
	}

	sRepo := repository.NewSubtitleRepo(psqlDB)
	sRedisRepo := repository.NewBatchRedisRepo(redisClient)
	sAWSRepo := repository.NewAwsRepository(s3Client, presignClient)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.QPS, cfg.RateLimit.TPM)
	policy := retry.Policy{
		MaxRetries: cfg.Retry.MaxRetries,
		Delay:      time.Duration(cfg.Retry.DelaySeconds) * time.Second,
	}
	platforms := platform.NewRegistry(cfg, limiter, policy, appLogger)
	dl := downloader.NewAudioDownloader(cfg.Downloader, appLogger)
	tr := transcriber.NewWhisperTranscriber(cfg.Transcriber, appLogger)

	taskRegistry := tasks.NewRegistry()
	pool := worker.NewPool(cfg.Worker.WorkerCount, appLogger)
	subtitleUC := usecase.NewSubtitleUseCase(
		cfg, sRepo, sRedisRepo, sAWSRepo, platforms, dl, tr, taskRegistry, pool, policy, appLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down worker")
		cancel()
	}()

	w := worker.NewWorker(cfg, appLogger, sRedisRepo, subtitleUC, taskRegistry)
	w.Start(ctx)
	w.Wait()
	pool.Stop()
}
