package server

import (
	"net/http"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/downloader"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/middleware"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/platform"
	subtitleHttp "github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/delivery/http"
	subtitleRepository "github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/repository"
	subtitleUsecase "github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/usecase"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/transcriber"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/ratelimit"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/utils"
	"github.com/labstack/echo/v4"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	sRepo := subtitleRepository.NewSubtitleRepo(s.db)
	sRedisRepo := subtitleRepository.NewBatchRedisRepo(s.redisClient)
	sAWSRepo := subtitleRepository.NewAwsRepository(s.s3Client, s.preSignClient)

	limiter := ratelimit.NewLimiter(s.cfg.RateLimit.QPS, s.cfg.RateLimit.TPM)
	policy := retry.Policy{
		MaxRetries: s.cfg.Retry.MaxRetries,
		Delay:      time.Duration(s.cfg.Retry.DelaySeconds) * time.Second,
	}
	platforms := platform.NewRegistry(s.cfg, limiter, policy, s.logger)
	dl := downloader.NewAudioDownloader(s.cfg.Downloader, s.logger)
	tr := transcriber.NewWhisperTranscriber(s.cfg.Transcriber, s.logger)

	subtitleUC := subtitleUsecase.NewSubtitleUseCase(
		s.cfg, sRepo, sRedisRepo, sAWSRepo, platforms, dl, tr, s.tasks, s.pool, policy, s.logger,
	)
	s.subtitleUC = subtitleUC
	subtitleHandlers := subtitleHttp.NewSubtitleHandler(subtitleUC, s.tasks, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	subtitleGroup := v1.Group("/subtitles")

	subtitleHttp.MapSubtitleRoutes(subtitleGroup, subtitleHandlers, mw)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
