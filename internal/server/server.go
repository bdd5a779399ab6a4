package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/worker"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	maxHeaderBytes = 1 << 20
	ctxTimeout     = 5
)

type Server struct {
	echo          *echo.Echo
	cfg           *config.Config
	db            *sqlx.DB
	redisClient   *redis.Client
	s3Client      *s3.Client
	preSignClient *s3.PresignClient
	tasks         *tasks.Registry
	pool          *worker.Pool
	subtitleUC    subtitles.UseCase
	logger        logger.Logger
}

func NewServer(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, s3Client *s3.Client, preSignClient *s3.PresignClient, logger logger.Logger) *Server {
	return &Server{
		echo:          echo.New(),
		cfg:           cfg,
		db:            db,
		redisClient:   redisClient,
		s3Client:      s3Client,
		preSignClient: preSignClient,
		tasks:         tasks.NewRegistry(),
		pool:          worker.NewPool(cfg.Worker.WorkerCount, logger),
		logger:        logger,
	}
}

func (s *Server) Run() error {
	if err := s.MapHandlers(s.echo); err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go s.sweepTasks(sweepCtx)
	go s.sweepAudio(sweepCtx)

	s.echo.Server.MaxHeaderBytes = maxHeaderBytes
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	server := &http.Server{
		Addr:         s.cfg.Server.Port,
		ReadTimeout:  time.Second * time.Duration(s.cfg.Server.ReadTimeout),
		IdleTimeout:  time.Second * time.Duration(s.cfg.Server.IdleTimeout),
		WriteTimeout: time.Second * time.Duration(s.cfg.Server.WriteTimeout),
	}
	go func() {
		if err := s.echo.StartServer(server); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("error starting Server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	ctx, shutdown := context.WithTimeout(context.Background(), time.Second*ctxTimeout)
	defer shutdown()
	s.logger.Infof("shutting down server")
	err := s.echo.Server.Shutdown(ctx)

	// In-flight requests are drained before the pool closes its queue, so
	// a submit racing shutdown never hits a closed channel.
	stopSweep()
	s.pool.Stop()
	return err
}

// sweepTasks drops terminal task records past their retention window.
func (s *Server) sweepTasks(ctx context.Context) {
	sweepEvery := time.Duration(s.cfg.Tasks.SweepSeconds) * time.Second
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	ttl := time.Duration(s.cfg.Tasks.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.tasks.CleanOld(ttl); n > 0 {
				s.logger.Infof("task sweep removed %d finished tasks", n)
			}
		}
	}
}

// sweepAudio clears local audio files past the retention window along with
// their archive copies.
func (s *Server) sweepAudio(ctx context.Context) {
	retention := time.Duration(s.cfg.Downloader.RetentionHours) * time.Hour
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.subtitleUC.SweepAudio(ctx, retention)
			if err != nil {
				s.logger.Errorf("audio sweep: %v", err)
				continue
			}
			if n > 0 {
				s.logger.Infof("audio sweep cleared %d files", n)
			}
		}
	}
}
