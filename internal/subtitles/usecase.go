package subtitles

import (
	"context"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/utils"
)

// UseCase drives the acquisition pipeline: fallback chain per video, batch
// coordination over a search result set, and read access to stored content.
type UseCase interface {
	// Acquire runs the fallback chain synchronously for one video, reporting
	// progress through job. Exhausted-retry errors propagate to the caller,
	// who owns marking the task failed.
	Acquire(ctx context.Context, platform models.Platform, platformVid string, job *tasks.Handle) (*models.AcquireResult, error)

	// RunBatch searches and drives Acquire over the hits sequentially.
	RunBatch(ctx context.Context, job *models.BatchJob, h *tasks.Handle) (*models.BatchReport, error)

	// SubmitAcquire and SubmitBatch schedule background execution on the
	// acquisition pool and return the owning task id.
	SubmitAcquire(platform models.Platform, platformVid string) (string, error)
	SubmitBatch(job *models.BatchJob) (string, error)

	// EnqueueBatch hands a batch job to the Redis queue for the standalone
	// worker process.
	EnqueueBatch(ctx context.Context, job *models.BatchJob) error

	GetStoredSubtitle(ctx context.Context, platform models.Platform, platformVid string) (*models.Subtitle, error)
	// GetAudioURL returns a time-limited link to the archived audio copy.
	GetAudioURL(ctx context.Context, platform models.Platform, platformVid string) (string, error)
	ListVideos(ctx context.Context, pq *utils.Pagination) (*models.VideoList, error)
	SearchVideos(ctx context.Context, query string, pq *utils.Pagination) (*models.VideoList, error)

	// SweepAudio clears local audio files older than maxAge and their
	// archive copies.
	SweepAudio(ctx context.Context, maxAge time.Duration) (int, error)
}
