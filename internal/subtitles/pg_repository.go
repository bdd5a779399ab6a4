package subtitles

import (
	"context"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/utils"
	"github.com/google/uuid"
)

// Repository is the persistence boundary for videos and subtitles. All
// writes are idempotent on their natural keys.
type Repository interface {
	GetVideoByPlatformID(ctx context.Context, platform models.Platform, platformVid string) (*models.Video, error)
	UpsertVideo(ctx context.Context, platform models.Platform, info *models.VideoInfo) (*models.Video, error)
	SetVideoAudioPath(ctx context.Context, videoID uuid.UUID, audioPath *string) error
	SetVideoSearchProvenance(ctx context.Context, videoID uuid.UUID, keyword string, rank int) error

	GetSubtitleByPlatformID(ctx context.Context, platform models.Platform, platformVid string) (*models.Subtitle, error)
	UpsertSubtitle(ctx context.Context, subtitle *models.Subtitle) (*models.Subtitle, error)

	ListVideos(ctx context.Context, pq *utils.Pagination) (*models.VideoList, error)
	SearchVideos(ctx context.Context, query string, pq *utils.Pagination) (*models.VideoList, error)
	ListStaleAudio(ctx context.Context, cutoff time.Time) ([]*models.Video, error)
}
