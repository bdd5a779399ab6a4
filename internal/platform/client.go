// Package platform defines the contract every video platform client
// implements and the factory that selects one by name.
package platform

import (
	"context"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/normalize"
)

// Client fetches search results, metadata and official captions from one
// platform. GetSubtitle is best-effort: a missing or malformed payload is
// reported as errs.ErrNoSubtitle, which is an outcome, not a failure.
type Client interface {
	Platform() models.Platform
	Search(ctx context.Context, keyword string, maxResults int) ([]models.VideoSummary, error)
	GetVideoInfo(ctx context.Context, platformVid string) (*models.VideoInfo, error)
	GetSubtitle(ctx context.Context, platformVid string) (normalize.Payload, error)
	VideoURL(platformVid string) string
}
