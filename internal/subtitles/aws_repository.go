package subtitles

import (
	"context"
	"time"
)

// AWSRepository archives downloaded audio in object storage so transcription
// can be replayed after the local retention sweep.
type AWSRepository interface {
	UploadAudio(ctx context.Context, bucket, key, filePath string) error
	GetPresignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	DeleteAudio(ctx context.Context, bucket, key string) error
}
