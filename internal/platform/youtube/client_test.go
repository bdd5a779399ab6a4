package youtube

import (
	"context"
	"testing"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/ratelimit"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
	"github.com/stretchr/testify/require"
)

func TestSearchRejectsNonPositiveMaxResults(t *testing.T) {
	c := NewClient(
		config.DownloaderConfig{BinaryPath: "/nonexistent/yt-dlp"},
		ratelimit.NewLimiter(10, 100000),
		retry.Policy{MaxRetries: 1},
		logger.NewNop(),
	)

	for _, n := range []int{0, -1, -50} {
		_, err := c.Search(context.Background(), "cooking", n)
		require.Error(t, err)
	}
}
