// Package youtube implements the platform client on top of the local yt-dlp
// binary. YouTube needs no bespoke signing; search, metadata and caption
// download all go through subprocess invocations.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/normalize"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/ratelimit"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
	"github.com/pkg/errors"
)

const commandTimeout = 2 * time.Minute

type Client struct {
	binary  string
	workDir string
	limiter *ratelimit.Limiter
	policy  retry.Policy
	logger  logger.Logger
}

func NewClient(cfg config.DownloaderConfig, limiter *ratelimit.Limiter, policy retry.Policy, log logger.Logger) *Client {
	binary := cfg.BinaryPath
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Client{
		binary:  binary,
		workDir: cfg.DownloadDir,
		limiter: limiter,
		policy:  policy,
		logger:  log,
	}
}

func (c *Client) Platform() models.Platform {
	return models.PlatformYoutube
}

func (c *Client) VideoURL(platformVid string) string {
	return "https://www.youtube.com/watch?v=" + platformVid
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	return retry.DoValue(ctx, c.policy, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, c.binary, args...)
		var out, stderr bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return nil, errors.Wrapf(err, "yt-dlp failed: %s", stderr.String())
		}
		return out.Bytes(), nil
	})
}

type flatEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Uploader  string  `json:"uploader"`
	Duration  float64 `json:"duration"`
	ViewCount int64   `json:"view_count"`
}

func (c *Client) Search(ctx context.Context, keyword string, maxResults int) ([]models.VideoSummary, error) {
	if maxResults < 1 {
		return nil, errors.Errorf("youtube.Search: maxResults must be at least 1, got %d", maxResults)
	}
	out, err := c.run(ctx,
		"ytsearch"+strconv.Itoa(maxResults)+":"+keyword,
		"--dump-json", "--flat-playlist", "--no-warnings",
	)
	if err != nil {
		return nil, err
	}

	videos := make([]models.VideoSummary, 0, maxResults)
	for _, line := range bytes.Split(out, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e flatEntry
		if err := json.Unmarshal(line, &e); err != nil {
			c.logger.Warnf("youtube search: skipping malformed entry: %v", err)
			continue
		}
		videos = append(videos, models.VideoSummary{
			PlatformVid: e.ID,
			Title:       e.Title,
			Author:      e.Uploader,
			Duration:    formatDuration(e.Duration),
			PlayCount:   e.ViewCount,
		})
		if len(videos) >= maxResults {
			break
		}
	}
	return videos, nil
}

type videoEntry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Uploader    string   `json:"uploader"`
	Duration    float64  `json:"duration"`
	ViewCount   int64    `json:"view_count"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
}

func (c *Client) GetVideoInfo(ctx context.Context, platformVid string) (*models.VideoInfo, error) {
	out, err := c.run(ctx, c.VideoURL(platformVid), "--dump-json", "--skip-download", "--no-warnings")
	if err != nil {
		return nil, err
	}
	var e videoEntry
	if err := json.Unmarshal(bytes.TrimSpace(out), &e); err != nil {
		return nil, errors.Wrap(err, "youtube.GetVideoInfo.Unmarshal")
	}
	return &models.VideoInfo{
		PlatformVid: e.ID,
		Title:       e.Title,
		Author:      e.Uploader,
		Duration:    int64(e.Duration),
		ViewCount:   e.ViewCount,
		Description: e.Description,
		Tags:        e.Categories,
		Keywords:    e.Tags,
	}, nil
}

// GetSubtitle downloads the uploaded or auto-generated caption track as
// WebVTT. No produced file means the video simply has no captions.
func (c *Client) GetSubtitle(ctx context.Context, platformVid string) (normalize.Payload, error) {
	outDir := filepath.Join(c.workDir, "subs")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "youtube.GetSubtitle.MkdirAll")
	}
	template := filepath.Join(outDir, platformVid+".%(ext)s")

	if _, err := c.run(ctx, c.VideoURL(platformVid),
		"--skip-download", "--write-subs", "--write-auto-subs",
		"--sub-format", "vtt", "--no-warnings",
		"-o", template,
	); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(outDir, platformVid+"*.vtt"))
	if err != nil || len(matches) == 0 {
		c.logger.Infof("youtube %s: no caption track", platformVid)
		return nil, errs.ErrNoSubtitle
	}
	raw, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, errors.Wrap(err, "youtube.GetSubtitle.ReadFile")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errs.ErrNoSubtitle
	}
	return normalize.WebVTT{Raw: string(raw)}, nil
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	m, s := total/60, total%60
	if m >= 60 {
		return fmt.Sprintf("%d:%02d:%02d", m/60, m%60, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
