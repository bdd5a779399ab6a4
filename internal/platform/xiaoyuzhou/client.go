// Package xiaoyuzhou implements the podcast platform client. Xiaoyuzhou has
// no public API; episode metadata comes from the Open Graph tags on the
// episode page, and the audio track is a direct file URL the page declares
// in og:audio.
package xiaoyuzhou

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/normalize"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/ratelimit"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
	"github.com/pkg/errors"
)

const (
	defaultBaseURL = "https://www.xiaoyuzhoufm.com"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer   = "https://www.xiaoyuzhoufm.com/"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	policy     retry.Policy
	logger     logger.Logger
}

func NewClient(limiter *ratelimit.Limiter, policy retry.Policy, log logger.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		policy:     policy,
		logger:     log,
	}
}

func (c *Client) Platform() models.Platform {
	return models.PlatformXiaoyuzhou
}

func (c *Client) VideoURL(platformVid string) string {
	return c.baseURL + "/episode/" + platformVid
}

// Search returns no hits: xiaoyuzhou exposes no public search endpoint, so
// batch runs over this platform come up empty instead of failing.
func (c *Client) Search(ctx context.Context, keyword string, maxResults int) ([]models.VideoSummary, error) {
	c.logger.Infof("xiaoyuzhou search %q: no public search endpoint, returning no hits", keyword)
	return []models.VideoSummary{}, nil
}

// GetSubtitle always reports no captions; podcasts carry no caption track,
// so acquisition falls through to audio transcription.
func (c *Client) GetSubtitle(ctx context.Context, platformVid string) (normalize.Payload, error) {
	return nil, errors.Wrapf(errs.ErrNoSubtitle, "xiaoyuzhou %s", platformVid)
}

func (c *Client) GetVideoInfo(ctx context.Context, platformVid string) (*models.VideoInfo, error) {
	page, err := c.fetchPage(ctx, c.VideoURL(platformVid))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, errors.Wrap(err, "xiaoyuzhou.GetVideoInfo.parse")
	}

	audioURL, ok := metaContent(doc, "og:audio")
	if !ok || audioURL == "" {
		return nil, errors.Errorf("xiaoyuzhou.GetVideoInfo: episode %s declares no audio URL", platformVid)
	}
	title, _ := metaContent(doc, "og:title")
	description, _ := metaContent(doc, "og:description")

	return &models.VideoInfo{
		PlatformVid: platformVid,
		Title:       title,
		Description: description,
		AudioURL:    audioURL,
	}, nil
}

// fetchPage issues one rate-limited, retried GET with browser headers; the
// site rejects clients that look like scripts.
func (c *Client) fetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	return retry.DoValue(ctx, c.policy, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, errors.Wrap(err, "xiaoyuzhou.fetchPage.NewRequest")
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Referer", referer)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "xiaoyuzhou.fetchPage.Do")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("xiaoyuzhou.fetchPage: unexpected status %d for %s", resp.StatusCode, rawURL)
		}
		return io.ReadAll(resp.Body)
	})
}

func metaContent(doc *goquery.Document, property string) (string, bool) {
	return doc.Find(`meta[property="` + property + `"]`).Attr("content")
}
