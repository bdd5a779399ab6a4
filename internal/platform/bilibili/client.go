// Package bilibili implements the signed Bilibili web API client. Every
// request carries the session cookies and, where the endpoint demands it,
// a WBI signature.
package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
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

const (
	searchURL = "https://api.bilibili.com/x/web-interface/wbi/search/all/v2"
	navURL    = "https://api.bilibili.com/x/web-interface/nav"
	viewURL   = "https://api.bilibili.com/x/web-interface/view"
	playerURL = "https://api.bilibili.com/x/player/v2"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	referer          = "https://www.bilibili.com"

	highlightOpen  = `<em class="keyword">`
	highlightClose = `</em>`
)

type Client struct {
	cfg        config.BilibiliConfig
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	policy     retry.Policy
	logger     logger.Logger

	// WBI key fragments rotate server-side; they are fetched once per client
	// session, accepting a small staleness risk over per-request nav calls.
	keysOnce sync.Once
	imgKey   string
	subKey   string
	keysErr  error

	now func() time.Time
}

func NewClient(cfg config.BilibiliConfig, limiter *ratelimit.Limiter, policy retry.Policy, log logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		policy:     policy,
		logger:     log,
		now:        time.Now,
	}
}

func (c *Client) Platform() models.Platform {
	return models.PlatformBilibili
}

func (c *Client) VideoURL(platformVid string) string {
	return "https://www.bilibili.com/video/" + platformVid
}

// getJSON issues one rate-limited, retried GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx, 1); err != nil {
			return err
		}
		u := rawURL
		if len(params) > 0 {
			u += "?" + params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return errors.Wrap(err, "bilibili.getJSON.NewRequest")
		}
		req.Header.Set("User-Agent", c.userAgent())
		req.Header.Set("Referer", referer)
		req.AddCookie(&http.Cookie{Name: "SESSDATA", Value: c.cfg.Sessdata})
		req.AddCookie(&http.Cookie{Name: "bili_jct", Value: c.cfg.BiliJct})
		req.AddCookie(&http.Cookie{Name: "buvid3", Value: c.cfg.Buvid3})

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.Wrap(err, "bilibili.getJSON.Do")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("bilibili.getJSON: unexpected status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "bilibili.getJSON.ReadAll")
		}
		return errors.Wrap(json.Unmarshal(body, out), "bilibili.getJSON.Unmarshal")
	})
}

func (c *Client) userAgent() string {
	if c.cfg.UserAgent != "" {
		return c.cfg.UserAgent
	}
	return defaultUserAgent
}

// wbiKeys fetches the rotating key fragments from the navigation endpoint,
// once per session.
func (c *Client) wbiKeys(ctx context.Context) (string, string, error) {
	c.keysOnce.Do(func() {
		var resp struct {
			Data struct {
				WbiImg struct {
					ImgURL string `json:"img_url"`
					SubURL string `json:"sub_url"`
				} `json:"wbi_img"`
			} `json:"data"`
		}
		if err := c.getJSON(ctx, navURL, nil, &resp); err != nil {
			c.keysErr = errors.Wrap(err, "bilibili.wbiKeys")
			return
		}
		c.imgKey = keyFromURL(resp.Data.WbiImg.ImgURL)
		c.subKey = keyFromURL(resp.Data.WbiImg.SubURL)
		if c.imgKey == "" || c.subKey == "" {
			c.keysErr = errors.New("bilibili.wbiKeys: empty key fragments")
		}
	})
	return c.imgKey, c.subKey, c.keysErr
}

// keyFromURL extracts the key fragment from a wbi image URL, the last path
// segment without its extension.
func keyFromURL(raw string) string {
	seg := raw[strings.LastIndex(raw, "/")+1:]
	if dot := strings.Index(seg, "."); dot >= 0 {
		seg = seg[:dot]
	}
	return seg
}

type searchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Result []struct {
			ResultType string `json:"result_type"`
			Data       []struct {
				Bvid     string `json:"bvid"`
				Title    string `json:"title"`
				Author   string `json:"author"`
				Duration string `json:"duration"`
				Play     int64  `json:"play"`
			} `json:"data"`
		} `json:"result"`
	} `json:"data"`
}

// Search runs a signed keyword search, strips inline highlight markup from
// titles, and caps the result count.
func (c *Client) Search(ctx context.Context, keyword string, maxResults int) ([]models.VideoSummary, error) {
	if maxResults < 1 {
		return nil, errors.Errorf("bilibili.Search: maxResults must be at least 1, got %d", maxResults)
	}
	imgKey, subKey, err := c.wbiKeys(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("page", "1")
	params.Set("order", "totalrank")
	signParams(params, imgKey, subKey, c.now().Unix())

	var resp searchResponse
	if err := c.getJSON(ctx, searchURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.Errorf("bilibili.Search: api code %d: %s", resp.Code, resp.Message)
	}

	videos := make([]models.VideoSummary, 0, maxResults)
	for _, group := range resp.Data.Result {
		if group.ResultType != "video" {
			continue
		}
		for _, v := range group.Data {
			title := strings.ReplaceAll(v.Title, highlightOpen, "")
			title = strings.ReplaceAll(title, highlightClose, "")
			videos = append(videos, models.VideoSummary{
				PlatformVid: v.Bvid,
				Title:       title,
				Author:      v.Author,
				Duration:    v.Duration,
				PlayCount:   v.Play,
			})
			if len(videos) >= maxResults {
				c.logger.Infof("bilibili search %q: %d results", keyword, len(videos))
				return videos, nil
			}
		}
	}
	c.logger.Infof("bilibili search %q: %d results", keyword, len(videos))
	return videos, nil
}

type viewResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Bvid     string `json:"bvid"`
		Aid      int64  `json:"aid"`
		Cid      int64  `json:"cid"`
		Title    string `json:"title"`
		Desc     string `json:"desc"`
		Duration int64  `json:"duration"`
		Tname    string `json:"tname"`
		Owner    struct {
			Name string `json:"name"`
		} `json:"owner"`
		Stat struct {
			View int64 `json:"view"`
		} `json:"stat"`
	} `json:"data"`
}

func (c *Client) view(ctx context.Context, platformVid string) (*viewResponse, error) {
	params := url.Values{}
	params.Set("bvid", platformVid)
	var resp viewResponse
	if err := c.getJSON(ctx, viewURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.Errorf("bilibili.view: api code %d: %s", resp.Code, resp.Message)
	}
	return &resp, nil
}

func (c *Client) GetVideoInfo(ctx context.Context, platformVid string) (*models.VideoInfo, error) {
	resp, err := c.view(ctx, platformVid)
	if err != nil {
		return nil, err
	}
	var tags, keywords []string
	if resp.Data.Tname != "" {
		tags = append(tags, resp.Data.Tname)
		for _, kw := range strings.Split(resp.Data.Tname, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}
	return &models.VideoInfo{
		PlatformVid: platformVid,
		Title:       resp.Data.Title,
		Author:      resp.Data.Owner.Name,
		Duration:    resp.Data.Duration,
		ViewCount:   resp.Data.Stat.View,
		Description: resp.Data.Desc,
		Tags:        tags,
		Keywords:    keywords,
	}, nil
}

type playerResponse struct {
	Code int `json:"code"`
	Data struct {
		Subtitle struct {
			Subtitles []struct {
				Lan         string `json:"lan"`
				SubtitleURL string `json:"subtitle_url"`
			} `json:"subtitles"`
		} `json:"subtitle"`
	} `json:"data"`
}

type subtitleBody struct {
	Body []struct {
		From    float64 `json:"from"`
		To      float64 `json:"to"`
		Content string  `json:"content"`
	} `json:"body"`
}

// GetSubtitle fetches the official caption track when one exists. A missing
// or malformed payload yields errs.ErrNoSubtitle so callers can fall through
// to transcription without treating it as a failure.
func (c *Client) GetSubtitle(ctx context.Context, platformVid string) (normalize.Payload, error) {
	view, err := c.view(ctx, platformVid)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("bvid", platformVid)
	params.Set("cid", fmt.Sprintf("%d", view.Data.Cid))
	var player playerResponse
	if err := c.getJSON(ctx, playerURL, params, &player); err != nil {
		return nil, err
	}
	if player.Code != 0 || len(player.Data.Subtitle.Subtitles) == 0 {
		c.logger.Infof("bilibili %s: no caption track", platformVid)
		return nil, errs.ErrNoSubtitle
	}

	track := player.Data.Subtitle.Subtitles[0]
	trackURL := track.SubtitleURL
	if strings.HasPrefix(trackURL, "//") {
		trackURL = "https:" + trackURL
	}
	var body subtitleBody
	if err := c.getJSON(ctx, trackURL, nil, &body); err != nil {
		return nil, err
	}
	if len(body.Body) == 0 {
		c.logger.Warnf("bilibili %s: caption track %s has empty body", platformVid, track.Lan)
		return nil, errs.ErrNoSubtitle
	}

	segments := make([]models.TimedSegment, 0, len(body.Body))
	texts := make([]string, 0, len(body.Body))
	for _, line := range body.Body {
		end := line.To
		segments = append(segments, models.TimedSegment{
			Start: line.From,
			End:   &end,
			Text:  line.Content,
		})
		texts = append(texts, line.Content)
	}
	return normalize.Transcript{
		Text:     strings.Join(texts, " "),
		Segments: segments,
		Language: track.Lan,
	}, nil
}
