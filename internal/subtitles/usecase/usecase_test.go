package usecase

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/downloader"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/platform"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/normalize"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/transcriber"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) InitLogger()                                 {}
func (nopLogger) Debug(args ...interface{})                   {}
func (nopLogger) Debugf(template string, args ...interface{}) {}
func (nopLogger) Info(args ...interface{})                    {}
func (nopLogger) Infof(template string, args ...interface{})  {}
func (nopLogger) Warn(args ...interface{})                    {}
func (nopLogger) Warnf(template string, args ...interface{})  {}
func (nopLogger) Error(args ...interface{})                   {}
func (nopLogger) Errorf(template string, args ...interface{}) {}
func (nopLogger) Fatal(args ...interface{})                   {}
func (nopLogger) Fatalf(template string, args ...interface{}) {}

type fakeRepo struct {
	videos    map[string]*models.Video
	subtitles map[string]*models.Subtitle
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		videos:    make(map[string]*models.Video),
		subtitles: make(map[string]*models.Subtitle),
	}
}

func repoKey(p models.Platform, vid string) string { return string(p) + "/" + vid }

func (r *fakeRepo) GetVideoByPlatformID(ctx context.Context, p models.Platform, vid string) (*models.Video, error) {
	v, ok := r.videos[repoKey(p, vid)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

func (r *fakeRepo) UpsertVideo(ctx context.Context, p models.Platform, info *models.VideoInfo) (*models.Video, error) {
	key := repoKey(p, info.PlatformVid)
	if v, ok := r.videos[key]; ok {
		v.Title = info.Title
		return v, nil
	}
	v := &models.Video{
		VideoID:     uuid.New(),
		Platform:    p,
		PlatformVid: info.PlatformVid,
		Title:       info.Title,
		Author:      info.Author,
		Duration:    info.Duration,
	}
	r.videos[key] = v
	return v, nil
}

func (r *fakeRepo) SetVideoAudioPath(ctx context.Context, videoID uuid.UUID, audioPath *string) error {
	for _, v := range r.videos {
		if v.VideoID == videoID {
			v.AudioPath = audioPath
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakeRepo) SetVideoSearchProvenance(ctx context.Context, videoID uuid.UUID, keyword string, rank int) error {
	for _, v := range r.videos {
		if v.VideoID == videoID {
			v.SearchKeyword = &keyword
			v.SearchRank = &rank
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakeRepo) GetSubtitleByPlatformID(ctx context.Context, p models.Platform, vid string) (*models.Subtitle, error) {
	s, ok := r.subtitles[repoKey(p, vid)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (r *fakeRepo) UpsertSubtitle(ctx context.Context, subtitle *models.Subtitle) (*models.Subtitle, error) {
	if subtitle.SubtitleID == uuid.Nil {
		subtitle.SubtitleID = uuid.New()
	}
	r.subtitles[repoKey(subtitle.Platform, subtitle.PlatformVid)] = subtitle
	return subtitle, nil
}

func (r *fakeRepo) ListVideos(ctx context.Context, pq *utils.Pagination) (*models.VideoList, error) {
	return &models.VideoList{}, nil
}

func (r *fakeRepo) SearchVideos(ctx context.Context, query string, pq *utils.Pagination) (*models.VideoList, error) {
	return &models.VideoList{}, nil
}

func (r *fakeRepo) ListStaleAudio(ctx context.Context, cutoff time.Time) ([]*models.Video, error) {
	var out []*models.Video
	for _, v := range r.videos {
		if v.AudioPath != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeClient struct {
	platform    models.Platform
	hits        []models.VideoSummary
	searchErr   error
	payloads    map[string]normalize.Payload
	audioURL    string
	infoCalls   int
	searchCalls int
	subCalls    int
}

func (c *fakeClient) Platform() models.Platform { return c.platform }

func (c *fakeClient) Search(ctx context.Context, keyword string, maxResults int) ([]models.VideoSummary, error) {
	c.searchCalls++
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	return c.hits, nil
}

func (c *fakeClient) GetVideoInfo(ctx context.Context, vid string) (*models.VideoInfo, error) {
	c.infoCalls++
	return &models.VideoInfo{PlatformVid: vid, Title: "title-" + vid, Author: "author", AudioURL: c.audioURL}, nil
}

func (c *fakeClient) GetSubtitle(ctx context.Context, vid string) (normalize.Payload, error) {
	c.subCalls++
	if p, ok := c.payloads[vid]; ok {
		return p, nil
	}
	return nil, errs.ErrNoSubtitle
}

func (c *fakeClient) VideoURL(vid string) string { return "https://example.test/" + vid }

type fakeTranscriber struct {
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*transcriber.Result, error) {
	f.calls++
	end := 2.5
	return &transcriber.Result{
		Text:     "generated words",
		Segments: []models.TimedSegment{{Start: 0, End: &end, Text: "generated words"}},
		Language: "en",
	}, nil
}

func (f *fakeTranscriber) ModelName() string { return "whisper-test" }

type fixture struct {
	uc     *subtitleUC
	repo   *fakeRepo
	client *fakeClient
	trans  *fakeTranscriber
	tasks  *tasks.Registry
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo := newFakeRepo()
	client := &fakeClient{platform: models.PlatformBilibili, payloads: map[string]normalize.Payload{}}
	trans := &fakeTranscriber{}
	registry := tasks.NewRegistry()

	cfg := &config.Config{}
	cfg.Batch.MinDelaySeconds = 0.001
	cfg.Batch.MaxDelaySeconds = 0.002
	cfg.Redis.BatchQueueKey = "batch_jobs"

	dl := downloader.NewAudioDownloader(config.DownloaderConfig{
		BinaryPath:  filepath.Join(dir, "missing-yt-dlp"),
		DownloadDir: dir,
	}, nopLogger{})

	uc := NewSubtitleUseCase(
		cfg, repo, nil, nil,
		platform.NewRegistryWithClients(client),
		dl, trans, registry, nil,
		retry.Policy{MaxRetries: 1},
		nopLogger{},
	).(*subtitleUC)

	return &fixture{uc: uc, repo: repo, client: client, trans: trans, tasks: registry, dir: dir}
}

func (f *fixture) seedAudio(t *testing.T, vid string) string {
	t.Helper()
	path := filepath.Join(f.dir, vid+".mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0o644))
	return path
}

func TestAcquireShortCircuitsWhenStored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.UpsertSubtitle(ctx, &models.Subtitle{
		VideoID:     uuid.New(),
		Platform:    models.PlatformBilibili,
		PlatformVid: "BV1",
		Content:     "cached text",
		Source:      models.SubtitleSourceOfficial,
	})
	require.NoError(t, err)

	res, err := f.uc.Acquire(ctx, models.PlatformBilibili, "BV1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResultTypeSubtitle, res.Type)
	assert.Equal(t, "cached text", res.Content)
	assert.Zero(t, f.client.infoCalls)
	assert.Zero(t, f.client.subCalls)
}

func TestAcquireStoresOfficialCaptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client.payloads["BV2"] = normalize.WebVTT{
		Raw: "WEBVTT\nLanguage: en-US\n\n00:00:01.000 --> 00:00:03.500\nHello world",
	}

	res, err := f.uc.Acquire(ctx, models.PlatformBilibili, "BV2", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResultTypeSubtitle, res.Type)
	assert.Equal(t, "Hello world", res.Content)
	assert.Zero(t, f.trans.calls)

	stored, err := f.repo.GetSubtitleByPlatformID(ctx, models.PlatformBilibili, "BV2")
	require.NoError(t, err)
	assert.Equal(t, models.SubtitleSourceOfficial, stored.Source)
	assert.Equal(t, "en", stored.Language)
	assert.Nil(t, stored.ModelName)
}

func TestAcquireSecondCallDoesNoNetworkIO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client.payloads["BV2"] = normalize.WebVTT{
		Raw: "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nhi",
	}

	_, err := f.uc.Acquire(ctx, models.PlatformBilibili, "BV2", nil)
	require.NoError(t, err)
	require.Equal(t, 1, f.client.infoCalls)

	_, err = f.uc.Acquire(ctx, models.PlatformBilibili, "BV2", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.client.infoCalls)
	assert.Equal(t, 1, f.client.subCalls)
}

func TestAcquireTranscribesWhenNoCaptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAudio(t, "BV3")

	id := f.tasks.Create()
	h := tasks.NewHandle(f.tasks, id)
	res, err := f.uc.Acquire(ctx, models.PlatformBilibili, "BV3", h)
	require.NoError(t, err)
	assert.Equal(t, models.ResultTypeAudio, res.Type)
	assert.Equal(t, "generated words", res.Content)
	assert.Equal(t, 1, f.trans.calls)

	stored, err := f.repo.GetSubtitleByPlatformID(ctx, models.PlatformBilibili, "BV3")
	require.NoError(t, err)
	assert.Equal(t, models.SubtitleSourceGenerated, stored.Source)
	require.NotNil(t, stored.ModelName)
	assert.Equal(t, "whisper-test", *stored.ModelName)

	snap := f.tasks.Get(id)
	assert.Equal(t, tasks.StatusTranscribing, snap.Status)
}

func TestAcquireFetchesDirectAudioURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("podcast audio"))
	}))
	defer srv.Close()

	f := newFixture(t)
	f.client.audioURL = srv.URL + "/ep.m4a"
	ctx := context.Background()

	res, err := f.uc.Acquire(ctx, models.PlatformBilibili, "EP1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResultTypeAudio, res.Type)
	assert.Equal(t, 1, f.trans.calls)

	raw, err := os.ReadFile(filepath.Join(f.dir, "EP1.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "podcast audio", string(raw))
}

func TestAcquireFailsWhenDownloadImpossible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Acquire(ctx, models.PlatformBilibili, "BV4", nil)
	require.Error(t, err)
	assert.Zero(t, f.trans.calls)
}

func TestRunBatchFailsOnlyWhenSearchFails(t *testing.T) {
	f := newFixture(t)
	f.client.searchErr = errors.New("search down")

	_, err := f.uc.RunBatch(context.Background(), &models.BatchJob{
		Keyword:    "golang",
		Platform:   models.PlatformBilibili,
		MaxResults: 5,
	}, nil)
	require.Error(t, err)
}

func TestRunBatchIsolatesItemFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client.hits = []models.VideoSummary{
		{PlatformVid: "BV5", Title: "has captions"},
		{PlatformVid: "BV6", Title: "needs download"},
	}
	f.client.payloads["BV5"] = normalize.WebVTT{
		Raw: "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\ncaptioned",
	}

	report, err := f.uc.RunBatch(ctx, &models.BatchJob{
		Keyword:    "golang",
		Platform:   models.PlatformBilibili,
		MaxResults: 5,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "BV6", report.Failures[0].PlatformVid)

	video, err := f.repo.GetVideoByPlatformID(ctx, models.PlatformBilibili, "BV5")
	require.NoError(t, err)
	require.NotNil(t, video.SearchKeyword)
	assert.Equal(t, "golang", *video.SearchKeyword)
	require.NotNil(t, video.SearchRank)
	assert.Equal(t, 1, *video.SearchRank)
}

func TestGetStoredSubtitleMapsMissingRow(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.GetStoredSubtitle(context.Background(), models.PlatformBilibili, "nope")
	assert.ErrorIs(t, err, errs.ErrNoSubtitle)
}

func TestSweepAudioClearsStalePaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := f.seedAudio(t, "BV7")

	video, err := f.repo.UpsertVideo(ctx, models.PlatformBilibili, &models.VideoInfo{PlatformVid: "BV7", Title: "t"})
	require.NoError(t, err)
	require.NoError(t, f.repo.SetVideoAudioPath(ctx, video.VideoID, &path))

	swept, err := f.uc.SweepAudio(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Nil(t, video.AudioPath)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSubmitAcquireRejectsUnknownPlatform(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.SubmitAcquire(models.Platform("vimeo"), "v1")
	assert.ErrorIs(t, err, errs.ErrUnsupportedPlatform)
}
