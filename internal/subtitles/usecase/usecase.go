package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/downloader"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/platform"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles/normalize"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/transcriber"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/worker"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const presignExpiry = 15 * time.Minute

// subtitleUC drives the acquisition fallback chain: stored subtitle, then
// official captions, then audio download plus transcription.
type subtitleUC struct {
	cfg         *config.Config
	repo        subtitles.Repository
	redisRepo   subtitles.RedisRepository
	awsRepo     subtitles.AWSRepository
	platforms   *platform.Registry
	downloader  *downloader.AudioDownloader
	transcriber transcriber.Transcriber
	tasks       *tasks.Registry
	pool        *worker.Pool
	policy      retry.Policy
	logger      logger.Logger
}

func NewSubtitleUseCase(
	cfg *config.Config,
	repo subtitles.Repository,
	redisRepo subtitles.RedisRepository,
	awsRepo subtitles.AWSRepository,
	platforms *platform.Registry,
	dl *downloader.AudioDownloader,
	tr transcriber.Transcriber,
	taskRegistry *tasks.Registry,
	pool *worker.Pool,
	policy retry.Policy,
	log logger.Logger,
) subtitles.UseCase {
	return &subtitleUC{
		cfg:         cfg,
		repo:        repo,
		redisRepo:   redisRepo,
		awsRepo:     awsRepo,
		platforms:   platforms,
		downloader:  dl,
		transcriber: tr,
		tasks:       taskRegistry,
		pool:        pool,
		policy:      policy,
		logger:      log,
	}
}

func (u *subtitleUC) Acquire(ctx context.Context, p models.Platform, platformVid string, job *tasks.Handle) (*models.AcquireResult, error) {
	job.SetStatus(tasks.StatusProcessing)
	job.SetProgress(5, "checking stored subtitles")

	if sub, err := u.repo.GetSubtitleByPlatformID(ctx, p, platformVid); err == nil {
		job.Log("info", "subtitle already stored, skipping acquisition")
		return u.resultFromStored(ctx, sub), nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	client, err := u.platforms.Client(p)
	if err != nil {
		return nil, err
	}

	job.SetProgress(15, "fetching video metadata")
	info, err := client.GetVideoInfo(ctx, platformVid)
	if err != nil {
		return nil, err
	}
	video, err := u.repo.UpsertVideo(ctx, p, info)
	if err != nil {
		return nil, err
	}

	job.SetProgress(30, "checking official captions")
	payload, err := client.GetSubtitle(ctx, platformVid)
	switch {
	case err == nil:
		norm, nerr := normalize.Normalize(payload)
		if nerr != nil {
			return nil, nerr
		}
		sub, perr := u.persistSubtitle(ctx, video, norm, models.SubtitleSourceOfficial, nil)
		if perr != nil {
			return nil, perr
		}
		job.Log("info", "official captions stored")
		job.SetProgress(95, "official captions stored")
		return &models.AcquireResult{
			Type:        models.ResultTypeSubtitle,
			Content:     sub.Content,
			VideoID:     video.VideoID.String(),
			PlatformVid: platformVid,
			Platform:    p,
			Title:       video.Title,
		}, nil
	case errors.Is(err, errs.ErrNoSubtitle):
		job.Log("info", "no official captions, falling back to audio")
	default:
		return nil, err
	}

	audioPath, ok := u.existingAudio(video, platformVid)
	if ok {
		job.Log("info", "reusing downloaded audio "+audioPath)
	} else {
		job.SetStatus(tasks.StatusDownloading)
		job.SetProgress(45, "downloading audio")
		audioPath, err = retry.DoValue(ctx, u.policy, func(ctx context.Context) (string, error) {
			if info.AudioURL != "" {
				return u.downloader.FetchDirect(ctx, info.AudioURL, platformVid)
			}
			return u.downloader.Download(ctx, client.VideoURL(platformVid), platformVid)
		})
		if err != nil {
			return nil, err
		}
		if err = u.repo.SetVideoAudioPath(ctx, video.VideoID, &audioPath); err != nil {
			return nil, err
		}
		u.archiveAudio(ctx, p, platformVid, audioPath)
	}

	job.SetStatus(tasks.StatusTranscribing)
	job.SetProgress(70, "transcribing audio")
	res, err := u.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	norm, err := normalize.Normalize(normalize.Transcript{
		Text:     res.Text,
		Segments: res.Segments,
		Language: res.Language,
	})
	if err != nil {
		return nil, err
	}
	model := u.transcriber.ModelName()
	job.SetProgress(95, "persisting transcript")
	sub, err := u.persistSubtitle(ctx, video, norm, models.SubtitleSourceGenerated, &model)
	if err != nil {
		return nil, err
	}
	return &models.AcquireResult{
		Type:        models.ResultTypeAudio,
		Content:     sub.Content,
		VideoID:     video.VideoID.String(),
		PlatformVid: platformVid,
		Platform:    p,
		Title:       video.Title,
	}, nil
}

// resultFromStored rebuilds the result shape for the dedup short-circuit.
func (u *subtitleUC) resultFromStored(ctx context.Context, sub *models.Subtitle) *models.AcquireResult {
	resType := models.ResultTypeSubtitle
	if sub.Source == models.SubtitleSourceGenerated {
		resType = models.ResultTypeAudio
	}
	res := &models.AcquireResult{
		Type:        resType,
		Content:     sub.Content,
		VideoID:     sub.VideoID.String(),
		PlatformVid: sub.PlatformVid,
		Platform:    sub.Platform,
	}
	if video, err := u.repo.GetVideoByPlatformID(ctx, sub.Platform, sub.PlatformVid); err == nil {
		res.Title = video.Title
	}
	return res
}

func (u *subtitleUC) persistSubtitle(ctx context.Context, video *models.Video, norm *normalize.Normalized, source models.SubtitleSource, model *string) (*models.Subtitle, error) {
	return u.repo.UpsertSubtitle(ctx, &models.Subtitle{
		VideoID:     video.VideoID,
		Platform:    video.Platform,
		PlatformVid: video.PlatformVid,
		Content:     norm.PlainText,
		Timed:       norm.Timed,
		Source:      source,
		Language:    norm.Language,
		ModelName:   model,
	})
}

// existingAudio prefers the recorded path, falling back to a directory scan,
// and trusts neither without a non-empty file on disk.
func (u *subtitleUC) existingAudio(video *models.Video, platformVid string) (string, bool) {
	if video.AudioPath != nil && *video.AudioPath != "" {
		if info, err := os.Stat(*video.AudioPath); err == nil && info.Size() > 0 {
			return *video.AudioPath, true
		}
	}
	return u.downloader.Existing(platformVid)
}

// archiveAudio copies the file to object storage. Archive failures are
// logged, not propagated: the local copy is enough to finish the pipeline.
func (u *subtitleUC) archiveAudio(ctx context.Context, p models.Platform, platformVid, audioPath string) {
	if u.awsRepo == nil || u.cfg.S3.AudioBucket == "" {
		return
	}
	key := audioKey(p, platformVid)
	if err := u.awsRepo.UploadAudio(ctx, u.cfg.S3.AudioBucket, key, audioPath); err != nil {
		u.logger.Warnf("subtitleUC.archiveAudio: %v", err)
	}
}

func audioKey(p models.Platform, platformVid string) string {
	return fmt.Sprintf("%s/%s.mp3", p, platformVid)
}

func (u *subtitleUC) SubmitAcquire(p models.Platform, platformVid string) (string, error) {
	if _, err := u.platforms.Client(p); err != nil {
		return "", err
	}
	id := u.tasks.Create()
	h := tasks.NewHandle(u.tasks, id)
	u.pool.Submit(func() {
		res, err := u.Acquire(context.Background(), p, platformVid, h)
		if err != nil {
			u.logger.Errorf("acquire %s/%s failed: %v", p, platformVid, err)
			h.Fail(err)
			return
		}
		h.Complete(res)
	})
	return id, nil
}

func (u *subtitleUC) SubmitBatch(job *models.BatchJob) (string, error) {
	if err := utils.ValidateStruct(context.Background(), job); err != nil {
		return "", errors.Wrap(err, "subtitleUC.SubmitBatch.ValidateStruct")
	}
	if _, err := u.platforms.Client(job.Platform); err != nil {
		return "", err
	}
	id := u.tasks.Create()
	h := tasks.NewHandle(u.tasks, id)
	u.pool.Submit(func() {
		report, err := u.RunBatch(context.Background(), job, h)
		if err != nil {
			u.logger.Errorf("batch %q on %s failed: %v", job.Keyword, job.Platform, err)
			h.Fail(err)
			return
		}
		h.Complete(report)
	})
	return id, nil
}

func (u *subtitleUC) EnqueueBatch(ctx context.Context, job *models.BatchJob) error {
	if err := utils.ValidateStruct(ctx, job); err != nil {
		return errors.Wrap(err, "subtitleUC.EnqueueBatch.ValidateStruct")
	}
	if _, err := u.platforms.Client(job.Platform); err != nil {
		return err
	}
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	job.EnqueuedAt = time.Now()
	return u.redisRepo.EnqueueBatch(ctx, u.cfg.Redis.BatchQueueKey, job)
}

func (u *subtitleUC) GetStoredSubtitle(ctx context.Context, p models.Platform, platformVid string) (*models.Subtitle, error) {
	sub, err := u.repo.GetSubtitleByPlatformID(ctx, p, platformVid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(errs.ErrNoSubtitle, "%s/%s", p, platformVid)
		}
		return nil, err
	}
	return sub, nil
}

func (u *subtitleUC) GetAudioURL(ctx context.Context, p models.Platform, platformVid string) (string, error) {
	if u.awsRepo == nil || u.cfg.S3.AudioBucket == "" {
		return "", errors.New("audio archive is not configured")
	}
	if _, err := u.repo.GetVideoByPlatformID(ctx, p, platformVid); err != nil {
		return "", err
	}
	return u.awsRepo.GetPresignedURL(ctx, u.cfg.S3.AudioBucket, audioKey(p, platformVid), presignExpiry)
}

func (u *subtitleUC) ListVideos(ctx context.Context, pq *utils.Pagination) (*models.VideoList, error) {
	return u.repo.ListVideos(ctx, pq)
}

func (u *subtitleUC) SearchVideos(ctx context.Context, query string, pq *utils.Pagination) (*models.VideoList, error) {
	return u.repo.SearchVideos(ctx, query, pq)
}

func (u *subtitleUC) SweepAudio(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	videos, err := u.repo.ListStaleAudio(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, video := range videos {
		if video.AudioPath != nil && *video.AudioPath != "" {
			if err := os.Remove(*video.AudioPath); err != nil && !os.IsNotExist(err) {
				u.logger.Warnf("subtitleUC.SweepAudio: remove %s: %v", *video.AudioPath, err)
				continue
			}
		}
		if err := u.repo.SetVideoAudioPath(ctx, video.VideoID, nil); err != nil {
			return swept, err
		}
		if u.awsRepo != nil && u.cfg.S3.AudioBucket != "" {
			key := audioKey(video.Platform, video.PlatformVid)
			if err := u.awsRepo.DeleteAudio(ctx, u.cfg.S3.AudioBucket, key); err != nil {
				u.logger.Warnf("subtitleUC.SweepAudio: delete archive %s: %v", key, err)
			}
		}
		swept++
	}
	return swept, nil
}
