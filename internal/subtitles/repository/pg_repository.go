package repository

import (
	"context"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type subtitleRepo struct {
	db *sqlx.DB
}

func NewSubtitleRepo(db *sqlx.DB) subtitles.Repository {
	return &subtitleRepo{
		db: db,
	}
}

func (r *subtitleRepo) GetVideoByPlatformID(ctx context.Context, platform models.Platform, platformVid string) (*models.Video, error) {
	video := &models.Video{}
	if err := r.db.QueryRowxContext(
		ctx,
		getVideoByPlatformIDQuery,
		platform,
		platformVid,
	).StructScan(video); err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.GetVideoByPlatformID")
	}
	return video, nil
}

func (r *subtitleRepo) UpsertVideo(ctx context.Context, platform models.Platform, info *models.VideoInfo) (*models.Video, error) {
	video := &models.Video{}
	if err := r.db.QueryRowxContext(
		ctx,
		upsertVideoQuery,
		platform,
		info.PlatformVid,
		info.Title,
		info.Author,
		info.Duration,
		info.ViewCount,
		models.StringSlice(info.Tags),
		models.StringSlice(info.Keywords),
		info.Description,
	).StructScan(video); err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.UpsertVideo")
	}
	return video, nil
}

func (r *subtitleRepo) SetVideoAudioPath(ctx context.Context, videoID uuid.UUID, audioPath *string) error {
	if _, err := r.db.ExecContext(ctx, setVideoAudioPathQuery, audioPath, videoID); err != nil {
		return errors.Wrap(err, "subtitleRepo.SetVideoAudioPath")
	}
	return nil
}

func (r *subtitleRepo) SetVideoSearchProvenance(ctx context.Context, videoID uuid.UUID, keyword string, rank int) error {
	if _, err := r.db.ExecContext(ctx, setVideoSearchQuery, keyword, rank, videoID); err != nil {
		return errors.Wrap(err, "subtitleRepo.SetVideoSearchProvenance")
	}
	return nil
}

func (r *subtitleRepo) GetSubtitleByPlatformID(ctx context.Context, platform models.Platform, platformVid string) (*models.Subtitle, error) {
	subtitle := &models.Subtitle{}
	if err := r.db.QueryRowxContext(
		ctx,
		getSubtitleByPlatformIDQuery,
		platform,
		platformVid,
	).StructScan(subtitle); err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.GetSubtitleByPlatformID")
	}
	return subtitle, nil
}

func (r *subtitleRepo) UpsertSubtitle(ctx context.Context, subtitle *models.Subtitle) (*models.Subtitle, error) {
	saved := &models.Subtitle{}
	if err := r.db.QueryRowxContext(
		ctx,
		upsertSubtitleQuery,
		subtitle.VideoID,
		subtitle.Platform,
		subtitle.PlatformVid,
		subtitle.Content,
		subtitle.Timed,
		subtitle.Source,
		subtitle.Language,
		subtitle.ModelName,
	).StructScan(saved); err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.UpsertSubtitle")
	}
	return saved, nil
}

func (r *subtitleRepo) ListVideos(ctx context.Context, pq *utils.Pagination) (*models.VideoList, error) {
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, getTotalVideosQuery); err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.ListVideos.total")
	}
	if totalCount == 0 {
		return emptyVideoList(pq), nil
	}
	rows, err := r.db.QueryxContext(ctx, listVideosQuery, pq.GetOffset(), pq.GetLimit())
	if err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.ListVideos")
	}
	defer rows.Close()
	return scanVideoList(rows, pq, totalCount)
}

func (r *subtitleRepo) SearchVideos(ctx context.Context, query string, pq *utils.Pagination) (*models.VideoList, error) {
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, getTotalVideosByQueryQuery, query); err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.SearchVideos.total")
	}
	if totalCount == 0 {
		return emptyVideoList(pq), nil
	}
	rows, err := r.db.QueryxContext(ctx, searchVideosQuery, query, pq.GetOffset(), pq.GetLimit())
	if err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.SearchVideos")
	}
	defer rows.Close()
	return scanVideoList(rows, pq, totalCount)
}

func (r *subtitleRepo) ListStaleAudio(ctx context.Context, cutoff time.Time) ([]*models.Video, error) {
	rows, err := r.db.QueryxContext(ctx, listStaleAudioQuery, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.ListStaleAudio")
	}
	defer rows.Close()
	var videos []*models.Video
	for rows.Next() {
		var video models.Video
		if err = rows.StructScan(&video); err != nil {
			return nil, errors.Wrap(err, "subtitleRepo.ListStaleAudio.StructScan")
		}
		videos = append(videos, &video)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "subtitleRepo.ListStaleAudio.rows")
	}
	return videos, nil
}

func scanVideoList(rows *sqlx.Rows, pq *utils.Pagination, totalCount int) (*models.VideoList, error) {
	videos := make([]*models.Video, 0, pq.GetSize())
	for rows.Next() {
		var video models.Video
		if err := rows.StructScan(&video); err != nil {
			return nil, errors.Wrap(err, "scanVideoList.StructScan")
		}
		videos = append(videos, &video)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "scanVideoList.rows")
	}
	return &models.VideoList{
		Videos:     videos,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}

func emptyVideoList(pq *utils.Pagination) *models.VideoList {
	return &models.VideoList{
		Videos:     make([]*models.Video, 0),
		TotalCount: 0,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    false,
	}
}
