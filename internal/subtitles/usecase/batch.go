package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/pkg/errors"
)

const (
	defaultBatchMinDelay = 10.0
	defaultBatchMaxDelay = 20.0
)

// RunBatch searches the platform and acquires every hit in order. A failed
// item is recorded and skipped; only a failed search fails the batch.
func (u *subtitleUC) RunBatch(ctx context.Context, job *models.BatchJob, h *tasks.Handle) (*models.BatchReport, error) {
	h.SetStatus(tasks.StatusProcessing)
	h.SetProgress(1, fmt.Sprintf("searching %s for %q", job.Platform, job.Keyword))

	client, err := u.platforms.Client(job.Platform)
	if err != nil {
		return nil, err
	}
	hits, err := client.Search(ctx, job.Keyword, job.MaxResults)
	if err != nil {
		return nil, errors.Wrap(err, "subtitleUC.RunBatch.Search")
	}

	report := &models.BatchReport{
		Keyword:  job.Keyword,
		Platform: job.Platform,
		Total:    len(hits),
	}
	for i, hit := range hits {
		if i > 0 {
			if err := u.batchDelay(ctx); err != nil {
				return report, err
			}
		}
		h.SetProgress(float64(i)/float64(len(hits))*100,
			fmt.Sprintf("acquiring %d/%d: %s", i+1, len(hits), hit.Title))

		res, err := u.Acquire(ctx, job.Platform, hit.PlatformVid, h)
		if err != nil {
			h.Log("warning", fmt.Sprintf("item %s failed: %v", hit.PlatformVid, err))
			u.logger.Warnf("batch %q: item %s failed: %v", job.Keyword, hit.PlatformVid, err)
			report.Failures = append(report.Failures, models.BatchItemFailure{
				PlatformVid: hit.PlatformVid,
				Error:       err.Error(),
			})
			continue
		}
		u.recordProvenance(ctx, job, hit.PlatformVid, i+1, h)
		report.Succeeded++
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// recordProvenance stamps which search produced the video and at what rank.
// Best effort; the acquisition already succeeded.
func (u *subtitleUC) recordProvenance(ctx context.Context, job *models.BatchJob, platformVid string, rank int, h *tasks.Handle) {
	video, err := u.repo.GetVideoByPlatformID(ctx, job.Platform, platformVid)
	if err != nil {
		h.Log("warning", fmt.Sprintf("provenance lookup for %s failed: %v", platformVid, err))
		return
	}
	if err := u.repo.SetVideoSearchProvenance(ctx, video.VideoID, job.Keyword, rank); err != nil {
		h.Log("warning", fmt.Sprintf("provenance update for %s failed: %v", platformVid, err))
	}
}

// batchDelay sleeps a random interval between items to keep the request
// pattern irregular.
func (u *subtitleUC) batchDelay(ctx context.Context) error {
	min := u.cfg.Batch.MinDelaySeconds
	max := u.cfg.Batch.MaxDelaySeconds
	if min <= 0 || max < min {
		min, max = defaultBatchMinDelay, defaultBatchMaxDelay
	}
	delay := min + rand.Float64()*(max-min)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(delay * float64(time.Second))):
		return nil
	}
}
