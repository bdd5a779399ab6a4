package http

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/tasks"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const streamPollInterval = 500 * time.Millisecond

type subtitleHandler struct {
	subtitleUC subtitles.UseCase
	tasks      *tasks.Registry
	logger     logger.Logger
}

func NewSubtitleHandler(subtitleUC subtitles.UseCase, taskRegistry *tasks.Registry, log logger.Logger) subtitles.Handler {
	return &subtitleHandler{
		subtitleUC: subtitleUC,
		tasks:      taskRegistry,
		logger:     log,
	}
}

func (h *subtitleHandler) SubmitAcquire() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.AcquireRequest{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		if err := utils.ValidateStruct(c.Request().Context(), input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		taskID, err := h.subtitleUC.SubmitAcquire(input.Platform, input.VideoID)
		if err != nil {
			if errors.Is(err, errs.ErrUnsupportedPlatform) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"task_id": taskID})
	}
}

func (h *subtitleHandler) SubmitBatch() echo.HandlerFunc {
	return func(c echo.Context) error {
		job := &models.BatchJob{}
		if err := c.Bind(job); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		taskID, err := h.subtitleUC.SubmitBatch(job)
		if err != nil {
			if errors.Is(err, errs.ErrUnsupportedPlatform) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"task_id": taskID})
	}
}

func (h *subtitleHandler) EnqueueBatch() echo.HandlerFunc {
	return func(c echo.Context) error {
		job := &models.BatchJob{}
		if err := c.Bind(job); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		if err := h.subtitleUC.EnqueueBatch(c.Request().Context(), job); err != nil {
			if errors.Is(err, errs.ErrUnsupportedPlatform) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"job_id": job.JobID})
	}
}

func (h *subtitleHandler) GetTask() echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := h.tasks.Get(c.Param("task_id"))
		if snap == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Task not found"})
		}
		return c.JSON(http.StatusOK, snap)
	}
}

// StreamTask pushes task snapshots as server-sent events. Each poll sends
// only when the snapshot changed; the stream closes shortly after the task
// reaches a terminal state so late log lines still get through.
func (h *subtitleHandler) StreamTask() echo.HandlerFunc {
	return func(c echo.Context) error {
		taskID := c.Param("task_id")
		if h.tasks.Get(taskID) == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Task not found"})
		}

		w := c.Response()
		w.Header().Set(echo.HeaderContentType, "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		ticker := time.NewTicker(streamPollInterval)
		defer ticker.Stop()

		var last []byte
		var terminalAt time.Time
		for {
			select {
			case <-c.Request().Context().Done():
				return nil
			case <-ticker.C:
				snap := h.tasks.Get(taskID)
				if snap == nil {
					return nil
				}
				b, err := json.Marshal(snap)
				if err != nil {
					h.logger.Errorf("StreamTask: marshal snapshot: %v", err)
					return nil
				}
				if !bytes.Equal(b, last) {
					if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
						return nil
					}
					w.Flush()
					last = b
				}
				if snap.Status.Terminal() {
					if terminalAt.IsZero() {
						terminalAt = time.Now()
					} else if time.Since(terminalAt) >= time.Second {
						return nil
					}
				}
			}
		}
	}
}

func (h *subtitleHandler) GetSubtitle() echo.HandlerFunc {
	return func(c echo.Context) error {
		platform := models.Platform(c.Param("platform"))
		videoID := c.Param("video_id")
		sub, err := h.subtitleUC.GetStoredSubtitle(c.Request().Context(), platform, videoID)
		if err != nil {
			if errors.Is(err, errs.ErrNoSubtitle) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Subtitle not found"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, sub)
	}
}

func (h *subtitleHandler) GetAudioURL() echo.HandlerFunc {
	return func(c echo.Context) error {
		platform := models.Platform(c.Param("platform"))
		videoID := c.Param("video_id")
		audioURL, err := h.subtitleUC.GetAudioURL(c.Request().Context(), platform, videoID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Video not found"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"audio_url": audioURL})
	}
}

func (h *subtitleHandler) ListVideos() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		videos, err := h.subtitleUC.ListVideos(c.Request().Context(), pagination)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, videos)
	}
}

func (h *subtitleHandler) SearchVideos() echo.HandlerFunc {
	return func(c echo.Context) error {
		query := c.QueryParam("query")
		if query == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Query param is required"})
		}
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		videos, err := h.subtitleUC.SearchVideos(c.Request().Context(), query, pagination)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, videos)
	}
}
