package http

import (
	"github.com/amankumarsingh77/cloud-transcript-service/internal/middleware"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/subtitles"
	"github.com/labstack/echo/v4"
)

func MapSubtitleRoutes(group *echo.Group, h subtitles.Handler, mw *middleware.MiddlewareManager) {
	auth := mw.AuthJWTMiddleware()
	group.POST("/acquire", h.SubmitAcquire(), auth)
	group.POST("/batch", h.SubmitBatch(), auth)
	group.POST("/batch/enqueue", h.EnqueueBatch(), auth)
	group.GET("/tasks/:task_id", h.GetTask())
	group.GET("/tasks/:task_id/stream", h.StreamTask())
	group.GET("/:platform/:video_id", h.GetSubtitle())
	group.GET("/:platform/:video_id/audio", h.GetAudioURL())
	group.GET("/videos/list", h.ListVideos())
	group.GET("/videos/search", h.SearchVideos())
}
