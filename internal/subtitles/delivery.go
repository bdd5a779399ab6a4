package subtitles

import "github.com/labstack/echo/v4"

type Handler interface {
	SubmitAcquire() echo.HandlerFunc
	SubmitBatch() echo.HandlerFunc
	EnqueueBatch() echo.HandlerFunc
	GetTask() echo.HandlerFunc
	StreamTask() echo.HandlerFunc
	GetSubtitle() echo.HandlerFunc
	GetAudioURL() echo.HandlerFunc
	ListVideos() echo.HandlerFunc
	SearchVideos() echo.HandlerFunc
}
