package models

// AcquireRequest asks for one video's transcript.
type AcquireRequest struct {
	Platform Platform `json:"platform" validate:"required"`
	VideoID  string   `json:"video_id" validate:"required,lte=64"`
}
