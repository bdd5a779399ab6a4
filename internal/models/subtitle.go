package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type SubtitleSource string

const (
	SubtitleSourceOfficial  SubtitleSource = "official"
	SubtitleSourceGenerated SubtitleSource = "generated"
)

// TimedSegment is one timestamped span of speech. End is nil when the source
// format only carries start offsets.
type TimedSegment struct {
	Start float64  `json:"start"`
	End   *float64 `json:"end"`
	Text  string   `json:"text"`
}

// TimedContent is the unified timed representation stored alongside the
// plain text. Type tags the ingested source shape (webvtt, transcript,
// offset-map); Metadata keeps format headers such as Kind and Language.
type TimedContent struct {
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Segments []TimedSegment    `json:"segments"`
}

func (t TimedContent) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "TimedContent.Value")
	}
	return string(b), nil
}

func (t *TimedContent) Scan(src interface{}) error {
	if src == nil {
		*t = TimedContent{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.Errorf("TimedContent.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, t)
}

// Subtitle is the single authoritative transcript for a video. Upserted, not
// appended: acquisition short-circuits when one already exists.
type Subtitle struct {
	SubtitleID  uuid.UUID      `json:"subtitle_id" db:"subtitle_id"`
	VideoID     uuid.UUID      `json:"video_id" db:"video_id"`
	Platform    Platform       `json:"platform" db:"platform"`
	PlatformVid string         `json:"platform_vid" db:"platform_vid"`
	Content     string         `json:"content" db:"content"`
	Timed       TimedContent   `json:"timed_content" db:"timed_content"`
	Source      SubtitleSource `json:"source" db:"source"`
	Language    string         `json:"language" db:"language"`
	ModelName   *string        `json:"model_name" db:"model_name"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// AcquireResultType tells the caller which branch of the fallback chain
// produced the content.
type AcquireResultType string

const (
	ResultTypeSubtitle AcquireResultType = "subtitle"
	ResultTypeAudio    AcquireResultType = "audio"
)

// AcquireResult is the outcome of one acquisition.
type AcquireResult struct {
	Type        AcquireResultType `json:"type"`
	Content     string            `json:"content"`
	VideoID     string            `json:"video_id"`
	PlatformVid string            `json:"platform_vid"`
	Platform    Platform          `json:"platform"`
	Title       string            `json:"title,omitempty"`
}
