package models

import (
	"encoding/json"
	"time"
)

// BatchJob is the unit queued on Redis for the batch worker.
type BatchJob struct {
	JobID      string    `json:"job_id" validate:"omitempty"`
	Keyword    string    `json:"keyword" validate:"required,lte=128"`
	Platform   Platform  `json:"platform" validate:"required"`
	MaxResults int       `json:"max_results" validate:"gte=1,lte=50"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// MarshalBinary lets go-redis serialize the job on LPush.
func (j BatchJob) MarshalBinary() ([]byte, error) {
	return json.Marshal(j)
}

// BatchItemFailure records one skipped item; it never aborts siblings.
type BatchItemFailure struct {
	PlatformVid string `json:"platform_vid"`
	Error       string `json:"error"`
}

// BatchReport aggregates a batch run. The batch as a whole fails only when
// the search step itself fails.
type BatchReport struct {
	Keyword   string             `json:"keyword"`
	Platform  Platform           `json:"platform"`
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Results   []*AcquireResult   `json:"results"`
	Failures  []BatchItemFailure `json:"failures"`
}
