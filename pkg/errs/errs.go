// Package errs defines the pipeline error taxonomy. Only transient,
// infrastructure-shaped errors are retried; data-shape and configuration
// errors fail fast.
package errs

import (
	"errors"
	"fmt"
)

// ErrNoSubtitle signals that a platform legitimately has no captions for a
// video. It is a "nothing to return" outcome, not a failure.
var ErrNoSubtitle = errors.New("no subtitle found")

// ErrUnsupportedPlatform signals caller misconfiguration. Never retried.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// FormatError reports a malformed caption payload. Retrying will not change
// malformed data, so it is fatal. Sample holds a slice of the raw input for
// diagnosis.
type FormatError struct {
	Reason string
	Sample string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed subtitle payload: %s (sample: %q)", e.Reason, e.Sample)
}

// NewFormatError truncates the raw sample so logs stay readable.
func NewFormatError(reason, raw string) *FormatError {
	const maxSample = 120
	if len(raw) > maxSample {
		raw = raw[:maxSample]
	}
	return &FormatError{Reason: reason, Sample: raw}
}

// IntegrityError reports a missing or zero-byte file after a download.
// Fatal for the attempt, but retried at the retry-policy level since the
// cause may be transient infrastructure flakiness.
type IntegrityError struct {
	Path string
	Size int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("downloaded file failed integrity check: %s (size %d)", e.Path, e.Size)
}
