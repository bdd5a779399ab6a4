// Package transcriber is the speech-to-text boundary. The engine itself is
// an external capability; this package adapts the whisper CLI into the
// transcribe(audio) -> {text, segments} contract.
package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/pkg/errors"
)

const transcribeTimeout = 30 * time.Minute

// Result mirrors the engine output: plain text plus timed segments.
type Result struct {
	Text     string                `json:"text"`
	Segments []models.TimedSegment `json:"segments"`
	Language string                `json:"language"`
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
	ModelName() string
}

// WhisperTranscriber shells out to the whisper CLI and reads its JSON
// output file.
type WhisperTranscriber struct {
	binary    string
	model     string
	outputDir string
	logger    logger.Logger
}

func NewWhisperTranscriber(cfg config.TranscriberConfig, log logger.Logger) *WhisperTranscriber {
	binary := cfg.BinaryPath
	if binary == "" {
		binary = "whisper"
	}
	model := cfg.Model
	if model == "" {
		model = "base"
	}
	return &WhisperTranscriber{
		binary:    binary,
		model:     model,
		outputDir: cfg.OutputDir,
		logger:    log,
	}
}

func (w *WhisperTranscriber) ModelName() string {
	return "whisper-" + w.model
}

type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "transcriber.Transcribe.MkdirAll")
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	w.logger.Infof("transcribing %s with model %s", audioPath, w.model)
	cmd := exec.CommandContext(ctx, w.binary,
		audioPath,
		"--model", w.model,
		"--output_format", "json",
		"--output_dir", w.outputDir,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "whisper failed: %s", stderr.String())
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	outFile := filepath.Join(w.outputDir, base+".json")
	raw, err := os.ReadFile(outFile)
	if err != nil {
		return nil, errors.Wrap(err, "transcriber.Transcribe.ReadFile")
	}

	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "transcriber.Transcribe.Unmarshal")
	}

	segments := make([]models.TimedSegment, 0, len(out.Segments))
	for _, seg := range out.Segments {
		end := seg.End
		segments = append(segments, models.TimedSegment{
			Start: seg.Start,
			End:   &end,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return &Result{
		Text:     strings.TrimSpace(out.Text),
		Segments: segments,
		Language: out.Language,
	}, nil
}
