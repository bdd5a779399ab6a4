// Package downloader obtains audio tracks through the local yt-dlp binary,
// just enough of a download path to feed transcription.
package downloader

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/pkg/errors"
)

const downloadTimeout = 10 * time.Minute

// AudioDownloader extracts the best audio track to mp3 in the configured
// download directory.
type AudioDownloader struct {
	binary      string
	downloadDir string
	httpClient  *http.Client
	logger      logger.Logger
}

func NewAudioDownloader(cfg config.DownloaderConfig, log logger.Logger) *AudioDownloader {
	binary := cfg.BinaryPath
	if binary == "" {
		binary = "yt-dlp"
	}
	return &AudioDownloader{
		binary:      binary,
		downloadDir: cfg.DownloadDir,
		httpClient:  &http.Client{Timeout: downloadTimeout},
		logger:      log,
	}
}

// Existing reports a previously downloaded, non-empty audio file for the
// video, if one is on disk.
func (d *AudioDownloader) Existing(platformVid string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(d.downloadDir, "*"+platformVid+".mp3"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	info, err := os.Stat(matches[0])
	if err != nil || info.Size() == 0 {
		return "", false
	}
	return matches[0], true
}

// Download fetches the audio for url and verifies the result. A missing or
// zero-byte file fails the attempt with an *errs.IntegrityError; callers
// retry at the policy level since the cause may be infrastructure flakiness.
func (d *AudioDownloader) Download(ctx context.Context, url, platformVid string) (string, error) {
	if err := os.MkdirAll(d.downloadDir, 0o755); err != nil {
		return "", errors.Wrap(err, "downloader.Download.MkdirAll")
	}

	outPath := filepath.Join(d.downloadDir, platformVid+".mp3")
	template := filepath.Join(d.downloadDir, platformVid+".%(ext)s")

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.binary,
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3", "--audio-quality", "192K",
		"--no-warnings", "--restrict-filenames",
		"-o", template,
		url,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "yt-dlp audio download failed: %s", stderr.String())
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return "", &errs.IntegrityError{Path: outPath, Size: 0}
	}
	if info.Size() == 0 {
		return "", &errs.IntegrityError{Path: outPath, Size: info.Size()}
	}

	d.logger.Infof("audio downloaded: %s (%d bytes)", outPath, info.Size())
	return outPath, nil
}

// FetchDirect downloads a plain audio file URL without going through
// yt-dlp. Podcast feeds expose the track directly, so a streamed GET is all
// it takes. The same integrity check applies: a zero-byte result fails the
// attempt with an *errs.IntegrityError.
func (d *AudioDownloader) FetchDirect(ctx context.Context, audioURL, platformVid string) (string, error) {
	if err := os.MkdirAll(d.downloadDir, 0o755); err != nil {
		return "", errors.Wrap(err, "downloader.FetchDirect.MkdirAll")
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "downloader.FetchDirect.NewRequest")
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "downloader.FetchDirect.Do")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("downloader.FetchDirect: unexpected status %d for %s", resp.StatusCode, audioURL)
	}

	outPath := filepath.Join(d.downloadDir, platformVid+".mp3")
	f, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrap(err, "downloader.FetchDirect.Create")
	}
	written, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", errors.Wrap(err, "downloader.FetchDirect.Copy")
	}
	if written == 0 {
		return "", &errs.IntegrityError{Path: outPath, Size: 0}
	}

	d.logger.Infof("audio fetched: %s (%d bytes)", outPath, written)
	return outPath, nil
}
