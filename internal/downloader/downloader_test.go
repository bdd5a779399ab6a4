package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub drops a fake yt-dlp on disk so tests control what the binary
// leaves behind.
func writeStub(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "yt-dlp-stub")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newDownloader(t *testing.T, stubBody string) (*AudioDownloader, string) {
	t.Helper()
	dir := t.TempDir()
	binary := writeStub(t, t.TempDir(), stubBody)
	d := NewAudioDownloader(config.DownloaderConfig{
		BinaryPath:  binary,
		DownloadDir: dir,
	}, logger.NewNop())
	return d, dir
}

func TestDownloadMissingOutputIsIntegrityError(t *testing.T) {
	d, _ := newDownloader(t, "exit 0")

	_, err := d.Download(context.Background(), "https://example.com/v/BV1", "BV1")
	require.Error(t, err)

	var ie *errs.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, int64(0), ie.Size)
}

func TestDownloadZeroByteOutputIsIntegrityError(t *testing.T) {
	dir := t.TempDir()
	binary := writeStub(t, t.TempDir(), fmt.Sprintf(": > %q", filepath.Join(dir, "BV1.mp3")))
	d := NewAudioDownloader(config.DownloaderConfig{
		BinaryPath:  binary,
		DownloadDir: dir,
	}, logger.NewNop())

	_, err := d.Download(context.Background(), "https://example.com/v/BV1", "BV1")
	require.Error(t, err)

	var ie *errs.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, filepath.Join(dir, "BV1.mp3"), ie.Path)
	assert.Equal(t, int64(0), ie.Size)
}

func TestDownloadReturnsPathOnSuccess(t *testing.T) {
	dir := t.TempDir()
	binary := writeStub(t, t.TempDir(), fmt.Sprintf("printf audio > %q", filepath.Join(dir, "BV1.mp3")))
	d := NewAudioDownloader(config.DownloaderConfig{
		BinaryPath:  binary,
		DownloadDir: dir,
	}, logger.NewNop())

	path, err := d.Download(context.Background(), "https://example.com/v/BV1", "BV1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "BV1.mp3"), path)
}

func TestFetchDirectWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("podcast audio"))
	}))
	defer srv.Close()

	d, dir := newDownloader(t, "exit 0")
	path, err := d.FetchDirect(context.Background(), srv.URL+"/ep.mp3", "EP1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "EP1.mp3"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "podcast audio", string(raw))
}

func TestFetchDirectEmptyBodyIsIntegrityError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, _ := newDownloader(t, "exit 0")
	_, err := d.FetchDirect(context.Background(), srv.URL+"/ep.mp3", "EP1")
	require.Error(t, err)

	var ie *errs.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, int64(0), ie.Size)
}

func TestFetchDirectRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	d, _ := newDownloader(t, "exit 0")
	_, err := d.FetchDirect(context.Background(), srv.URL+"/ep.mp3", "EP1")
	require.Error(t, err)
}
