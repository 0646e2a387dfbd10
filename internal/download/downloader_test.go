package download

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/config"
	"github.com/nexconsult/cnpj-etl/internal/fetch"
	"github.com/nexconsult/cnpj-etl/internal/logger"
)

func testConfig(dir string) config.DownloadConfig {
	return config.DownloadConfig{
		DataDir:     dir,
		Timeout:     5 * time.Second,
		MaxRetries:  3,
		MaxParallel: 2,
		ChunkSize:   64,
	}
}

func newTestDownloader(t *testing.T, cfg config.DownloadConfig) *Downloader {
	t.Helper()
	d, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	d.progressOut = io.Discard
	d.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return d
}

// rangeHandler serves payload with HEAD and byte-range support, the way the
// Federal Revenue origin behaves.
func rangeHandler(payload []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		if r.Method == http.MethodHead {
			return
		}

		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.Write(payload)
			return
		}

		var start, end int
		fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end)
		if end >= len(payload) {
			end = len(payload) - 1
		}
		w.Header().Set("Content-Length", strconv.Itoa(end-start+1))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(payload[start : end+1])
	}
}

func entryFor(url, filename string) catalog.Entry {
	return catalog.Entry{URL: url + "/" + filename, Dataset: catalog.Establishments, Partition: 0, Filename: filename}
}

func TestDownloadChunked(t *testing.T) {
	payload := make([]byte, 1000)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	srv := httptest.NewServer(rangeHandler(payload))
	defer srv.Close()

	dir := t.TempDir()
	d := newTestDownloader(t, testConfig(dir))

	entry := entryFor(srv.URL, "Estabelecimentos0.zip")
	require.NoError(t, d.Download(context.Background(), []catalog.Entry{entry}))

	got, err := os.ReadFile(filepath.Join(dir, entry.Filename))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadResume(t *testing.T) {
	payload := make([]byte, 500)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	var firstRangeStart atomic.Int64
	firstRangeStart.Store(-1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rangeHeader := r.Header.Get("Range"); rangeHeader != "" && firstRangeStart.Load() == -1 {
			var start, end int64
			fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end)
			firstRangeStart.Store(start)
		}
		rangeHandler(payload)(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	entry := entryFor(srv.URL, "Empresas0.zip")

	// Simulate an interrupted transfer: the first 200 bytes are on disk.
	require.NoError(t, os.WriteFile(filepath.Join(dir, entry.Filename), payload[:200], 0o644))

	d := newTestDownloader(t, testConfig(dir))
	require.NoError(t, d.Download(context.Background(), []catalog.Entry{entry}))

	// Resumption starts at the current file length and the result is
	// byte-identical to an uninterrupted run.
	assert.Equal(t, int64(200), firstRangeStart.Load())
	got, err := os.ReadFile(filepath.Join(dir, entry.Filename))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadRestartDiscardsPartial(t *testing.T) {
	payload := []byte(strings.Repeat("x", 300))
	srv := httptest.NewServer(rangeHandler(payload))
	defer srv.Close()

	dir := t.TempDir()
	entry := entryFor(srv.URL, "Socios0.zip")
	require.NoError(t, os.WriteFile(filepath.Join(dir, entry.Filename), []byte("stale partial data"), 0o644))

	cfg := testConfig(dir)
	cfg.Restart = true
	d := newTestDownloader(t, cfg)
	require.NoError(t, d.Download(context.Background(), []catalog.Entry{entry}))

	got, err := os.ReadFile(filepath.Join(dir, entry.Filename))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestListPendingSkipExisting(t *testing.T) {
	dir := t.TempDir()
	entries, err := catalog.Catalog("http://origin.example", "2025-11")
	require.NoError(t, err)

	// A zero-byte file still counts as existing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Estabelecimentos0.zip"), nil, 0o644))

	cfg := testConfig(dir)
	cfg.SkipExisting = true
	d := newTestDownloader(t, cfg)

	pending := d.ListPending(entries)
	assert.Len(t, pending, 36)
	for _, url := range pending {
		assert.False(t, strings.HasSuffix(url, "/Estabelecimentos0.zip"))
	}
}

func TestBackoffSchedule(t *testing.T) {
	payload := []byte(strings.Repeat("y", 64))
	var gets atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Two transient failures, then success.
			if gets.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		rangeHandler(payload)(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := newTestDownloader(t, testConfig(dir))

	var sleeps []time.Duration
	d.sleep = func(_ context.Context, dur time.Duration) error {
		sleeps = append(sleeps, dur)
		return nil
	}

	entry := entryFor(srv.URL, "Cnaes.zip")
	require.NoError(t, d.Download(context.Background(), []catalog.Entry{entry}))

	assert.Equal(t, int64(3), gets.Load())
	require.Len(t, sleeps, 2)
	assert.Equal(t, 2*time.Second, sleeps[0])
	assert.Equal(t, 4*time.Second, sleeps[1])

	var total time.Duration
	for _, s := range sleeps {
		total += s
	}
	assert.GreaterOrEqual(t, total, 6*time.Second)
}

func TestMaxRetriesExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := newTestDownloader(t, testConfig(t.TempDir()))
	err := d.Download(context.Background(), []catalog.Entry{entryFor(srv.URL, "Motivos.zip")})
	require.Error(t, err)

	var maxErr *fetch.MaxRetriesError
	assert.ErrorAs(t, err, &maxErr)
}

func TestPermanentErrorReportedInCatalogOrder(t *testing.T) {
	payload := []byte("ok content")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "Missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		rangeHandler(payload)(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.MaxParallel = 1
	d := newTestDownloader(t, cfg)

	entries := []catalog.Entry{
		entryFor(srv.URL, "Missing0.zip"),
		entryFor(srv.URL, "Paises.zip"),
	}
	err := d.Download(context.Background(), entries)
	require.Error(t, err)

	// The permanent failure aborts only its own file.
	var httpErr *fetch.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.FileExists(t, filepath.Join(dir, "Paises.zip"))
}

func TestShortReadWholeFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Advertise more than is ever served, without range support.
		w.Header().Set("Content-Length", "100")
		if r.Method == http.MethodGet {
			flusher := w.(http.Flusher)
			w.WriteHeader(http.StatusOK)
			w.Write(bytes.Repeat([]byte("z"), 40))
			flusher.Flush()
			// Hijack-free early close: the handler returning with fewer
			// bytes than Content-Length resets the connection.
		}
	}))
	defer srv.Close()

	cfg := testConfig(t.TempDir())
	cfg.MaxRetries = 1
	d := newTestDownloader(t, cfg)

	err := d.Download(context.Background(), []catalog.Entry{entryFor(srv.URL, "Naturezas.zip")})
	require.Error(t, err)
}

func TestDownloadCanceled(t *testing.T) {
	payload := make([]byte, 10_000)
	srv := httptest.NewServer(rangeHandler(payload))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDownloader(t, testConfig(t.TempDir()))
	err := d.Download(ctx, []catalog.Entry{entryFor(srv.URL, "Qualificacoes.zip")})
	assert.ErrorIs(t, err, context.Canceled)
}
