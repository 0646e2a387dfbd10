// Package download orchestrates parallel, resumable transfers of the
// Federal Revenue artifact catalog into the staging directory.
package download

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/config"
	"github.com/nexconsult/cnpj-etl/internal/fetch"
)

// maxBackoffExponent caps the exponential retry delay at 2^5 = 32 seconds.
const maxBackoffExponent = 5

// Downloader fetches catalog entries with bounded parallelism. File-level
// transfers run concurrently; byte windows within one file are sequential so
// the on-disk file grows append-only and resumption is a length check.
type Downloader struct {
	cfg     config.DownloadConfig
	client  *fetch.Client
	logger  *logrus.Logger
	limiter *rate.Limiter

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
	// progressOut receives the multi-bar rendering; tests discard it.
	progressOut io.Writer
}

// New creates a downloader for the given configuration.
func New(cfg config.DownloadConfig, logger *logrus.Logger) (*Downloader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}

	return &Downloader{
		cfg:         cfg,
		client:      fetch.NewClient(cfg.Timeout),
		logger:      logger,
		limiter:     limiter,
		sleep:       sleepContext,
		progressOut: os.Stdout,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListPending returns the URLs that would be fetched under the current
// configuration, after the skip-existing filter.
func (d *Downloader) ListPending(entries []catalog.Entry) []string {
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if d.cfg.SkipExisting {
			if _, err := os.Stat(filepath.Join(d.cfg.DataDir, e.Filename)); err == nil {
				continue
			}
		}
		urls = append(urls, e.URL)
	}
	return urls
}

// Download fetches every selected entry, up to max-parallel at a time.
// Permanent failures abort their file only; after all transfers settle the
// first error in catalog order is returned.
func (d *Downloader) Download(ctx context.Context, entries []catalog.Entry) error {
	if err := os.MkdirAll(d.cfg.DataDir, 0o755); err != nil {
		return errors.Wrap(err, "creating data directory")
	}

	selected := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if d.cfg.SkipExisting {
			if _, err := os.Stat(filepath.Join(d.cfg.DataDir, e.Filename)); err == nil {
				d.logger.WithField("file", e.Filename).Info("Skipping existing file")
				continue
			}
		}
		selected = append(selected, e)
	}

	if len(selected) == 0 {
		d.logger.Info("No files to download")
		return nil
	}

	d.logger.WithFields(logrus.Fields{
		"files":        len(selected),
		"max_parallel": d.cfg.MaxParallel,
		"data_dir":     d.cfg.DataDir,
	}).Info("Starting download")

	reporter := newProgress(ctx, d.progressOut)

	errs := make([]error, len(selected))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxParallel)

	for i, entry := range selected {
		i, entry := i, entry
		g.Go(func() error {
			if err := d.downloadFile(ctx, entry, reporter); err != nil {
				errs[i] = err
				d.logger.WithFields(logrus.Fields{
					"file":  entry.Filename,
					"error": err.Error(),
				}).Error("Transfer failed")
				// Keep the remaining files going; only cancellation is
				// propagated through the group.
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			return nil
		})
	}

	groupErr := g.Wait()
	reporter.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	if groupErr != nil {
		return groupErr
	}

	d.logger.Info("Download complete")
	return nil
}

// downloadFile transfers a single catalog entry, chunked if the origin
// advertises range support and a known length.
func (d *Downloader) downloadFile(ctx context.Context, entry catalog.Entry, reporter *progress) error {
	path := filepath.Join(d.cfg.DataDir, entry.Filename)

	if d.cfg.Restart {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing partial file %s", entry.Filename)
		}
	}

	info, err := d.headWithRetry(ctx, entry.URL)
	if err != nil {
		return err
	}

	bar := reporter.addBar(entry.Filename, info.ContentLength)
	defer bar.done()

	if info.AcceptRanges && info.ContentLength > 0 {
		return d.downloadChunked(ctx, entry, path, info.ContentLength, bar)
	}
	return d.downloadWhole(ctx, entry, path, info.ContentLength, bar)
}

// headWithRetry issues HEAD under the transient-retry policy.
func (d *Downloader) headWithRetry(ctx context.Context, url string) (fetch.HeadInfo, error) {
	var lastErr error
	for attempt := 0; attempt < d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := d.backoff(ctx, attempt); err != nil {
				return fetch.HeadInfo{}, err
			}
		}
		if err := d.wait(ctx); err != nil {
			return fetch.HeadInfo{}, err
		}

		info, err := d.client.Head(ctx, url)
		if err == nil {
			return info, nil
		}
		if fetch.IsPermanent(err) || ctx.Err() != nil {
			return fetch.HeadInfo{}, err
		}
		lastErr = err
		d.logger.WithFields(logrus.Fields{
			"url":     url,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("HEAD failed, retrying")
	}
	return fetch.HeadInfo{}, &fetch.MaxRetriesError{URL: url, Attempts: d.cfg.MaxRetries, Last: lastErr}
}

// downloadChunked fetches contiguous chunk-size windows, appending each to
// the on-disk file. A partial file resumes at its current length.
func (d *Downloader) downloadChunked(ctx context.Context, entry catalog.Entry, path string, total int64, bar *fileBar) error {
	var offset int64
	if st, err := os.Stat(path); err == nil {
		offset = st.Size()
	}

	if offset > total {
		return &fetch.ShortReadError{Filename: entry.Filename, Want: total, Got: offset}
	}
	if offset > 0 {
		d.logger.WithFields(logrus.Fields{
			"file":   entry.Filename,
			"offset": offset,
		}).Info("Resuming partial download")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", entry.Filename)
	}
	defer file.Close()

	bar.setCurrent(offset)

	for offset < total {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := offset + d.cfg.ChunkSize - 1
		if end >= total {
			end = total - 1
		}

		n, err := d.fetchWindow(ctx, entry.URL, file, fetch.ByteRange{Start: offset, End: end})
		if err != nil {
			return err
		}
		offset += n
		bar.incr(n)
	}

	st, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "stat %s", entry.Filename)
	}
	if st.Size() != total {
		return &fetch.ShortReadError{Filename: entry.Filename, Want: total, Got: st.Size()}
	}
	return nil
}

// fetchWindow downloads one byte window with per-window retry and
// exponential backoff.
func (d *Downloader) fetchWindow(ctx context.Context, url string, file *os.File, window fetch.ByteRange) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := d.backoff(ctx, attempt); err != nil {
				return 0, err
			}
		}
		if err := d.wait(ctx); err != nil {
			return 0, err
		}

		body, err := d.client.Get(ctx, url, &window)
		if err == nil {
			n, copyErr := io.Copy(file, body)
			body.Close()
			if copyErr == nil {
				return n, nil
			}
			// A failed copy may have appended part of the window; rewind
			// the file so the retry can re-fetch it whole.
			if err := file.Truncate(window.Start); err != nil {
				return 0, errors.Wrap(err, "truncating after failed window")
			}
			err = copyErr
		}
		if fetch.IsPermanent(err) || ctx.Err() != nil {
			return 0, err
		}
		lastErr = err
		d.logger.WithFields(logrus.Fields{
			"url":     url,
			"range":   window,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Chunk failed, retrying")
	}
	return 0, &fetch.MaxRetriesError{URL: url, Attempts: d.cfg.MaxRetries, Last: lastErr}
}

// downloadWhole streams the file in a single request, retried as a unit.
func (d *Downloader) downloadWhole(ctx context.Context, entry catalog.Entry, path string, total int64, bar *fileBar) error {
	var lastErr error
	for attempt := 0; attempt < d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := d.backoff(ctx, attempt); err != nil {
				return err
			}
		}
		if err := d.wait(ctx); err != nil {
			return err
		}

		written, err := d.streamWhole(ctx, entry.URL, path, bar)
		if err == nil {
			if total > 0 && written != total {
				return &fetch.ShortReadError{Filename: entry.Filename, Want: total, Got: written}
			}
			bar.complete(written)
			return nil
		}
		if fetch.IsPermanent(err) || ctx.Err() != nil {
			return err
		}
		lastErr = err
		d.logger.WithFields(logrus.Fields{
			"file":    entry.Filename,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Download failed, retrying")
	}
	return &fetch.MaxRetriesError{URL: entry.URL, Attempts: d.cfg.MaxRetries, Last: lastErr}
}

func (d *Downloader) streamWhole(ctx context.Context, url, path string, bar *fileBar) (int64, error) {
	body, err := d.client.Get(ctx, url, nil)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	file, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrapf(err, "creating %s", path)
	}
	defer file.Close()

	bar.setCurrent(0)
	return io.Copy(file, bar.proxyReader(body))
}

// backoff sleeps 2^min(attempt, 5) seconds, honoring cancellation.
func (d *Downloader) backoff(ctx context.Context, attempt int) error {
	exp := attempt
	if exp > maxBackoffExponent {
		exp = maxBackoffExponent
	}
	return d.sleep(ctx, time.Duration(1<<uint(exp))*time.Second)
}

// wait blocks on the request rate limiter, when one is configured.
func (d *Downloader) wait(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	return d.limiter.Wait(ctx)
}
