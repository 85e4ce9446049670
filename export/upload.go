package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gammazero/workerpool"
	"go.uber.org/multierr"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/metrics"
)

// maxUploadAttempts bounds the exponential backoff per file. With default
// backoff settings the final attempt happens a few minutes after the first.
const maxUploadAttempts = 8

// An Uploader PUTs snapshot files to an S3-compatible object store endpoint.
type Uploader struct {
	baseURL     string
	token       string
	concurrency int
	client      *http.Client
}

func NewUploader(cfg config.ExportConf) *Uploader {
	concurrency := cfg.UploadConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Uploader{
		baseURL:     strings.TrimRight(cfg.ObjectStoreURL, "/"),
		token:       cfg.ObjectStoreToken,
		concurrency: concurrency,
		client:      &http.Client{Timeout: 15 * time.Minute},
	}
}

// UploadAll sends the named files from dir, up to the configured number in
// flight at once. Every file is attempted even if some fail; the caller gets
// the combined errors.
func (u *Uploader) UploadAll(ctx context.Context, dir string, names []string) error {
	wp := workerpool.New(u.concurrency)

	var mu sync.Mutex
	var errs error
	for _, name := range names {
		name := name
		wp.Submit(func() {
			if err := u.Upload(ctx, filepath.Join(dir, name), name); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("upload %s: %w", name, err))
				mu.Unlock()
			}
		})
	}
	wp.StopWait()
	return errs
}

// Upload sends one file, retrying transport errors and server-side failures
// with exponential backoff. Client errors from the store are permanent.
func (u *Uploader) Upload(ctx context.Context, localPath, name string) error {
	target := u.objectURL(name)

	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.RecordInc(ctx, metrics.UploadRetry)
		}

		f, err := os.Open(localPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close() // nolint: errcheck

		st, err := f.Stat()
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, f)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.ContentLength = st.Size()
		req.Header.Set("Content-Type", contentType(name))
		if u.token != "" {
			req.Header.Set("Authorization", "Bearer "+u.token)
		}

		resp, err := u.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() // nolint: errcheck
		_, _ = io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("object store returned %s", resp.Status)
		default:
			return backoff.Permanent(fmt.Errorf("object store rejected upload: %s", resp.Status))
		}
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxUploadAttempts-1), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return err
	}
	log.Debugw("uploaded snapshot file", "file", name, "attempts", attempt)
	return nil
}

func (u *Uploader) objectURL(name string) string {
	return u.baseURL + "/" + url.PathEscape(name)
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	case strings.HasSuffix(name, ".zst"):
		return "application/zstd"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".sql"), strings.HasSuffix(name, ".sh"):
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
