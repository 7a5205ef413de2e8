package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// StatusError is a non-2xx answer from the origin.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// IntegrityError is a transfer whose bytes do not hash to a declared digest.
type IntegrityError struct {
	Path      string
	Algorithm string
	Expected  string
	Actual    string
}

func (e *IntegrityError) Error() string {
	algorithm := e.Algorithm
	if algorithm == "" {
		algorithm = "sha1"
	}
	return fmt.Sprintf("%s mismatch for %s: expected %s, got %s", algorithm, e.Path, e.Expected, e.Actual)
}

type digestCheck struct {
	algorithm string
	expected  string
	sum       func(afero.Fs, string) (string, error)
}

func digestChecks(item models.DownloadItem) []digestCheck {
	var checks []digestCheck
	if item.Sha1 != "" {
		checks = append(checks, digestCheck{algorithm: "sha1", expected: item.Sha1, sum: archive.Sha1File})
	}
	if item.Sha256 != "" {
		checks = append(checks, digestCheck{algorithm: "sha256", expected: item.Sha256, sum: archive.Sha256File})
	}
	return checks
}

// verify hashes path against every digest the item declares.
func (d *Downloader) verify(item models.DownloadItem, path string) error {
	for _, check := range digestChecks(item) {
		actual, err := check.sum(d.options.Fs, path)
		if err != nil {
			return err
		}
		if !strings.EqualFold(actual, check.expected) {
			return &IntegrityError{Path: path, Algorithm: check.algorithm, Expected: check.expected, Actual: actual}
		}
	}
	return nil
}

func localPath(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	path := parsed.Path
	if parsed.Host != "" && parsed.Host != "localhost" {
		path = "//" + parsed.Host + path
	}
	// file:///C:/x parses to /C:/x
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func (d *Downloader) copyLocal(item models.DownloadItem, progress *tracker) Outcome {
	source, err := localPath(item.URL)
	if err != nil {
		return Outcome{Item: item, Status: StatusFailed, Attempts: 1, Err: err}
	}
	written, err := d.copyFile(source, item.Destination)
	if err != nil {
		_ = d.options.Fs.Remove(item.Destination)
		return Outcome{Item: item, Status: StatusFailed, Attempts: 1, Err: err}
	}
	if item.Size <= 0 {
		progress.grow(written)
	}
	progress.addBytes(written)
	d.options.Metrics.transferred(written)
	return Outcome{Item: item, Status: StatusCompleted, Bytes: written, Attempts: 1}
}

func (d *Downloader) copyFile(source string, destination string) (int64, error) {
	in, err := d.options.Fs.Open(source)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	out, err := d.options.Fs.OpenFile(destination, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, err
	}
	written, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return written, copyErr
	}
	return written, closeErr
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

func (d *Downloader) fetchWithRetry(ctx context.Context, item models.DownloadItem, progress *tracker) Outcome {
	revealed := false
	var lastErr error
	attempts := 0

	for attempt := 0; attempt < d.options.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, d.options.Backoff(attempt)); err != nil {
				return Outcome{Item: item, Status: StatusCancelled, Attempts: attempts, Err: err}
			}
		}
		attempts++

		credited, err := d.fetchOnce(ctx, item, attempt, progress, &revealed)
		if err == nil {
			d.options.Metrics.attempt("success")
			d.options.Metrics.transferred(credited)
			return Outcome{Item: item, Status: StatusCompleted, Bytes: credited, Attempts: attempts}
		}

		progress.addBytes(-credited)
		if isCancellation(ctx, err) {
			d.options.Metrics.attempt("cancelled")
			return Outcome{Item: item, Status: StatusCancelled, Attempts: attempts, Err: err}
		}
		d.options.Metrics.attempt("failure")
		d.options.Logger.Debugf("attempt %d for %s failed: %v", attempts, item.URL, err)
		lastErr = err
	}

	if err := d.options.Fs.Remove(item.Destination); err != nil && !errors.Is(err, os.ErrNotExist) {
		lastErr = errors.Join(lastErr, err)
	}
	return Outcome{Item: item, Status: StatusFailed, Attempts: attempts, Err: httpclient.WrapTimeoutError(lastErr)}
}

func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fetchOnce performs one GET. It returns the bytes credited to progress for this attempt,
// including resumed bytes already on disk, so a failed attempt can be rolled back exactly.
func (d *Downloader) fetchOnce(ctx context.Context, item models.DownloadItem, attempt int, progress *tracker, revealed *bool) (int64, error) {
	ctx, span := perf.StartSpan(ctx, "download.attempt",
		perf.WithAttributes(attribute.Int("attempt", attempt), attribute.String("url", item.URL)),
	)
	defer span.End()

	var existing int64
	if attempt > 0 {
		if info, err := d.options.Fs.Stat(item.Destination); err == nil && !info.IsDir() {
			existing = info.Size()
		}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		request.Header.Set("Range", fmt.Sprintf("bytes=%d-", existing))
	}

	response, err := d.options.Client.Do(request)
	if err != nil {
		return 0, err
	}
	defer func() { _ = response.Body.Close() }()

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	var credited int64
	switch {
	case response.StatusCode == http.StatusPartialContent && existing > 0:
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		credited = existing
		span.SetAttributes(attribute.Int64("resumed_from", existing))
	case response.StatusCode >= 200 && response.StatusCode < 300:
		existing = 0
	default:
		_, _ = io.Copy(io.Discard, response.Body)
		return 0, &StatusError{URL: item.URL, StatusCode: response.StatusCode}
	}

	if item.Size <= 0 && !*revealed && response.ContentLength > 0 {
		*revealed = true
		progress.grow(existing + response.ContentLength)
	}
	progress.addBytes(credited)

	out, err := d.options.Fs.OpenFile(item.Destination, flags, 0644)
	if err != nil {
		return credited, err
	}
	counter := &creditingWriter{target: out, progress: progress}
	_, copyErr := io.Copy(counter, response.Body)
	closeErr := out.Close()
	credited += counter.written
	if copyErr != nil {
		return credited, copyErr
	}
	if closeErr != nil {
		return credited, closeErr
	}

	if err := d.verify(item, item.Destination); err != nil {
		var integrity *IntegrityError
		if errors.As(err, &integrity) {
			// a corrupt body must not be resumed
			_ = d.options.Fs.Remove(item.Destination)
		}
		return credited, err
	}
	span.SetAttributes(attribute.Int64("bytes", credited), attribute.Int("status", response.StatusCode))
	return credited, nil
}

type creditingWriter struct {
	target   io.Writer
	progress *tracker
	written  int64
}

func (w *creditingWriter) Write(p []byte) (int, error) {
	n, err := w.target.Write(p)
	if n > 0 {
		w.written += int64(n)
		w.progress.addBytes(int64(n))
	}
	return n, err
}
