// Package downloader executes grouped batches of DownloadItems with bounded concurrency,
// integrity fast-paths, resumable retries, post-download extraction and progress reporting.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/fileutils"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/logger"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	DefaultLimit       = 6
	DefaultMaxAttempts = 3
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusBlocked   Status = "blocked"
)

var (
	ErrInvalidItem = errors.New("download item requires url, destination and group")
	ErrBlocked     = errors.New("download is blocked and must be resolved manually")
)

// Outcome is the settled state of one item.
type Outcome struct {
	Item     models.DownloadItem
	Status   Status
	Bytes    int64
	Attempts int
	Err      error
}

type Result struct {
	Info  Info
	Items []Outcome
}

func (result Result) Failed() []Outcome {
	return result.filter(StatusFailed)
}

func (result Result) Blocked() []Outcome {
	return result.filter(StatusBlocked)
}

func (result Result) Cancelled() bool {
	return result.Info.CancelledItems > 0
}

// OK is true when every item either completed or was skipped.
func (result Result) OK() bool {
	return result.Info.CompletedItems == result.Info.TotalItems
}

func (result Result) filter(status Status) []Outcome {
	matched := make([]Outcome, 0)
	for _, outcome := range result.Items {
		if outcome.Status == status {
			matched = append(matched, outcome)
		}
	}
	return matched
}

type Options struct {
	// Limit is the number of transfers in flight across every batch of this Downloader.
	Limit       int
	MaxAttempts int
	// Backoff returns the wait before retry number attempt (1-based).
	Backoff  func(attempt int) time.Duration
	Client   httpclient.Doer
	Fs       afero.Fs
	Observer Observer
	Metrics  *Metrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type Downloader struct {
	options Options
	gate    *semaphore.Weighted
	dirs    *fileutils.DirCache

	mu      sync.Mutex
	cancels map[int]context.CancelFunc
	nextID  int
}

func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func New(options Options) *Downloader {
	if options.Limit <= 0 {
		options.Limit = DefaultLimit
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = DefaultMaxAttempts
	}
	if options.Backoff == nil {
		options.Backoff = ExponentialBackoff
	}
	if options.Fs == nil {
		options.Fs = afero.NewOsFs()
	}
	if options.Client == nil {
		client := httpclient.NewRLClient(rate.NewLimiter(rate.Inf, 0))
		client.RetryConfig = httpclient.NoRetries()
		options.Client = client
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Downloader{
		options: options,
		gate:    semaphore.NewWeighted(int64(options.Limit)),
		dirs:    fileutils.NewDirCache(options.Fs),
		cancels: make(map[int]context.CancelFunc),
	}
}

// Cancel aborts every batch currently running on this Downloader. Aborted items settle as
// cancelled, never as failures.
func (d *Downloader) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cancel := range d.cancels {
		cancel()
	}
}

func (d *Downloader) register(cancel context.CancelFunc) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.cancels[d.nextID] = cancel
	return d.nextID
}

func (d *Downloader) unregister(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.cancels, id)
}

type group struct {
	name    string
	indexes []int
}

// partition keeps groups in order of first appearance.
func partition(items []models.DownloadItem) []group {
	positions := make(map[string]int)
	groups := make([]group, 0)
	for index, item := range items {
		position, ok := positions[item.Group]
		if !ok {
			position = len(groups)
			positions[item.Group] = position
			groups = append(groups, group{name: item.Group})
		}
		groups[position].indexes = append(groups[position].indexes, index)
	}
	return groups
}

// DownloadFiles runs items group by group. It never fails as a whole: every item's fate is
// in the returned outcomes, in input order.
func (d *Downloader) DownloadFiles(ctx context.Context, items []models.DownloadItem) Result {
	ctx, cancel := context.WithCancel(ctx)
	id := d.register(cancel)
	defer func() {
		d.unregister(id)
		cancel()
	}()

	ctx, span := perf.StartSpan(ctx, "download.batch", perf.WithAttributes(attribute.Int("items", len(items))))
	defer span.End()

	var totalBytes int64
	for _, item := range items {
		if item.Size > 0 {
			totalBytes += item.Size
		}
	}
	progress := newTracker(len(items), totalBytes, d.options.Observer, d.options.Now)
	outcomes := make([]Outcome, len(items))

	for _, batch := range partition(items) {
		progress.setGroup(batch.name)
		d.runGroup(ctx, batch, items, outcomes, progress)
	}

	info := progress.finish()
	span.SetAttributes(
		attribute.Int("completed", info.CompletedItems),
		attribute.Int("failed", info.FailedItems),
		attribute.Int("blocked", info.BlockedItems),
		attribute.Int("cancelled", info.CancelledItems),
	)
	return Result{Info: info, Items: outcomes}
}

// runGroup is the barrier: it returns only after every item of the group settled.
func (d *Downloader) runGroup(ctx context.Context, batch group, items []models.DownloadItem, outcomes []Outcome, progress *tracker) {
	ctx, span := perf.StartSpan(ctx, "download.group",
		perf.WithAttributes(attribute.String("group", batch.name), attribute.Int("items", len(batch.indexes))),
	)
	defer span.End()

	var workers errgroup.Group
	for _, index := range batch.indexes {
		item := items[index]
		if err := d.gate.Acquire(ctx, 1); err != nil {
			outcomes[index] = d.settle(progress, Outcome{Item: item, Status: StatusCancelled, Err: err})
			continue
		}
		workers.Go(func() error {
			defer d.gate.Release(1)
			outcomes[index] = d.settle(progress, d.process(ctx, item, progress))
			return nil
		})
	}
	_ = workers.Wait()
}

func (d *Downloader) settle(progress *tracker, outcome Outcome) Outcome {
	progress.settle(outcome.Status)
	d.options.Metrics.item(outcome.Item.Group, outcome.Status)
	switch outcome.Status {
	case StatusFailed:
		d.options.Logger.Debugf("download failed %s: %v", outcome.Item.Destination, outcome.Err)
	case StatusBlocked:
		d.options.Logger.Debugf("download blocked %s", outcome.Item.Destination)
	}
	return outcome
}

func (d *Downloader) process(ctx context.Context, item models.DownloadItem, progress *tracker) Outcome {
	ctx, span := perf.StartSpan(ctx, "download.item",
		perf.WithAttributes(
			attribute.String("url", item.URL),
			attribute.String("destination", item.Destination),
			attribute.String("group", item.Group),
		),
	)
	defer span.End()

	outcome := d.resolve(ctx, item, progress)
	span.SetAttributes(attribute.String("status", string(outcome.Status)), attribute.Int("attempts", outcome.Attempts))
	return outcome
}

func (d *Downloader) resolve(ctx context.Context, item models.DownloadItem, progress *tracker) Outcome {
	if !item.Valid() {
		return Outcome{Item: item, Status: StatusFailed, Err: ErrInvalidItem}
	}
	if ctx.Err() != nil {
		return Outcome{Item: item, Status: StatusCancelled, Err: ctx.Err()}
	}

	if skipped, size, err := d.alreadyPresent(item); err != nil {
		d.options.Logger.Debugf("integrity check failed for %s: %v", item.Destination, err)
	} else if skipped {
		progress.addBytes(size)
		return Outcome{Item: item, Status: StatusSkipped, Bytes: size}
	}

	// A blocked file placed by hand passes the check above; anything else stays blocked.
	if item.IsBlocked() {
		return Outcome{Item: item, Status: StatusBlocked, Err: ErrBlocked}
	}

	if err := d.dirs.EnsureParent(item.Destination); err != nil {
		return Outcome{Item: item, Status: StatusFailed, Err: err}
	}

	progress.start(item.Destination)
	var outcome Outcome
	if item.IsLocal() {
		outcome = d.copyLocal(item, progress)
	} else {
		outcome = d.fetchWithRetry(ctx, item, progress)
	}
	if outcome.Status != StatusCompleted {
		return outcome
	}

	if item.Extracts() {
		if err := d.extract(ctx, item); err != nil {
			if ctx.Err() != nil {
				outcome.Status, outcome.Err = StatusCancelled, ctx.Err()
				return outcome
			}
			outcome.Status, outcome.Err = StatusFailed, err
		}
	}
	return outcome
}

// alreadyPresent checks the destination and its user-disabled sibling. It returns the
// byte count to credit when the item can be skipped.
func (d *Downloader) alreadyPresent(item models.DownloadItem) (bool, int64, error) {
	for _, candidate := range []string{item.Destination, item.Destination + models.DisabledSuffix} {
		ok, err := archive.Matches(d.options.Fs, candidate, item.Sha1, item.Size)
		if err != nil {
			return false, 0, err
		}
		if !ok {
			continue
		}
		if item.Sha256 != "" {
			var integrity *IntegrityError
			if err := d.verify(models.DownloadItem{Sha256: item.Sha256}, candidate); errors.As(err, &integrity) {
				continue
			} else if err != nil {
				return false, 0, err
			}
		}
		size := item.Size
		if size <= 0 {
			if info, statErr := d.options.Fs.Stat(candidate); statErr == nil {
				size = info.Size()
			}
		}
		return true, size, nil
	}
	return false, 0, nil
}

func (d *Downloader) extract(ctx context.Context, item models.DownloadItem) error {
	folder := filepath.Dir(item.Destination)
	var skip []string
	if item.Options != nil {
		if item.Options.ExtractFolder != "" {
			folder = item.Options.ExtractFolder
		}
		skip = item.Options.ExtractSkip
	}
	if _, err := archive.Extract(ctx, d.options.Fs, item.Destination, folder, archive.ExtractOptions{Skip: skip}); err != nil {
		return fmt.Errorf("extract %s: %w", item.Destination, err)
	}
	if item.Options.DeleteAfterExtract() {
		if err := d.options.Fs.Remove(item.Destination); err != nil {
			return fmt.Errorf("remove extracted archive %s: %w", item.Destination, err)
		}
	}
	return nil
}
