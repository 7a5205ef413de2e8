package downloader

import (
	"sync"
	"time"
)

const (
	speedWindow         = 5
	speedSampleInterval = time.Second
	emitInterval        = 200 * time.Millisecond
)

// Info is a point-in-time progress snapshot of one DownloadFiles batch.
type Info struct {
	TotalItems      int
	CompletedItems  int
	FailedItems     int
	BlockedItems    int
	CancelledItems  int
	TotalBytes      int64
	DownloadedBytes int64
	CurrentFile     string
	CurrentGroup    string
	// Speed is bytes per second averaged over the last five samples.
	Speed    float64
	ETA      time.Duration
	Finished bool
}

// Settled is the count of items that reached a terminal state.
func (info Info) Settled() int {
	return info.CompletedItems + info.FailedItems + info.BlockedItems + info.CancelledItems
}

// Fraction is byte progress in [0,1], falling back to item progress when no sizes are known.
func (info Info) Fraction() float64 {
	if info.TotalBytes > 0 {
		fraction := float64(info.DownloadedBytes) / float64(info.TotalBytes)
		if fraction > 1 {
			return 1
		}
		if fraction < 0 {
			return 0
		}
		return fraction
	}
	if info.TotalItems == 0 {
		return 1
	}
	return float64(info.Settled()) / float64(info.TotalItems)
}

type Observer interface {
	Progress(Info)
}

type ObserverFunc func(Info)

func (fn ObserverFunc) Progress(info Info) {
	fn(info)
}

type tracker struct {
	mu       sync.Mutex
	info     Info
	observer Observer
	now      func() time.Time

	samples      []float64
	sampledAt    time.Time
	sampledBytes int64
	emittedAt    time.Time

	// emitted numbers snapshots under mu; deliverMu serializes delivery so the observer never
	// sees an older snapshot after a newer one.
	emitted   uint64
	deliverMu sync.Mutex
	delivered uint64
}

func newTracker(totalItems int, totalBytes int64, observer Observer, now func() time.Time) *tracker {
	started := now()
	return &tracker{
		info: Info{
			TotalItems: totalItems,
			TotalBytes: totalBytes,
		},
		observer:  observer,
		now:       now,
		sampledAt: started,
		emittedAt: started,
	}
}

func (t *tracker) setGroup(group string) {
	t.update(true, func(info *Info) {
		info.CurrentGroup = group
	})
}

func (t *tracker) start(file string) {
	t.update(false, func(info *Info) {
		info.CurrentFile = file
	})
}

// addBytes credits (or, when negative, rolls back) downloaded bytes.
func (t *tracker) addBytes(n int64) {
	if n == 0 {
		return
	}
	t.update(false, func(info *Info) {
		info.DownloadedBytes += n
		if info.DownloadedBytes < 0 {
			info.DownloadedBytes = 0
		}
	})
}

// grow raises the byte target when a server reveals a size the item did not declare.
func (t *tracker) grow(n int64) {
	if n <= 0 {
		return
	}
	t.update(false, func(info *Info) {
		info.TotalBytes += n
	})
}

func (t *tracker) settle(status Status) {
	t.update(true, func(info *Info) {
		switch status {
		case StatusCompleted, StatusSkipped:
			info.CompletedItems++
		case StatusFailed:
			info.FailedItems++
		case StatusBlocked:
			info.BlockedItems++
		case StatusCancelled:
			info.CancelledItems++
		}
	})
}

func (t *tracker) finish() Info {
	var final Info
	t.update(true, func(info *Info) {
		info.Finished = true
		info.CurrentFile = ""
		info.ETA = 0
		final = *info
	})
	return final
}

func (t *tracker) snapshot() Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}

func (t *tracker) update(force bool, mutate func(info *Info)) {
	t.mu.Lock()
	mutate(&t.info)
	now := t.now()
	t.sample(now)
	emit := force || now.Sub(t.emittedAt) >= emitInterval
	var sequence uint64
	if emit {
		t.emittedAt = now
		t.emitted++
		sequence = t.emitted
	}
	snapshot := t.info
	t.mu.Unlock()

	if emit && t.observer != nil {
		t.deliver(sequence, snapshot)
	}
}

// deliver drops snapshots that lost the race to a newer one.
func (t *tracker) deliver(sequence uint64, snapshot Info) {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	if sequence <= t.delivered {
		return
	}
	t.delivered = sequence
	t.observer.Progress(snapshot)
}

// sample records throughput at most once per second and refreshes speed and ETA from the
// moving average. Callers hold t.mu.
func (t *tracker) sample(now time.Time) {
	elapsed := now.Sub(t.sampledAt)
	if elapsed < speedSampleInterval {
		return
	}
	delta := t.info.DownloadedBytes - t.sampledBytes
	rate := float64(delta) / elapsed.Seconds()
	if rate < 0 {
		rate = 0
	}
	t.samples = append(t.samples, rate)
	if len(t.samples) > speedWindow {
		t.samples = t.samples[len(t.samples)-speedWindow:]
	}
	t.sampledAt = now
	t.sampledBytes = t.info.DownloadedBytes

	var sum float64
	for _, value := range t.samples {
		sum += value
	}
	t.info.Speed = sum / float64(len(t.samples))
	t.info.ETA = estimate(t.info.TotalBytes-t.info.DownloadedBytes, t.info.Speed)
}

func estimate(remaining int64, speed float64) time.Duration {
	if speed <= 0 || remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining) / speed * float64(time.Second))
}
