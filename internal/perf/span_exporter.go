package perf

import (
	"context"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// maxRecordedSpans bounds a full install, which ends at least one span per asset object.
const maxRecordedSpans = 8192

// spanRing keeps the most recent ended spans. Once full, each new span overwrites the
// oldest one and is counted in overwritten.
type spanRing struct {
	mu          sync.Mutex
	capacity    int
	spans       []sdktrace.ReadOnlySpan
	next        int
	overwritten int
}

func newSpanRing(capacity int) *spanRing {
	if capacity <= 0 {
		capacity = maxRecordedSpans
	}
	return &spanRing{capacity: capacity}
}

func (ring *spanRing) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	for _, span := range spans {
		if len(ring.spans) < ring.capacity {
			ring.spans = append(ring.spans, span)
			continue
		}
		ring.spans[ring.next] = span
		ring.next = (ring.next + 1) % ring.capacity
		ring.overwritten++
	}
	return nil
}

func (ring *spanRing) Shutdown(context.Context) error {
	return nil
}

func (ring *spanRing) Reset() {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	ring.spans = ring.spans[:0]
	ring.next = 0
	ring.overwritten = 0
}

// Snapshot returns the retained spans oldest first.
func (ring *spanRing) Snapshot() []sdktrace.ReadOnlySpan {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	out := make([]sdktrace.ReadOnlySpan, 0, len(ring.spans))
	out = append(out, ring.spans[ring.next:]...)
	return append(out, ring.spans[:ring.next]...)
}

func (ring *spanRing) Overwritten() int {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	return ring.overwritten
}
