// Package perf records OpenTelemetry spans around IO boundaries so a run can be inspected or exported.
package perf

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/meza/minecraft-launcher"

var (
	setupMu  sync.Mutex
	provider *sdktrace.TracerProvider
	exporter *spanRing
)

type Span struct {
	span trace.Span
}

type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
}

func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(config *spanConfig) {
		config.attributes = append(config.attributes, attrs...)
	}
}

func ensureProvider() *sdktrace.TracerProvider {
	setupMu.Lock()
	defer setupMu.Unlock()

	if provider == nil {
		exporter = newSpanRing(maxRecordedSpans)
		provider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	}
	return provider
}

// StartSpan opens a span under ctx. The returned context carries the span for nested calls.
func StartSpan(ctx context.Context, name string, options ...SpanOption) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	config := spanConfig{}
	for _, option := range options {
		option(&config)
	}

	tracer := ensureProvider().Tracer(tracerName)
	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(config.attributes...))
	return spanCtx, &Span{span: span}
}

func (span *Span) SetAttributes(attrs ...attribute.KeyValue) {
	if span == nil || span.span == nil {
		return
	}
	span.span.SetAttributes(attrs...)
}

func (span *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	if span == nil || span.span == nil {
		return
	}
	span.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (span *Span) End() {
	if span == nil || span.span == nil {
		return
	}
	span.span.End()
}

// SnapshotSpans returns every ended span recorded since the last Reset.
func SnapshotSpans() ([]sdktrace.ReadOnlySpan, error) {
	ensureProvider()
	setupMu.Lock()
	current := exporter
	setupMu.Unlock()
	return current.Snapshot(), nil
}

// OverwrittenSpans counts spans that fell out of the recording window since the last Reset.
func OverwrittenSpans() int {
	ensureProvider()
	setupMu.Lock()
	current := exporter
	setupMu.Unlock()
	return current.Overwritten()
}

// Reset drops recorded spans. Tests call it to isolate assertions.
func Reset() {
	ensureProvider()
	setupMu.Lock()
	current := exporter
	setupMu.Unlock()
	current.Reset()
}

// Shutdown flushes the provider and discards it. A later StartSpan builds a new one.
func Shutdown(ctx context.Context) error {
	setupMu.Lock()
	current := provider
	provider = nil
	exporter = nil
	setupMu.Unlock()

	if current == nil {
		return nil
	}
	return current.Shutdown(ctx)
}
