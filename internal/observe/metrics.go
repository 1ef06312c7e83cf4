// Package observe provides application-wide observability primitives for the
// voice orchestrator: OpenTelemetry metrics and the SDK provider wiring.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/atlasvoice/atlas-voice-core"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// ResolveDuration tracks prosody resolution latency per chunk.
	ResolveDuration metric.Float64Histogram

	// RenderDuration tracks TTS render latency per chunk.
	RenderDuration metric.Float64Histogram

	// --- Counters ---

	// ChunksSynthesized counts synthesised chunks. Use with attributes:
	//   attribute.String("engine", ...), attribute.String("status", ...)
	ChunksSynthesized metric.Int64Counter

	// EngineFailovers counts dispatcher failovers between engines. Use with:
	//   attribute.String("from", ...), attribute.String("to", ...), attribute.String("reason", ...)
	EngineFailovers metric.Int64Counter

	// WatchdogNudges counts stall-recovery nudges sent by the live session
	// watchdog.
	WatchdogNudges metric.Int64Counter

	// --- Quality ---

	// HumanizationScore records the per-chunk humanization score (0–100).
	HumanizationScore metric.Float64Histogram

	// --- Gauges ---

	// ActiveSessions tracks the number of live duplex sessions.
	ActiveSessions metric.Int64UpDownCounter

	// ScheduledSources tracks audio sources currently scheduled for playback.
	ScheduledSources metric.Int64UpDownCounter

	// --- HTTP ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// scoreBuckets defines histogram boundaries for the 0–100 humanization score.
var scoreBuckets = []float64{
	10, 20, 30, 40, 50, 60, 65, 70, 80, 90, 100,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ResolveDuration, err = m.Float64Histogram("atlasvoice.resolve.duration",
		metric.WithDescription("Latency of prosody matrix resolution per chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RenderDuration, err = m.Float64Histogram("atlasvoice.render.duration",
		metric.WithDescription("Latency of TTS rendering per chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HumanizationScore, err = m.Float64Histogram("atlasvoice.humanization.score",
		metric.WithDescription("Per-chunk humanization score (0-100)."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ChunksSynthesized, err = m.Int64Counter("atlasvoice.chunks.synthesized",
		metric.WithDescription("Total synthesised chunks by engine and status."),
	); err != nil {
		return nil, err
	}
	if met.EngineFailovers, err = m.Int64Counter("atlasvoice.engine.failovers",
		metric.WithDescription("Total engine failovers by source, target, and reason."),
	); err != nil {
		return nil, err
	}
	if met.WatchdogNudges, err = m.Int64Counter("atlasvoice.watchdog.nudges",
		metric.WithDescription("Total stall-recovery nudges sent by the live session watchdog."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("atlasvoice.active_sessions",
		metric.WithDescription("Number of live duplex sessions."),
	); err != nil {
		return nil, err
	}
	if met.ScheduledSources, err = m.Int64UpDownCounter("atlasvoice.scheduled_sources",
		metric.WithDescription("Audio sources currently scheduled for playback."),
	); err != nil {
		return nil, err
	}

	// HTTP histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("atlasvoice.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordChunk is a convenience method that records one synthesised chunk with
// the standard attribute set.
func (m *Metrics) RecordChunk(ctx context.Context, engine, status string) {
	m.ChunksSynthesized.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("status", status),
		),
	)
}

// RecordFailover is a convenience method that records one engine failover.
func (m *Metrics) RecordFailover(ctx context.Context, from, to, reason string) {
	m.EngineFailovers.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
			attribute.String("reason", reason),
		),
	)
}
