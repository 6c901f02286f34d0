// Package observe provides application-wide observability primitives for
// Lectara: OpenTelemetry metrics, tracing, structured logging helpers, and
// HTTP middleware for the diagnostics listener.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed via [InitProvider] so metrics can be scraped
// from the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with their own [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lectara metrics.
const meterName = "github.com/lectara/lectara"

// Metrics holds all OpenTelemetry metric instruments for the practice
// engine. The underlying OTel types handle their own synchronisation.
type Metrics struct {
	// RecordingDuration tracks how long each recording ran, from capture
	// start to stop.
	RecordingDuration metric.Float64Histogram

	// TranscodeDuration tracks capture-to-WAV transcoding latency.
	TranscodeDuration metric.Float64Histogram

	// ScoringDuration tracks pronunciation scoring round-trip latency.
	ScoringDuration metric.Float64Histogram

	// TTSDuration tracks narration synthesis latency.
	TTSDuration metric.Float64Histogram

	// Attempts counts completed attempts. Use with attributes:
	//   attribute.String("stop_reason", ...), attribute.String("status", ...)
	Attempts metric.Int64Counter

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// LowSignalCaptures counts recordings whose peak amplitude fell below the
	// advisory threshold.
	LowSignalCaptures metric.Int64Counter

	// ActiveRecordings tracks the number of live recordings. With a single
	// microphone this is 0 or 1; anything else is a lifecycle bug surfacing
	// in dashboards.
	ActiveRecordings metric.Int64UpDownCounter

	// HTTPRequestDuration tracks diagnostics-listener request time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// audio pipeline latencies: transcoding in milliseconds, scoring and
// synthesis in seconds, recordings up to the 10 s cut-off.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RecordingDuration, err = m.Float64Histogram("lectara.recording.duration",
		metric.WithDescription("Duration of each recording from start to stop."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscodeDuration, err = m.Float64Histogram("lectara.transcode.duration",
		metric.WithDescription("Latency of capture-to-WAV transcoding."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScoringDuration, err = m.Float64Histogram("lectara.scoring.duration",
		metric.WithDescription("Latency of pronunciation scoring requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("lectara.tts.duration",
		metric.WithDescription("Latency of narration synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Attempts, err = m.Int64Counter("lectara.attempts",
		metric.WithDescription("Completed practice attempts by stop reason and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("lectara.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("lectara.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.LowSignalCaptures, err = m.Int64Counter("lectara.capture.low_signal",
		metric.WithDescription("Recordings whose peak amplitude fell below the advisory threshold."),
	); err != nil {
		return nil, err
	}

	if met.ActiveRecordings, err = m.Int64UpDownCounter("lectara.active_recordings",
		metric.WithDescription("Number of live recordings."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("lectara.http.request.duration",
		metric.WithDescription("Diagnostics endpoint request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call from [otel.GetMeterProvider]. Panics if instrument creation
// fails, which cannot happen with the global provider.
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

// RecordAttempt records a completed attempt with the standard attribute set.
func (m *Metrics) RecordAttempt(ctx context.Context, stopReason, status string) {
	m.Attempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stop_reason", stopReason),
			attribute.String("status", status),
		),
	)
}

// RecordProviderRequest records a provider request with the standard
// attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error with the standard attribute
// set.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
