package services

import (
	"context"
	"net/http"
	"time"

	"github.com/mudler/xlog"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricApi "go.opentelemetry.io/otel/sdk/metric"
)

// TranscriptionMetrics exports transcription and API timings through
// OpenTelemetry to a Prometheus registry.
type TranscriptionMetrics struct {
	Meter metric.Meter

	ApiTimeMetric metric.Float64Histogram
	Duration      metric.Float64Histogram
	AudioSeconds  metric.Float64Counter
	Segments      metric.Int64Counter
	Failures      metric.Int64Counter

	registry *prom.Registry
	provider *metricApi.MeterProvider
}

// NewTranscriptionMetrics bootstraps the OpenTelemetry pipeline for
// Prometheus export. If it does not return an error, make sure to call
// Shutdown for proper cleanup.
func NewTranscriptionMetrics() (*TranscriptionMetrics, error) {
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}
	provider := metricApi.NewMeterProvider(metricApi.WithReader(exporter))
	meter := provider.Meter("github.com/bnosac/audiowhisper")

	m := &TranscriptionMetrics{Meter: meter, registry: registry, provider: provider}

	if m.ApiTimeMetric, err = meter.Float64Histogram("api_call", metric.WithDescription("api calls")); err != nil {
		return nil, err
	}
	if m.Duration, err = meter.Float64Histogram("transcription_duration",
		metric.WithDescription("wall time spent running inference"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.AudioSeconds, err = meter.Float64Counter("transcription_audio",
		metric.WithDescription("seconds of audio transcribed"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.Segments, err = meter.Int64Counter("transcription_segments",
		metric.WithDescription("segments produced")); err != nil {
		return nil, err
	}
	if m.Failures, err = meter.Int64Counter("transcription_failures",
		metric.WithDescription("transcriptions that failed after validation")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TranscriptionMetrics) ObserveAPICall(method string, path string, duration float64) {
	opts := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	)
	m.ApiTimeMetric.Record(context.Background(), duration, opts)
}

// ObserveTranscription records a successful run.
func (m *TranscriptionMetrics) ObserveTranscription(ctx context.Context, model string, took time.Duration, audioSeconds float64, segments int) {
	opts := metric.WithAttributes(attribute.String("model", model))
	m.Duration.Record(ctx, took.Seconds(), opts)
	m.AudioSeconds.Add(ctx, audioSeconds, opts)
	m.Segments.Add(ctx, int64(segments), opts)
}

func (m *TranscriptionMetrics) ObserveFailure(ctx context.Context, model string) {
	m.Failures.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}

// Handler serves the registry in the Prometheus text format.
func (m *TranscriptionMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *TranscriptionMetrics) Shutdown(ctx context.Context) error {
	if err := m.provider.Shutdown(ctx); err != nil {
		xlog.Warn("metrics provider shutdown failed", "error", err)
		return err
	}
	return nil
}
