// Package observability wires OpenTelemetry metrics and tracing for the pipeline.
package observability

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "avatar-video-api"

// InitMetrics installs a global meter provider backed by a Prometheus exporter.
// It returns the /metrics handler and the provider shutdown function.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

type pipelineMetrics struct {
	submitted    otelmetric.Int64Counter
	finished     otelmetric.Int64Counter
	duration     otelmetric.Float64Histogram
	pollAttempts otelmetric.Int64Counter
}

// NewPipelineMetrics registers the pipeline instruments on the global meter provider.
func NewPipelineMetrics() (outbound.PipelineMetricsPort, error) {
	meter := otel.Meter(meterName)

	submitted, err := meter.Int64Counter("video_jobs_submitted_total",
		otelmetric.WithDescription("Video generation jobs accepted"))
	if err != nil {
		return nil, err
	}
	finished, err := meter.Int64Counter("video_jobs_finished_total",
		otelmetric.WithDescription("Video generation jobs that reached a terminal state"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("video_job_duration_seconds",
		otelmetric.WithDescription("Time from submission to the terminal state"),
		otelmetric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	pollAttempts, err := meter.Int64Counter("video_stage_poll_attempts_total",
		otelmetric.WithDescription("Status checks against external rendering services"))
	if err != nil {
		return nil, err
	}

	return &pipelineMetrics{
		submitted:    submitted,
		finished:     finished,
		duration:     duration,
		pollAttempts: pollAttempts,
	}, nil
}

func (m *pipelineMetrics) JobSubmitted(ctx context.Context) {
	m.submitted.Add(ctx, 1)
}

func (m *pipelineMetrics) JobFinished(ctx context.Context, status domain.JobStatus, duration time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("status", string(status)))
	m.finished.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}

func (m *pipelineMetrics) PollAttempt(ctx context.Context, stage domain.Stage, outcome string) {
	m.pollAttempts.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.String("outcome", outcome),
	))
}

type noopMetrics struct{}

// NewNoopMetrics discards every measurement.
func NewNoopMetrics() outbound.PipelineMetricsPort {
	return noopMetrics{}
}

func (noopMetrics) JobSubmitted(context.Context) {}
func (noopMetrics) JobFinished(context.Context, domain.JobStatus, time.Duration) {}
func (noopMetrics) PollAttempt(context.Context, domain.Stage, string) {}
