// internal/platform/metrics/metrics.go
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// IngestMetrics defines the metrics recorded by the ingest engine.
type IngestMetrics interface {
	// Task metrics
	IncTasksFinished(ctx context.Context, tier, state string)
	AddActiveTasks(ctx context.Context, tier string, delta int64)
	ObserveModuleDuration(ctx context.Context, module string, d time.Duration)
	IncAdmissionDeferred(ctx context.Context)

	// File metrics
	IncFilesProcessed(ctx context.Context)
	ObserveFileDuration(ctx context.Context, d time.Duration, failed bool)
	IncFilesSkipped(ctx context.Context, reason string)

	// Event metrics
	IncEventsPublished(ctx context.Context, kind string)
	IncObserverFaults(ctx context.Context)

	// Sink metrics
	IncFindings(ctx context.Context, kind string)
}

// ingestMetrics implements IngestMetrics.
type ingestMetrics struct {
	tasksFinished     metric.Int64Counter
	activeTasks       metric.Int64UpDownCounter
	moduleDuration    metric.Float64Histogram
	admissionDeferred metric.Int64Counter

	filesProcessed metric.Int64Counter
	filesSkipped   metric.Int64Counter
	fileDuration   metric.Float64Histogram

	eventsPublished metric.Int64Counter
	observerFaults  metric.Int64Counter

	findings metric.Int64Counter
}

const namespace = "autoingest"

// NewIngestMetrics creates the ingest instruments on the given provider.
func NewIngestMetrics(mp metric.MeterProvider) (IngestMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(ingestMetrics)
	var err error

	if m.tasksFinished, err = meter.Int64Counter(
		"tasks_finished_total",
		metric.WithDescription("Total number of scheduled tasks that reached a terminal state"),
	); err != nil {
		return nil, err
	}

	if m.activeTasks, err = meter.Int64UpDownCounter(
		"active_tasks",
		metric.WithDescription("Number of scheduled tasks not yet terminal"),
	); err != nil {
		return nil, err
	}

	if m.moduleDuration, err = meter.Float64Histogram(
		"module_process_duration_seconds",
		metric.WithDescription("Time spent in a module process hook"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.admissionDeferred, err = meter.Int64Counter(
		"admission_deferred_total",
		metric.WithDescription("Times a data-source task waited for free space"),
	); err != nil {
		return nil, err
	}

	if m.filesProcessed, err = meter.Int64Counter(
		"files_processed_total",
		metric.WithDescription("Total number of files pushed through the file pipeline"),
	); err != nil {
		return nil, err
	}

	if m.fileDuration, err = meter.Float64Histogram(
		"file_duration_seconds",
		metric.WithDescription("Time spent running the module pipeline over one file"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.filesSkipped, err = meter.Int64Counter(
		"files_skipped_total",
		metric.WithDescription("Total number of files skipped before the file pipeline"),
	); err != nil {
		return nil, err
	}

	if m.eventsPublished, err = meter.Int64Counter(
		"events_published_total",
		metric.WithDescription("Total number of events published on the bus"),
	); err != nil {
		return nil, err
	}

	if m.observerFaults, err = meter.Int64Counter(
		"observer_faults_total",
		metric.WithDescription("Total number of observer errors and panics"),
	); err != nil {
		return nil, err
	}

	if m.findings, err = meter.Int64Counter(
		"findings_total",
		metric.WithDescription("Total number of findings written to the result sink"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// NewNoop returns metrics backed by a no-op provider.
func NewNoop() IngestMetrics {
	m, _ := NewIngestMetrics(noop.NewMeterProvider())
	return m
}

func (m *ingestMetrics) IncTasksFinished(ctx context.Context, tier, state string) {
	m.tasksFinished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.String("state", state),
	))
}

func (m *ingestMetrics) AddActiveTasks(ctx context.Context, tier string, delta int64) {
	m.activeTasks.Add(ctx, delta, metric.WithAttributes(attribute.String("tier", tier)))
}

func (m *ingestMetrics) ObserveModuleDuration(ctx context.Context, module string, d time.Duration) {
	m.moduleDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("module", module)))
}

func (m *ingestMetrics) IncAdmissionDeferred(ctx context.Context) {
	m.admissionDeferred.Add(ctx, 1)
}

func (m *ingestMetrics) IncFilesProcessed(ctx context.Context) {
	m.filesProcessed.Add(ctx, 1)
}

func (m *ingestMetrics) ObserveFileDuration(ctx context.Context, d time.Duration, failed bool) {
	m.fileDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("failed", failed)))
}

func (m *ingestMetrics) IncFilesSkipped(ctx context.Context, reason string) {
	m.filesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *ingestMetrics) IncEventsPublished(ctx context.Context, kind string) {
	m.eventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *ingestMetrics) IncObserverFaults(ctx context.Context) {
	m.observerFaults.Add(ctx, 1)
}

func (m *ingestMetrics) IncFindings(ctx context.Context, kind string) {
	m.findings.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
