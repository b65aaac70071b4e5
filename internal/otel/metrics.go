package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	initOnce sync.Once

	sprintOps      metric.Int64Counter
	reportDuration metric.Float64Histogram
	loggedHours    metric.Float64Counter
	sseConnections metric.Int64UpDownCounter
	sseEvents      metric.Int64Counter
)

func initInstruments() {
	initOnce.Do(func() {
		meter := Meter()
		sprintOps, _ = meter.Int64Counter("sprintd_sprint_operations_total",
			metric.WithDescription("Sprint lifecycle operations by op and outcome"))
		reportDuration, _ = meter.Float64Histogram("sprintd_report_generation_seconds",
			metric.WithDescription("Sprint report generation duration"),
			metric.WithUnit("s"))
		loggedHours, _ = meter.Float64Counter("sprintd_logged_hours_total",
			metric.WithDescription("Hours logged against sprint tasks"))
		sseConnections, _ = meter.Int64UpDownCounter("sprintd_sse_connections",
			metric.WithDescription("Active SSE subscribers"))
		sseEvents, _ = meter.Int64Counter("sprintd_sse_events_total",
			metric.WithDescription("SSE events published by type"))
	})
}

// RecordSprintOp counts one lifecycle operation and whether it succeeded.
func RecordSprintOp(ctx context.Context, op string, err error) {
	initInstruments()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	sprintOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

// RecordReportDuration records one report generation.
func RecordReportDuration(ctx context.Context, d time.Duration) {
	initInstruments()
	reportDuration.Record(ctx, d.Seconds())
}

// RecordLoggedHours counts hours logged (negative for reversals).
func RecordLoggedHours(ctx context.Context, hours float64) {
	initInstruments()
	loggedHours.Add(ctx, hours)
}

// RecordSSEConnection tracks subscriber attach/detach.
func RecordSSEConnection(ctx context.Context, delta int64) {
	initInstruments()
	sseConnections.Add(ctx, delta)
}

// RecordSSEEvent counts one published event.
func RecordSSEEvent(ctx context.Context, eventType string) {
	initInstruments()
	sseEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}
