package runtime

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// taskMetrics holds the instruments recorded for every task run.
type taskMetrics struct {
	duration metric.Float64Histogram
	count    metric.Int64Counter
}

// newTaskMetrics creates the task instruments. Instruments that cannot be
// created are skipped; metrics never fail a task.
func newTaskMetrics(meter metric.Meter) *taskMetrics {
	m := &taskMetrics{}
	if meter == nil {
		return m
	}

	var err error
	m.duration, err = meter.Float64Histogram(
		"sflowg.task.duration",
		metric.WithDescription("Task execution time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		slog.Warn("Task duration histogram unavailable", "error", err)
	}

	m.count, err = meter.Int64Counter(
		"sflowg.task.executions",
		metric.WithDescription("Number of task executions by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		slog.Warn("Task execution counter unavailable", "error", err)
	}
	return m
}

// record adds one run of task; outcome is "ok", "error" or the TaskError type.
func (m *taskMetrics) record(ctx context.Context, task, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	opts := metric.WithAttributes(
		attribute.String("sflowg.task", task),
		attribute.String("sflowg.outcome", outcome),
	)
	if m.duration != nil {
		m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), opts)
	}
	if m.count != nil {
		m.count.Add(ctx, 1, opts)
	}
}
