package runtime

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestTaskMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	var events []string
	c := NewContainer(WithMeterProvider(mp))
	_ = c.RegisterPlugin("scheduler", &schedulerPlugin{events: &events})
	exec := NewTaskExecution(context.Background(), c)

	_, _ = c.GetTask("scheduler.echo").Execute(exec, map[string]any{})
	_, _ = c.GetTask("scheduler.echo").Execute(exec, map[string]any{})
	_, _ = c.GetTask("scheduler.reject").Execute(exec, map[string]any{"channel": "news", "slots": 1})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	counts := map[string]int64{}
	var histogramPoints int
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name != "sflowg.task.executions" {
					continue
				}
				for _, dp := range data.DataPoints {
					task, _ := dp.Attributes.Value(attribute.Key("sflowg.task"))
					outcome, _ := dp.Attributes.Value(attribute.Key("sflowg.outcome"))
					counts[task.AsString()+"/"+outcome.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				if m.Name == "sflowg.task.duration" {
					histogramPoints += len(data.DataPoints)
				}
			}
		}
	}

	if counts["scheduler.echo/ok"] != 2 {
		t.Errorf("echo ok count = %d", counts["scheduler.echo/ok"])
	}
	if counts["scheduler.reject/permanent"] != 1 {
		t.Errorf("reject permanent count = %d (counts %v)", counts["scheduler.reject/permanent"], counts)
	}
	if histogramPoints != 2 {
		t.Errorf("duration histogram has %d series, want 2", histogramPoints)
	}
}

func TestTaskMetrics_NilSafe(t *testing.T) {
	var m *taskMetrics
	m.record(context.Background(), "x", "ok", 0)
	newTaskMetrics(nil).record(context.Background(), "x", "ok", 0)
}
