package refresher

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/cloudstatus/cloudstatus/internal/refresher"

// Metrics holds the OpenTelemetry instruments for refresh cycles.
type Metrics struct {
	cycleDuration   metric.Float64Histogram
	cycleTotal      metric.Int64Counter
	cycleSkipped    metric.Int64Counter
	providerResults metric.Int64Counter
}

// NewMetrics creates the refresher instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	cycleDuration, err := meter.Float64Histogram(
		"status.refresh.cycle.duration",
		metric.WithDescription("Duration of status refresh cycles in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cycleTotal, err := meter.Int64Counter(
		"status.refresh.cycle.total",
		metric.WithDescription("Total number of completed refresh cycles"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	cycleSkipped, err := meter.Int64Counter(
		"status.refresh.cycle.skipped",
		metric.WithDescription("Refresh cycles skipped because another cycle was in progress"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	providerResults, err := meter.Int64Counter(
		"status.refresh.provider.result",
		metric.WithDescription("Per-provider snapshot outcomes by status"),
		metric.WithUnit("{snapshot}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		cycleDuration:   cycleDuration,
		cycleTotal:      cycleTotal,
		cycleSkipped:    cycleSkipped,
		providerResults: providerResults,
	}, nil
}

// RecordCycle records a completed cycle.
func (m *Metrics) RecordCycle(ctx context.Context, result *CycleResult) {
	attrs := metric.WithAttributes(attribute.String("trigger", string(result.Trigger)))
	m.cycleDuration.Record(ctx, result.Duration.Seconds(), attrs)
	m.cycleTotal.Add(ctx, 1, attrs)

	for provider, st := range result.Statuses {
		m.providerResults.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider.name", string(provider)),
			attribute.String("provider.status", string(st)),
		))
	}
}

// RecordSkipped records a cycle that did not run.
func (m *Metrics) RecordSkipped(ctx context.Context, trigger Trigger) {
	m.cycleSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", string(trigger))))
}
