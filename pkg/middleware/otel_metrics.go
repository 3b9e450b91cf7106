package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyp3rd/hyperbench/internal/telemetry/attrs"
	"github.com/hyp3rd/hyperbench/pkg/juxta"
)

// OTelMetricsMiddleware emits OpenTelemetry metrics for every run of a timed action.
type OTelMetricsMiddleware struct {
	name  string
	next  juxta.Timed
	attrs metric.MeasurementOption

	// instruments
	runs      metric.Int64Counter
	failures  metric.Int64Counter
	durations metric.Float64Histogram
}

// NewOTelMetricsMiddleware constructs a metrics middleware using the provided meter.
func NewOTelMetricsMiddleware(name string, next juxta.Timed, meter metric.Meter) (juxta.Timed, error) {
	runs, err := meter.Int64Counter("hyperbench.runs")
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}

	failures, err := meter.Int64Counter("hyperbench.failures")
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}

	durations, err := meter.Float64Histogram("hyperbench.duration.ms", metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create histogram: %w", err)
	}

	return &OTelMetricsMiddleware{
		name:      name,
		next:      next,
		attrs:     metric.WithAttributes(attribute.String(attrs.AttrTestName, name)),
		runs:      runs,
		failures:  failures,
		durations: durations,
	}, nil
}

// Time implements juxta.Timed with metrics.
func (mw *OTelMetricsMiddleware) Time(ctx context.Context) (float64, error) {
	elapsed, err := mw.next.Time(ctx)

	mw.runs.Add(ctx, 1, mw.attrs)

	if err != nil {
		mw.failures.Add(ctx, 1, mw.attrs)

		return elapsed, err
	}

	mw.durations.Record(ctx, elapsed*1000, mw.attrs)

	return elapsed, nil
}
