package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyp3rd/hyperbench/internal/telemetry/attrs"
	"github.com/hyp3rd/hyperbench/pkg/juxta"
)

// OTelTracingMiddleware wraps every run of a timed action in an OpenTelemetry span.
type OTelTracingMiddleware struct {
	name   string
	next   juxta.Timed
	tracer trace.Tracer
	// static attributes applied to all spans
	commonAttrs []attribute.KeyValue
}

// OTelTracingOption allows configuring the tracing middleware.
type OTelTracingOption func(*OTelTracingMiddleware)

// WithCommonAttributes sets attributes applied to all spans.
func WithCommonAttributes(attributes ...attribute.KeyValue) OTelTracingOption {
	return func(m *OTelTracingMiddleware) { m.commonAttrs = append(m.commonAttrs, attributes...) }
}

// NewOTelTracingMiddleware creates a tracing middleware.
func NewOTelTracingMiddleware(name string, next juxta.Timed, tracer trace.Tracer, opts ...OTelTracingOption) juxta.Timed {
	mw := &OTelTracingMiddleware{name: name, next: next, tracer: tracer}
	for _, o := range opts {
		o(mw)
	}

	return mw
}

// Tracing adapts NewOTelTracingMiddleware to a Middleware.
func Tracing(tracer trace.Tracer, opts ...OTelTracingOption) Middleware {
	return func(name string, next juxta.Timed) juxta.Timed {
		return NewOTelTracingMiddleware(name, next, tracer, opts...)
	}
}

// Time implements juxta.Timed with tracing.
func (mw *OTelTracingMiddleware) Time(ctx context.Context) (float64, error) {
	attributes := make([]attribute.KeyValue, 0, len(mw.commonAttrs)+1)
	attributes = append(attributes, mw.commonAttrs...)
	attributes = append(attributes, attribute.String(attrs.AttrTestName, mw.name))

	ctx, span := mw.tracer.Start(ctx, "hyperbench.Time", trace.WithAttributes(attributes...))
	defer span.End()

	elapsed, err := mw.next.Time(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool(attrs.AttrFailed, true))

		return elapsed, err
	}

	span.SetAttributes(attribute.Float64(attrs.AttrElapsedMS, elapsed*1000))

	return elapsed, nil
}
