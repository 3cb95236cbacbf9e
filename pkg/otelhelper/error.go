package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError records a stage failure on the run span. The span status flips to
// error so failed runs are queryable without scanning span events; the
// stage_failed event carries where in the run the failure happened.
func SetError(span trace.Span, stage string, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("stage_failed", trace.WithAttributes(
		append([]attribute.KeyValue{attribute.String(StageKey, stage)}, attrs...)...,
	))
}
