package model

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "vmodel"

const (
	spanFlush  = "vmodel.flush"
	spanUpdate = "vmodel.update"

	attrBatchKeys  = attribute.Key("vmodel.batch.keys")
	attrBatchID    = attribute.Key("vmodel.batch.id")
	attrUpdateKeys = attribute.Key("vmodel.update.keys")
)

func (m *Model) startSpan(name string, attrs ...attribute.KeyValue) trace.Span {
	_, span := m.cfg.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
