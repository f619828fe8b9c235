// Package observability holds the logging, tracing, and metrics ports the
// payment engine is wired against. Concrete adapters (zap, prometheus, otel)
// live under internal/infrastructure/observability; everything else depends
// only on these interfaces.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Field is a structured log attribute.
type Field struct {
	Key   string
	Value any
}

func F(k string, v any) Field { return Field{Key: k, Value: v} }

// Label is a low-cardinality metric dimension.
type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }

// Logger is the structured logging port. With returns a child logger carrying
// the extra fields on every entry.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// TraceCtx starts spans without binding callers to a concrete tracer. The
// payment service opens one span per lifecycle operation through it.
type TraceCtx interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Counter and Histogram hide the prometheus vector types from call sites.
type Counter interface {
	Add(delta float64, labels ...Label)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
}

// Telemetry bundles the ports so services take a single dependency.
// Instruments are resolved by the names in metrics.go.
type Telemetry interface {
	Tracer() TraceCtx
	Counter(name string) Counter
	Histogram(name string) Histogram
	Logger() Logger
}
