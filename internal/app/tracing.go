package app

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/agbru/rosterfan/internal/format"
	"github.com/agbru/rosterfan/internal/logging"
)

const tracerName = "github.com/agbru/rosterfan"

// spanLogger writes every ended span to the logger at debug level.
type spanLogger struct {
	logger logging.Logger
}

func (spanLogger) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p spanLogger) OnEnd(s sdktrace.ReadOnlySpan) {
	fields := []logging.Field{
		logging.String("span", s.Name()),
		logging.String("trace_id", s.SpanContext().TraceID().String()),
		logging.String("status", s.Status().Code.String()),
		logging.String("duration", format.Duration(s.EndTime().Sub(s.StartTime()))),
	}
	for _, kv := range s.Attributes() {
		fields = append(fields, logging.String(string(kv.Key), kv.Value.Emit()))
	}
	p.logger.Debug("span ended", fields...)
}

func (spanLogger) Shutdown(context.Context) error   { return nil }
func (spanLogger) ForceFlush(context.Context) error { return nil }

// newTracerProvider returns a provider that samples every report span and
// hands it to the logger.
func newTracerProvider(logger logging.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(spanLogger{logger: logger}),
	)
}
