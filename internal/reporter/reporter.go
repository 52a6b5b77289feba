package reporter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/rosterfan/internal/errors"
	"github.com/agbru/rosterfan/internal/format"
	"github.com/agbru/rosterfan/internal/logging"
	"github.com/agbru/rosterfan/internal/orchestration"
	"github.com/agbru/rosterfan/internal/roster"
	"github.com/agbru/rosterfan/internal/sink"
)

const tracerName = "github.com/agbru/rosterfan/internal/reporter"

// Discipline names an emission discipline.
type Discipline string

const (
	// Parallel emits through the unsynchronized sink.
	Parallel Discipline = "parallel"
	// Synchronized emits through the synchronized sink.
	Synchronized Discipline = "synchronized"
)

// Recorder receives report and emission measurements.
type Recorder interface {
	ObserveReport(discipline, outcome string, d time.Duration)
	ObserveEmission(discipline string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveReport(string, string, time.Duration) {}
func (nopRecorder) ObserveEmission(string, error)               {}

// Sinks holds one sink per discipline.
type Sinks struct {
	Parallel     sink.Sink
	Synchronized sink.Sink
}

// SinksFor builds both disciplines over the same writer.
func SinksFor(w io.Writer, opts ...sink.Option) Sinks {
	return Sinks{
		Parallel:     sink.NewUnsynchronized(w, opts...),
		Synchronized: sink.NewSynchronized(w, opts...),
	}
}

// Reporter runs reports against a roster provider.
type Reporter struct {
	provider    roster.Provider
	coordinator *orchestration.Coordinator
	sinks       Sinks
	logger      logging.Logger
	recorder    Recorder
	tracer      trace.Tracer
	newRunID    func() string
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Reporter) { r.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Reporter) { r.recorder = rec }
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Reporter) { r.tracer = t }
}

// WithRunIDs replaces the run ID generator.
func WithRunIDs(gen func() string) Option {
	return func(r *Reporter) { r.newRunID = gen }
}

// New creates a Reporter.
func New(provider roster.Provider, coordinator *orchestration.Coordinator, sinks Sinks, opts ...Option) *Reporter {
	r := &Reporter{
		provider:    provider,
		coordinator: coordinator,
		sinks:       sinks,
		logger:      logging.NopLogger{},
		recorder:    nopRecorder{},
		tracer:      otel.Tracer(tracerName),
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReportParallel emits the roster with workers writing independently.
func (r *Reporter) ReportParallel(ctx context.Context) (orchestration.Outcome, error) {
	return r.report(ctx, Parallel, r.sinks.Parallel)
}

// ReportSynchronized emits the roster with every emission serialized through
// one lock.
func (r *Reporter) ReportSynchronized(ctx context.Context) (orchestration.Outcome, error) {
	return r.report(ctx, Synchronized, r.sinks.Synchronized)
}

// Report dispatches on the discipline name.
func (r *Reporter) Report(ctx context.Context, d Discipline) (orchestration.Outcome, error) {
	switch d {
	case Parallel:
		return r.ReportParallel(ctx)
	case Synchronized:
		return r.ReportSynchronized(ctx)
	default:
		return orchestration.OutcomeFailed, apperrors.NewConfigError("unknown discipline %q", d)
	}
}

func (r *Reporter) report(ctx context.Context, d Discipline, s sink.Sink) (orchestration.Outcome, error) {
	runID := r.newRunID()
	ctx, span := r.tracer.Start(ctx, "report."+string(d), trace.WithAttributes(
		attribute.String("rosterfan.discipline", string(d)),
		attribute.String("rosterfan.run_id", runID),
	))
	defer span.End()

	start := time.Now()
	fields := []logging.Field{logging.String("run_id", runID), logging.String("discipline", string(d))}
	r.logger.Debug("report started", fields...)

	records, err := r.provider.FetchRoster(ctx)
	if err != nil {
		outcome := orchestration.OutcomeFailed
		if apperrors.IsContextError(err) {
			outcome = orchestration.OutcomeInterrupted
			err = fmt.Errorf("%w: %w", orchestration.ErrInterrupted, err)
		}
		r.finish(span, d, outcome, err, time.Since(start), fields)
		return outcome, err
	}
	span.SetAttributes(attribute.Int("rosterfan.records", len(records)))
	fields = append(fields, logging.Int("records", len(records)))

	counted := sink.NewCounting(s, func(_ string, err error) {
		r.recorder.ObserveEmission(string(d), err)
	})
	outcome, err := r.coordinator.Run(ctx, records, counted)
	r.finish(span, d, outcome, err, time.Since(start), fields)
	return outcome, err
}

func (r *Reporter) finish(span trace.Span, d Discipline, outcome orchestration.Outcome, err error, elapsed time.Duration, fields []logging.Field) {
	r.recorder.ObserveReport(string(d), outcome.String(), elapsed)
	span.SetAttributes(attribute.String("rosterfan.outcome", outcome.String()))

	fields = append(fields, logging.String("outcome", outcome.String()), logging.String("elapsed", format.Duration(elapsed)))
	switch outcome {
	case orchestration.OutcomeOK:
		span.SetStatus(codes.Ok, "")
		r.logger.Info("report finished", fields...)
	case orchestration.OutcomeInsufficientData:
		span.SetStatus(codes.Ok, "insufficient data")
		fields = append(fields, logging.Int("required", r.coordinator.Topology().Required()))
		r.logger.Info("not enough records for the demonstration", fields...)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome.String())
		r.logger.Error("report did not complete", err, fields...)
	}
}
