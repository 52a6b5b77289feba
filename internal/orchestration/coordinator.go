package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/rosterfan/internal/errors"
	"github.com/agbru/rosterfan/internal/logging"
	"github.com/agbru/rosterfan/internal/parallel"
	"github.com/agbru/rosterfan/internal/roster"
	"github.com/agbru/rosterfan/internal/sink"
)

// ErrInterrupted wraps the context error returned with OutcomeInterrupted.
var ErrInterrupted = errors.New("report interrupted")

// Coordinator runs one fork/join emission pass per call. It holds no state
// between runs and may be used by several goroutines at once.
type Coordinator struct {
	topology    Topology
	observer    Observer
	logger      logging.Logger
	joinTimeout time.Duration
}

// CoordinatorOption configures a Coordinator during construction.
type CoordinatorOption func(*Coordinator)

// WithObserver sets the worker lifecycle observer.
func WithObserver(o Observer) CoordinatorOption {
	return func(c *Coordinator) { c.observer = o }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logging.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// WithJoinTimeout bounds each run. Zero means wait until every worker is done.
func WithJoinTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.joinTimeout = d }
}

// NewCoordinator validates the topology and builds a coordinator.
func NewCoordinator(topology Topology, opts ...CoordinatorOption) (*Coordinator, error) {
	if err := topology.Validate(); err != nil {
		return nil, err
	}
	c := &Coordinator{topology: topology}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.observer = NullObserver{}
	}
	if c.logger == nil {
		c.logger = logging.NopLogger{}
	}
	return c, nil
}

// Topology returns the coordinator's split layout.
func (c *Coordinator) Topology() Topology { return c.topology }

// Run emits the roster through s.
//
// Records shorter than the topology requires yield OutcomeInsufficientData
// and no emission. Otherwise segment 0 is emitted in the calling goroutine,
// in order, before any worker is forked. Each worker then emits its own
// segment in order, checking ctx before every emission, and Run waits for all
// of them. No worker outlives the call.
//
// A failing emission ends its worker only; the others keep going and every
// failure is returned, joined, with OutcomeFailed. Cancellation of ctx, or an
// emission failing with a context error, yields OutcomeInterrupted with an
// error wrapping ErrInterrupted and the context cause.
func (c *Coordinator) Run(ctx context.Context, records []roster.Record, s sink.Sink) (Outcome, error) {
	required := c.topology.Required()
	if len(records) < required {
		c.logger.Debug("roster too small for topology",
			logging.Int("records", len(records)), logging.Int("required", required))
		return OutcomeInsufficientData, nil
	}

	if c.joinTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.joinTimeout)
		defer cancel()
	}

	names := roster.Roster(records[:required]).Names()

	start, end := c.topology.Segment(0)
	if err := emitSegment(ctx, s, names[start:end]); err != nil {
		return classify(ctx, apperrors.WrapError(err, "main segment"))
	}

	var (
		g        errgroup.Group
		failures parallel.ErrorCollector
	)
	for w := 1; w <= c.topology.Workers; w++ {
		worker := w
		start, end := c.topology.Segment(worker)
		segment := names[start:end]
		g.Go(func() error {
			c.observer.WorkerStarted(worker)
			err := apperrors.WrapError(emitSegment(ctx, s, segment), "worker %d", worker)
			c.observer.WorkerFinished(worker, err)
			if err != nil {
				c.logger.Debug("worker stopped", logging.Int("worker", worker), logging.Err(err))
			}
			failures.SetError(err)
			return nil
		})
	}
	_ = g.Wait()

	return classify(ctx, failures.Err())
}

// emitSegment emits names in order, stopping at the first failure so a later
// record of the segment never appears without the earlier ones.
func emitSegment(ctx context.Context, s sink.Sink, names []string) error {
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Emit(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func classify(ctx context.Context, err error) (Outcome, error) {
	ctxErr := ctx.Err()
	if ctxErr != nil || apperrors.IsContextError(err) {
		switch {
		case err == nil:
			err = ctxErr
		case ctxErr != nil && !errors.Is(err, ctxErr):
			err = errors.Join(err, ctxErr)
		}
		return OutcomeInterrupted, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	if err != nil {
		return OutcomeFailed, err
	}
	return OutcomeOK, nil
}
