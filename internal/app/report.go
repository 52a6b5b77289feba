package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/agbru/rosterfan/internal/config"
	apperrors "github.com/agbru/rosterfan/internal/errors"
	"github.com/agbru/rosterfan/internal/orchestration"
	"github.com/agbru/rosterfan/internal/reporter"
)

// disciplinesFor lists the reports run for a CLI mode, in order.
func disciplinesFor(mode string) []reporter.Discipline {
	switch mode {
	case config.ModeParallel:
		return []reporter.Discipline{reporter.Parallel}
	case config.ModeSynchronized:
		return []reporter.Discipline{reporter.Synchronized}
	default:
		return []reporter.Discipline{reporter.Parallel, reporter.Synchronized}
	}
}

// runReports runs the configured reports once each and maps the outcome of
// the first unsuccessful one to an exit code.
func (a *Application) runReports(ctx context.Context, r *reporter.Reporter) int {
	timeoutCtx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(timeoutCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	for _, d := range disciplinesFor(a.Config.Mode) {
		outcome, err := r.Report(ctx, d)
		switch outcome {
		case orchestration.OutcomeOK:
			continue
		case orchestration.OutcomeInsufficientData:
			fmt.Fprintf(a.ErrWriter, "not enough records for the demonstration (need at least %d)\n",
				a.Config.Topology().Required())
			if a.Config.Strict {
				return apperrors.ExitErrorInsufficient
			}
			// Every later report would see the same roster size.
			return apperrors.ExitSuccess
		default:
			if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %w", apperrors.TimeoutError{Operation: string(d), Limit: a.Config.Timeout}, err)
			}
			fmt.Fprintf(a.ErrWriter, "Error: %s report %s: %v\n", d, outcome, err)
			return apperrors.ExitCodeFor(err)
		}
	}
	return apperrors.ExitSuccess
}
