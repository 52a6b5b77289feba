package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	apperrors "github.com/agbru/rosterfan/internal/errors"
	"github.com/agbru/rosterfan/internal/reporter"
	"github.com/agbru/rosterfan/internal/server"
)

// runServe exposes the reports over HTTP until SIGINT or SIGTERM.
func (a *Application) runServe(ctx context.Context, r *reporter.Reporter) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	srv := server.New(r, a.Metrics, a.Logger)
	if err := srv.ListenAndServe(ctx, a.Config.Addr); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
