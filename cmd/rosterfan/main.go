package main

import (
	"context"
	"os"

	"github.com/agbru/rosterfan/internal/app"
	apperrors "github.com/agbru/rosterfan/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return
	}

	application, err := app.New(os.Args, os.Stderr)
	switch {
	case app.IsHelpError(err):
		os.Exit(apperrors.ExitSuccess)
	case err != nil:
		// Flag syntax errors are not ConfigErrors and map to the generic code.
		os.Exit(apperrors.ExitCodeFor(err))
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}
