package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/agbru/rosterfan/internal/config"
	apperrors "github.com/agbru/rosterfan/internal/errors"
	"github.com/agbru/rosterfan/internal/logging"
	"github.com/agbru/rosterfan/internal/metrics"
	"github.com/agbru/rosterfan/internal/orchestration"
	"github.com/agbru/rosterfan/internal/reporter"
	"github.com/agbru/rosterfan/internal/roster"
	"github.com/agbru/rosterfan/internal/sink"
)

// Application represents the rosterfan application instance.
type Application struct {
	Config    config.AppConfig
	Provider  roster.Provider
	Metrics   *metrics.Metrics
	Logger    logging.Logger
	Tracing   *sdktrace.TracerProvider
	ErrWriter io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithProvider replaces the roster provider selected from the configuration.
func WithProvider(p roster.Provider) AppOption {
	return func(a *Application) { a.Provider = p }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.Logger = l }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	programName := "rosterfan"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	app := &Application{Config: cfg, ErrWriter: errWriter, Metrics: metrics.New()}
	for _, opt := range opts {
		opt(app)
	}
	if app.Provider == nil {
		app.Provider = providerFor(cfg)
	}
	if app.Logger == nil {
		app.Logger = newLogger(errWriter, cfg.LogFormat)
	}
	app.Tracing = newTracerProvider(app.Logger)
	return app, nil
}

// newLogger builds the logger for the configured format.
func newLogger(w io.Writer, format string) logging.Logger {
	if strings.EqualFold(format, config.LogFormatText) {
		return logging.NewStdLoggerAdapter(log.New(w, "rosterfan: ", log.LstdFlags))
	}
	return logging.NewLoggerWithFormat(w, "rosterfan", format)
}

// providerFor returns the file provider when a roster file is configured and
// the built-in demo roster otherwise.
func providerFor(cfg config.AppConfig) roster.Provider {
	if cfg.RosterFile != "" {
		return roster.NewFileProvider(cfg.RosterFile)
	}
	return roster.Demo()
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	zerolog.SetGlobalLevel(logLevel(a.Config))
	defer func() { _ = a.Tracing.Shutdown(context.Background()) }()

	r, err := a.newReporter(out)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}

	if a.Config.Mode == config.ModeServe {
		return a.runServe(ctx, r)
	}
	return a.runReports(ctx, r)
}

func logLevel(cfg config.AppConfig) zerolog.Level {
	switch {
	case cfg.Verbose:
		return zerolog.DebugLevel
	case cfg.Quiet:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// newReporter wires the coordinator, sinks and metrics into a reporter that
// emits to out.
func (a *Application) newReporter(out io.Writer) (*reporter.Reporter, error) {
	coordinator, err := orchestration.NewCoordinator(a.Config.Topology(),
		orchestration.WithObserver(a.Metrics),
		orchestration.WithLogger(a.Logger),
		orchestration.WithJoinTimeout(a.Config.JoinTimeout),
	)
	if err != nil {
		return nil, err
	}

	var sinkOpts []sink.Option
	if a.Config.ChunkSize > 0 {
		sinkOpts = append(sinkOpts, sink.WithChunkSize(a.Config.ChunkSize))
	}
	return reporter.New(a.Provider, coordinator, reporter.SinksFor(out, sinkOpts...),
		reporter.WithLogger(a.Logger),
		reporter.WithRecorder(a.Metrics),
		reporter.WithTracer(a.Tracing.Tracer(tracerName)),
	), nil
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
