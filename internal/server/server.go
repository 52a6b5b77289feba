// Package server exposes the report operations over HTTP, together with
// health and Prometheus endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/agbru/rosterfan/internal/logging"
	"github.com/agbru/rosterfan/internal/metrics"
	"github.com/agbru/rosterfan/internal/orchestration"
)

// Route paths.
const (
	PathPrintParallel     = "/roster/print-parallel"
	PathPrintSynchronized = "/roster/print-synchronized"
	PathHealth            = "/health"
	PathMetrics           = "/metrics"
)

// OutcomeHeader carries the report outcome on trigger responses.
const OutcomeHeader = "X-Report-Outcome"

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// ReportRunner is the subset of the reporter used by the server.
type ReportRunner interface {
	ReportParallel(ctx context.Context) (orchestration.Outcome, error)
	ReportSynchronized(ctx context.Context) (orchestration.Outcome, error)
}

// Server serves the trigger endpoints.
type Server struct {
	reporter ReportRunner
	metrics  *metrics.Metrics
	logger   logging.Logger
	security SecurityConfig
}

// Option configures a Server.
type Option func(*Server)

// WithSecurityConfig overrides the default security policy.
func WithSecurityConfig(c SecurityConfig) Option {
	return func(s *Server) { s.security = c }
}

// New creates a server. m and logger must not be nil.
func New(reporter ReportRunner, m *metrics.Metrics, logger logging.Logger, opts ...Option) *Server {
	s := &Server{
		reporter: reporter,
		metrics:  m,
		logger:   logger,
		security: DefaultSecurityConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return SecurityMiddleware(s.security, s.metricsMiddleware(h))
	}
	mux.HandleFunc(PathPrintParallel, wrap(s.handleReport(s.reporter.ReportParallel)))
	mux.HandleFunc(PathPrintSynchronized, wrap(s.handleReport(s.reporter.ReportSynchronized)))
	mux.HandleFunc(PathHealth, wrap(s.handleHealth))
	mux.HandleFunc(PathMetrics, wrap(s.handleMetrics))
	return mux
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", logging.String("addr", l.Addr().String()))
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// statusForOutcome maps a report outcome to an HTTP status. InsufficientData
// is a successful no-op.
func statusForOutcome(o orchestration.Outcome) int {
	switch o {
	case orchestration.OutcomeOK, orchestration.OutcomeInsufficientData:
		return http.StatusOK
	case orchestration.OutcomeInterrupted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleReport(run func(context.Context) (orchestration.Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.methodNotAllowed(w, r)
			return
		}
		outcome, err := run(r.Context())
		if err != nil {
			s.logger.Error("report request failed", err,
				logging.String("path", r.URL.Path), logging.String("outcome", outcome.String()))
		}
		w.Header().Set(OutcomeHeader, outcome.String())
		w.WriteHeader(statusForOutcome(outcome))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	s.metrics.WritePrometheus(w, r)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("method not allowed", logging.String("method", r.Method), logging.String("path", r.URL.Path))
	w.Header().Set("Allow", "GET")
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware tracks in-flight and completed requests.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.ObserveRequest(r.URL.Path, rec.status)
	}
}
