package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agbru/rosterfan/internal/metrics"
	"github.com/agbru/rosterfan/internal/orchestration"
)

// fakeRunner returns canned outcomes and counts calls per discipline.
type fakeRunner struct {
	outcome      orchestration.Outcome
	err          error
	parallel     atomic.Int32
	synchronized atomic.Int32
	block        bool
}

func (f *fakeRunner) run(ctx context.Context) (orchestration.Outcome, error) {
	if f.block {
		<-ctx.Done()
		return orchestration.OutcomeInterrupted, ctx.Err()
	}
	return f.outcome, f.err
}

func (f *fakeRunner) ReportParallel(ctx context.Context) (orchestration.Outcome, error) {
	f.parallel.Add(1)
	return f.run(ctx)
}

func (f *fakeRunner) ReportSynchronized(ctx context.Context) (orchestration.Outcome, error) {
	f.synchronized.Add(1)
	return f.run(ctx)
}

func TestReportEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		outcome    orchestration.Outcome
		err        error
		wantStatus int
	}{
		{"parallel ok", PathPrintParallel, orchestration.OutcomeOK, nil, http.StatusOK},
		{"synchronized ok", PathPrintSynchronized, orchestration.OutcomeOK, nil, http.StatusOK},
		{"insufficient data is a no-op success", PathPrintSynchronized, orchestration.OutcomeInsufficientData, nil, http.StatusOK},
		{"interrupted", PathPrintParallel, orchestration.OutcomeInterrupted, context.Canceled, http.StatusServiceUnavailable},
		{"failed", PathPrintSynchronized, orchestration.OutcomeFailed, errors.New("closed pipe"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{outcome: tt.outcome, err: tt.err}
			s := New(runner, metrics.New(), newTestLogger())

			req := httptest.NewRequest("GET", tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get(OutcomeHeader); got != tt.outcome.String() {
				t.Errorf("%s = %q, want %q", OutcomeHeader, got, tt.outcome.String())
			}
			if rec.Body.Len() != 0 {
				t.Errorf("body should be empty, got %q", rec.Body.String())
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers missing")
			}

			wantParallel := int32(0)
			if tt.path == PathPrintParallel {
				wantParallel = 1
			}
			if runner.parallel.Load() != wantParallel || runner.parallel.Load()+runner.synchronized.Load() != 1 {
				t.Errorf("calls: parallel=%d synchronized=%d", runner.parallel.Load(), runner.synchronized.Load())
			}
		})
	}
}

func TestReportEndpoints_RejectNonGET(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, metrics.New(), newTestLogger())

	for _, method := range []string{"POST", "DELETE"} {
		req := httptest.NewRequest(method, PathPrintParallel, http.NoBody)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", method, rec.Code)
		}
	}
	if runner.parallel.Load() != 0 {
		t.Error("report should not run for rejected methods")
	}
}

func TestHealth(t *testing.T) {
	s := New(&fakeRunner{}, metrics.New(), newTestLogger())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", PathHealth, http.NoBody))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"status\":\"ok\"}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	runner := &fakeRunner{outcome: orchestration.OutcomeOK}
	s := New(runner, metrics.New(), newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	url := fmt.Sprintf("http://%s%s", l.Addr(), PathPrintSynchronized)
	resp, err := http.Get(url)
	if err != nil {
		cancel()
		t.Fatalf("GET %s: %v", url, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Serve did not shut down")
	}
	if runner.synchronized.Load() != 1 {
		t.Errorf("synchronized report ran %d times", runner.synchronized.Load())
	}
}

func TestReportEndpoint_ClientGoneInterrupts(t *testing.T) {
	runner := &fakeRunner{block: true}
	s := New(runner, metrics.New(), newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", PathPrintParallel, http.NoBody).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Handler().ServeHTTP(rec, req)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after the request context ended")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
