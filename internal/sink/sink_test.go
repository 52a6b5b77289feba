package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/agbru/rosterfan/internal/errors"
)

// lockedBuffer makes each Write atomic, like a process output stream, while
// leaving consecutive writes free to interleave.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSuffix(b.buf.String(), "\n"), "\n")
}

type failingWriter struct {
	err      error
	failFrom int
	calls    int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls >= w.failFrom {
		return 0, w.err
	}
	return len(p), nil
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

// countingLocker records lock acquisitions.
type countingLocker struct {
	mu    sync.Mutex
	locks int
}

func (l *countingLocker) Lock()   { l.mu.Lock(); l.locks++ }
func (l *countingLocker) Unlock() { l.mu.Unlock() }

func TestEmit_OneNamePerLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		sink func(w io.Writer) Sink
	}{
		{"unsynchronized", func(w io.Writer) Sink { return NewUnsynchronized(w) }},
		{"synchronized", func(w io.Writer) Sink { return NewSynchronized(w) }},
		{"unsynchronized chunked", func(w io.Writer) Sink { return NewUnsynchronized(w, WithChunkSize(1)) }},
		{"synchronized chunked", func(w io.Writer) Sink { return NewSynchronized(w, WithChunkSize(3)) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			s := tt.sink(&buf)
			for _, n := range []string{"Anna", "Boris", "Ülle"} {
				if err := s.Emit(context.Background(), n); err != nil {
					t.Fatalf("Emit(%q): %v", n, err)
				}
			}
			if got, want := buf.String(), "Anna\nBoris\nÜlle\n"; got != want {
				t.Errorf("output = %q, want %q", got, want)
			}
		})
	}
}

func TestChunkHook_ReportsProgress(t *testing.T) {
	t.Parallel()
	var progress []string
	s := NewUnsynchronized(io.Discard, WithChunkSize(2), WithChunkHook(func(name string, written, total int) {
		progress = append(progress, fmt.Sprintf("%s:%d/%d", name, written, total))
	}))
	if err := s.Emit(context.Background(), "Diana"); err != nil {
		t.Fatal(err)
	}
	want := "Diana:2/6 Diana:4/6 Diana:5/6 Diana:6/6"
	if got := strings.Join(progress, " "); got != want {
		t.Errorf("hook calls = %q, want %q", got, want)
	}
}

func TestEmit_WriteFailure(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		w       io.Writer
		wantIs  error
		discipl func(io.Writer) Sink
	}{
		{"closed pipe unsynchronized", &failingWriter{err: io.ErrClosedPipe, failFrom: 1}, io.ErrClosedPipe, func(w io.Writer) Sink { return NewUnsynchronized(w) }},
		{"newline write fails synchronized", &failingWriter{err: io.ErrClosedPipe, failFrom: 2}, io.ErrClosedPipe, func(w io.Writer) Sink { return NewSynchronized(w) }},
		{"short write", shortWriter{}, io.ErrShortWrite, func(w io.Writer) Sink { return NewSynchronized(w) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.discipl(tt.w).Emit(context.Background(), "Erin")
			var sinkErr *apperrors.SinkError
			if !errors.As(err, &sinkErr) {
				t.Fatalf("expected *SinkError, got %v", err)
			}
			if sinkErr.Name != "Erin" {
				t.Errorf("SinkError.Name = %q, want Erin", sinkErr.Name)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("expected %v in chain, got %v", tt.wantIs, err)
			}
		})
	}
}

func TestSynchronized_ReleasesLockOnFailure(t *testing.T) {
	t.Parallel()
	l := &countingLocker{}
	s := NewSynchronized(&failingWriter{err: io.ErrClosedPipe, failFrom: 1}, WithLocker(l))
	_ = s.Emit(context.Background(), "Finn")
	_ = s.Emit(context.Background(), "Finn")
	if l.locks != 2 {
		t.Errorf("lock acquired %d times, want 2", l.locks)
	}
}

// stalledPair emits "Carl" and "Erin" from two goroutines. Carl's emission
// stalls after its first chunk until Erin's line is complete or the stall
// times out; Erin only starts once Carl is mid-write.
func stalledPair(t *testing.T, build func(io.Writer, ChunkHook) Sink) []string {
	t.Helper()
	out := &lockedBuffer{}
	carlStarted := make(chan struct{})
	erinDone := make(chan struct{})

	hook := func(name string, written, total int) {
		switch {
		case name == "Carl" && written == 2:
			close(carlStarted)
			select {
			case <-erinDone:
			case <-time.After(200 * time.Millisecond):
			}
		case name == "Erin" && written == total:
			close(erinDone)
		}
	}
	s := build(out, hook)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.Emit(context.Background(), "Carl"); err != nil {
			t.Errorf("Emit(Carl): %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		<-carlStarted
		if err := s.Emit(context.Background(), "Erin"); err != nil {
			t.Errorf("Emit(Erin): %v", err)
		}
	}()
	wg.Wait()
	return out.Lines()
}

func TestUnsynchronized_InterleavesUnderStall(t *testing.T) {
	t.Parallel()
	lines := stalledPair(t, func(w io.Writer, h ChunkHook) Sink {
		return NewUnsynchronized(w, WithChunkSize(2), WithChunkHook(h))
	})

	want := []string{"CaErin", "rl"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestSynchronized_AtomicUnderStall(t *testing.T) {
	t.Parallel()
	lines := stalledPair(t, func(w io.Writer, h ChunkHook) Sink {
		return NewSynchronized(w, WithChunkSize(2), WithChunkHook(h))
	})

	want := []string{"Carl", "Erin"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestSynchronized_ConcurrentEmissionsNeverSplit(t *testing.T) {
	t.Parallel()
	names := []string{"Anna", "Boris", "Carl", "Diana", "Erin", "Finn"}
	valid := make(map[string]bool, len(names))
	for _, n := range names {
		valid[n] = true
	}

	out := &lockedBuffer{}
	s := NewSynchronized(out, WithChunkSize(1), WithChunkHook(func(string, int, int) { runtime.Gosched() }))

	const rounds = 50
	var wg sync.WaitGroup
	for _, n := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if err := s.Emit(context.Background(), name); err != nil {
					t.Errorf("Emit(%q): %v", name, err)
					return
				}
			}
		}(n)
	}
	wg.Wait()

	lines := out.Lines()
	if len(lines) != rounds*len(names) {
		t.Fatalf("got %d lines, want %d", len(lines), rounds*len(names))
	}
	for i, l := range lines {
		if !valid[l] {
			t.Fatalf("line %d is not a whole name: %q", i, l)
		}
	}
}

func TestSynchronized_SharedLockerAcrossSinks(t *testing.T) {
	t.Parallel()
	l := &countingLocker{}
	out := &lockedBuffer{}
	a := NewSynchronized(out, WithLocker(l))
	b := NewSynchronized(out, WithLocker(l))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = a.Emit(context.Background(), "Anna") }()
		go func() { defer wg.Done(); _ = b.Emit(context.Background(), "Boris") }()
	}
	wg.Wait()

	if l.locks != 20 {
		t.Errorf("shared locker acquired %d times, want 20", l.locks)
	}
	for _, line := range out.Lines() {
		if line != "Anna" && line != "Boris" {
			t.Fatalf("split line %q", line)
		}
	}
}

func TestCounting(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	var seen []string
	inner := Func(func(_ context.Context, name string) error {
		if name == "bad" {
			return boom
		}
		return nil
	})
	s := NewCounting(inner, func(name string, err error) {
		seen = append(seen, fmt.Sprintf("%s=%v", name, err))
	})

	_ = s.Emit(context.Background(), "Anna")
	if err := s.Emit(context.Background(), "bad"); !errors.Is(err, boom) {
		t.Errorf("error not forwarded: %v", err)
	}
	_ = s.Emit(context.Background(), "Boris")

	if s.Emitted() != 2 || s.Failed() != 1 {
		t.Errorf("Emitted=%d Failed=%d, want 2 and 1", s.Emitted(), s.Failed())
	}
	if got := strings.Join(seen, ","); got != "Anna=<nil>,bad=boom,Boris=<nil>" {
		t.Errorf("callback saw %q", got)
	}
}
