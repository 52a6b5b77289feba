//go:generate mockgen -source=sink.go -destination=mocks/mock_sink.go -package=mocks

package sink

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	apperrors "github.com/agbru/rosterfan/internal/errors"
)

// Sink emits record names.
type Sink interface {
	// Emit writes name followed by a newline. A failed write is reported as
	// an *apperrors.SinkError.
	Emit(ctx context.Context, name string) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, name string) error

// Emit calls f.
func (f Func) Emit(ctx context.Context, name string) error { return f(ctx, name) }

// ChunkHook is called after every chunk written for a name. written counts the
// bytes of the line written so far, total is len(name)+1.
type ChunkHook func(name string, written, total int)

// Option configures a sink.
type Option func(*options)

type options struct {
	chunkSize int
	hook      ChunkHook
	locker    sync.Locker
}

// WithChunkSize splits each name into writes of at most n bytes. Zero or a
// negative n writes the name in one call. The newline is always a separate write.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithChunkHook installs a hook fired after each chunk write.
func WithChunkHook(h ChunkHook) Option {
	return func(o *options) { o.hook = h }
}

// WithLocker sets the lock used by a Synchronized sink. Sharing one Locker
// between several sinks serializes emissions across all of them.
func WithLocker(l sync.Locker) Option {
	return func(o *options) { o.locker = l }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var newline = []byte{'\n'}

// lineWriter writes one name per line in chunks.
type lineWriter struct {
	w         io.Writer
	chunkSize int
	hook      ChunkHook
}

func (lw *lineWriter) writeLine(name string) error {
	total := len(name) + 1
	written := 0

	write := func(p []byte) error {
		n, err := lw.w.Write(p)
		written += n
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return &apperrors.SinkError{Name: name, Cause: err}
		}
		if lw.hook != nil {
			lw.hook(name, written, total)
		}
		return nil
	}

	data := []byte(name)
	step := lw.chunkSize
	if step <= 0 || step > len(data) {
		step = len(data)
	}
	for start := 0; start < len(data); start += step {
		end := min(start+step, len(data))
		if err := write(data[start:end]); err != nil {
			return err
		}
	}
	return write(newline)
}

// Unsynchronized writes without mutual exclusion.
type Unsynchronized struct {
	lw lineWriter
}

// NewUnsynchronized returns a sink writing to w with no locking. Workers call
// Emit concurrently, so w must accept concurrent Write calls, as *os.File
// does. Writes of different names may still interleave between chunks.
// WithLocker is ignored.
func NewUnsynchronized(w io.Writer, opts ...Option) *Unsynchronized {
	o := buildOptions(opts)
	return &Unsynchronized{lw: lineWriter{w: w, chunkSize: o.chunkSize, hook: o.hook}}
}

// Emit writes name and a newline. Concurrent calls may interleave.
func (s *Unsynchronized) Emit(_ context.Context, name string) error {
	return s.lw.writeLine(name)
}

// Synchronized serializes every emission through one lock.
type Synchronized struct {
	mu sync.Locker
	lw lineWriter
}

// NewSynchronized returns a sink writing to w under a lock. Without
// WithLocker the sink uses its own mutex.
func NewSynchronized(w io.Writer, opts ...Option) *Synchronized {
	o := buildOptions(opts)
	mu := o.locker
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Synchronized{mu: mu, lw: lineWriter{w: w, chunkSize: o.chunkSize, hook: o.hook}}
}

// Emit writes name and a newline while holding the lock. The lock covers only
// the writes of this one line.
func (s *Synchronized) Emit(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lw.writeLine(name)
}

// Counting wraps a sink, counts emissions and reports each to a callback.
type Counting struct {
	next    Sink
	onEmit  func(name string, err error)
	emitted atomic.Int64
	failed  atomic.Int64
}

// NewCounting wraps next. onEmit may be nil.
func NewCounting(next Sink, onEmit func(name string, err error)) *Counting {
	return &Counting{next: next, onEmit: onEmit}
}

// Emit forwards to the wrapped sink and records the result.
func (s *Counting) Emit(ctx context.Context, name string) error {
	err := s.next.Emit(ctx, name)
	if err != nil {
		s.failed.Add(1)
	} else {
		s.emitted.Add(1)
	}
	if s.onEmit != nil {
		s.onEmit(name, err)
	}
	return err
}

// Emitted returns the number of successful emissions.
func (s *Counting) Emitted() int64 { return s.emitted.Load() }

// Failed returns the number of failed emissions.
func (s *Counting) Failed() int64 { return s.failed.Load() }
