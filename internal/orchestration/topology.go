package orchestration

import apperrors "github.com/agbru/rosterfan/internal/errors"

const (
	// DefaultWorkers is the number of forked workers per run.
	DefaultWorkers = 2
	// DefaultSegmentSize is the number of records per segment.
	DefaultSegmentSize = 2
	// MaxWorkers bounds the configurable worker count.
	MaxWorkers = 64
)

// Topology describes how a roster is split. Segment 0 belongs to the caller,
// segments 1..Workers to the forked workers. Segments are contiguous and each
// holds SegmentSize records, so a run needs (Workers+1)*SegmentSize records.
// Records past that point are not emitted.
type Topology struct {
	Workers     int
	SegmentSize int
}

// DefaultTopology returns the two-worker, two-record-segment layout:
// caller {0,1}, worker 1 {2,3}, worker 2 {4,5}.
func DefaultTopology() Topology {
	return Topology{Workers: DefaultWorkers, SegmentSize: DefaultSegmentSize}
}

// Required returns the minimum roster length for a run.
func (t Topology) Required() int {
	return (t.Workers + 1) * t.SegmentSize
}

// Segment returns the half-open index range [start, end) of segment i.
func (t Topology) Segment(i int) (start, end int) {
	start = i * t.SegmentSize
	return start, start + t.SegmentSize
}

// Validate checks that the topology is usable.
func (t Topology) Validate() error {
	if t.Workers < 1 || t.Workers > MaxWorkers {
		return apperrors.NewConfigError("workers must be between 1 and %d, got %d", MaxWorkers, t.Workers)
	}
	if t.SegmentSize < 1 {
		return apperrors.NewConfigError("segment size must be at least 1, got %d", t.SegmentSize)
	}
	return nil
}
