package orchestration

// Outcome is the result class of a coordinator run.
type Outcome int

const (
	// OutcomeOK means every segment was emitted.
	OutcomeOK Outcome = iota
	// OutcomeInsufficientData means the roster was shorter than the topology
	// requires and nothing was emitted. It is a normal result, not a fault.
	OutcomeInsufficientData
	// OutcomeInterrupted means the run's context was cancelled or expired
	// before every worker finished.
	OutcomeInterrupted
	// OutcomeFailed means at least one emission failed.
	OutcomeFailed
)

// String returns the label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeInsufficientData:
		return "insufficient_data"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observer is notified about the lifecycle of forked workers. Workers are
// numbered from 1; the caller's own segment is not reported. Implementations
// must be safe for concurrent use.
type Observer interface {
	// WorkerStarted is called from inside the worker goroutine before its
	// first emission.
	WorkerStarted(worker int)
	// WorkerFinished is called from inside the worker goroutine after its
	// last emission attempt. err is nil on success.
	WorkerFinished(worker int, err error)
}

// NullObserver ignores all notifications.
type NullObserver struct{}

// WorkerStarted does nothing.
func (NullObserver) WorkerStarted(int) {}

// WorkerFinished does nothing.
func (NullObserver) WorkerFinished(int, error) {}

// multiObserver fans notifications out to several observers in order.
type multiObserver []Observer

func (m multiObserver) WorkerStarted(worker int) {
	for _, o := range m {
		o.WorkerStarted(worker)
	}
}

func (m multiObserver) WorkerFinished(worker int, err error) {
	for _, o := range m {
		o.WorkerFinished(worker, err)
	}
}

// Observers combines observers; nil entries are skipped.
func Observers(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return NullObserver{}
	case 1:
		return m[0]
	default:
		return m
	}
}
