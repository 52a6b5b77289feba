// Package parallel holds small concurrency helpers shared by the fan-out
// coordinator.
package parallel

import (
	"errors"
	"sync"
)

// ErrorCollector aggregates errors reported concurrently by workers.
// The zero value is ready to use. Nil errors are ignored.
type ErrorCollector struct {
	mu   sync.Mutex
	errs []error
}

// SetError records err if it is non-nil. Safe for concurrent use.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// Len returns the number of errors recorded so far.
func (c *ErrorCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// Err returns nil when nothing was recorded, the single error when exactly one
// was, and an errors.Join of all of them in arrival order otherwise.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch len(c.errs) {
	case 0:
		return nil
	case 1:
		return c.errs[0]
	default:
		return errors.Join(c.errs...)
	}
}

// Any reports whether any recorded error satisfies match.
func (c *ErrorCollector) Any(match func(error) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, err := range c.errs {
		if match(err) {
			return true
		}
	}
	return false
}
