// Package sink implements the two emission disciplines used by the reporter.
//
// Both write one record name per line to a shared io.Writer. Unsynchronized
// lets concurrent callers write independently, so the pieces of two names can
// interleave in the output. Synchronized holds a single lock for the whole
// line, which makes every emission atomic with respect to every other one
// without ordering emissions from different callers.
package sink
