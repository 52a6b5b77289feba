// Package reporter exposes the two report operations. Each fetches the roster
// once and hands it to the coordinator with either the unsynchronized or the
// synchronized sink, returning the coordinator's outcome unchanged.
package reporter
