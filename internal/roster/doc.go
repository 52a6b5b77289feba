// Package roster defines the records consumed by the reporter and the
// providers that supply them. A Roster is borrowed for the duration of a
// single report and is never mutated by its consumers.
package roster
