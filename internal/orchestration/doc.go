// Package orchestration coordinates the fan-out of record emissions across a
// fixed topology of concurrent workers. The caller emits the first segment,
// then a fixed number of workers emit one segment each and are joined before
// Run returns. Presentation concerns stay behind the sink.Sink and Observer
// interfaces.
package orchestration
