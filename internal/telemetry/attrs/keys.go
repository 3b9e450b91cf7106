// Package attrs provides reusable OpenTelemetry attribute key constants
// shared by the timed-action middlewares, so spans and metrics emitted for
// the same benchmark case carry the same keys.
package attrs

const (
	// AttrTestName identifies the benchmark case a span or data point belongs to.
	AttrTestName = "test.name"
	// AttrElapsedMS carries the elapsed time of the timed section in milliseconds.
	AttrElapsedMS = "elapsed.ms"
	// AttrFailed marks runs that returned an error and were recorded as rejected samples.
	AttrFailed = "failed"
)
