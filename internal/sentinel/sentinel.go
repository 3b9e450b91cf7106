// Package sentinel provides standardized error definitions for the hyperbench toolkit.
// This package centralizes the error values returned across the timer, statistics,
// profiler and harness components, so callers can match them with errors.Is.
//
// The errors defined here cover:
// - Invalid parameters (empty names, nil timers or actions, negative trial counts)
// - Harness lifecycle violations (registering tests after trials started)
// - Report encoding and management server failures
//
// All errors are created using the ewrap package to provide enhanced error
// wrapping and context capabilities.
package sentinel

import (
	"github.com/hyp3rd/ewrap"
)

var (
	// ErrParamCannotBeEmpty is returned when a parameter cannot be empty.
	ErrParamCannotBeEmpty = ewrap.New("param cannot be empty")

	// ErrNilTimer is returned when a nil lap timer is passed to a component that needs one.
	ErrNilTimer = ewrap.New("nil lap timer")

	// ErrNilAction is returned when a nil timed action is registered with the harness.
	ErrNilAction = ewrap.New("nil timed action")

	// ErrInvalidTrials is returned when a negative number of trials is requested.
	ErrInvalidTrials = ewrap.New("number of trials cannot be negative")

	// ErrTrialsStarted is returned when a test is registered after trials began.
	ErrTrialsStarted = ewrap.New("tests cannot be added once trials have started")

	// ErrUnsupportedUnit is raised when a time unit has no display suffix.
	ErrUnsupportedUnit = ewrap.New("unsupported time unit")

	// ErrTimedActionPanicked is recorded when a timed action panics during a trial.
	ErrTimedActionPanicked = ewrap.New("timed action panicked")

	// ErrSerializerNotFound is returned when a serializer is not found.
	ErrSerializerNotFound = ewrap.New("serializer not found")

	// ErrPoolClosed is returned when a job is enqueued on a worker pool that was shut down.
	ErrPoolClosed = ewrap.New("worker pool is closed")

	// ErrMgmtHTTPShutdownTimeout is returned when the management HTTP server fails to shutdown before context deadline.
	ErrMgmtHTTPShutdownTimeout = ewrap.New("management http shutdown timeout")
)
