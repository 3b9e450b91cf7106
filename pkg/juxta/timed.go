package juxta

import (
	"context"

	"github.com/hyp3rd/hyperbench/internal/sentinel"
	"github.com/hyp3rd/hyperbench/pkg/timer"
)

// Timed is a profiled action.
type Timed interface {
	// Time runs the action to be profiled and returns the elapsed time of the
	// profiled section in seconds. A non-nil error marks the run as failed.
	Time(ctx context.Context) (float64, error)
}

// TimedFunc adapts an ordinary function to the Timed interface.
type TimedFunc func(ctx context.Context) (float64, error)

// Time implements Timed.
func (f TimedFunc) Time(ctx context.Context) (float64, error) {
	return f(ctx)
}

// Action is a unit of work without timing of its own.
type Action func(ctx context.Context) error

// InitTimedCleanup is a Timed with an untimed Init and Cleanup phase wrapped
// around the profiled Timed phase. Nil phases are skipped.
type InitTimedCleanup struct {
	Timer   *timer.LapTimer
	Init    Action
	Timed   Action
	Cleanup Action
}

// Time runs Init, Timed, then Cleanup, and returns the elapsed time of Timed.
// An error from any phase fails the run; Cleanup still runs if Timed failed.
func (c *InitTimedCleanup) Time(ctx context.Context) (float64, error) {
	if c.Timer == nil {
		return 0, sentinel.ErrNilTimer
	}

	if c.Init != nil {
		err := c.Init(ctx)
		if err != nil {
			return 0, err
		}
	}

	c.Timer.Lap()

	var timedErr error
	if c.Timed != nil {
		timedErr = c.Timed(ctx)
	}

	elapsed := c.Timer.Lap()

	if c.Cleanup != nil {
		err := c.Cleanup(ctx)
		if err != nil && timedErr == nil {
			return 0, err
		}
	}

	if timedErr != nil {
		return 0, timedErr
	}

	return elapsed, nil
}
