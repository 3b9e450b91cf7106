// Package timer provides LapTimer, a concurrency-safe timer which reports the
// seconds elapsed since it was last queried.
//
// A LapTimer reads integer ticks from a TickSource and converts them to seconds
// with a factor fixed at construction. The last tick is kept in an atomic marker
// that every Lap swaps, so concurrent callers each observe a disjoint interval.
package timer

import (
	"time"

	"go.uber.org/atomic"
)

// TickSource returns the current reading of a monotonic counter, in whatever
// unit the owning LapTimer was built with.
type TickSource func() int64

// LapTimer returns the amount of time in seconds since Lap was last called.
type LapTimer struct {
	factor float64
	ticks  TickSource
	// wrap32 folds every interval into the signed 32-bit range.
	wrap32 bool
	last   *atomic.Int64
}

// New returns a LapTimer reading ticks of the given unit from source.
// The marker starts at the current tick, so the first Lap reports the time since construction.
func New(source TickSource, unit time.Duration) *LapTimer {
	return newLapTimer(source, unit, false)
}

func newLapTimer(source TickSource, unit time.Duration, wrap32 bool) *LapTimer {
	if source == nil {
		panic("timer: nil tick source")
	}

	if unit <= 0 {
		panic("timer: unit must be positive")
	}

	return &LapTimer{
		factor: float64(unit) / float64(time.Second),
		ticks:  source,
		wrap32: wrap32,
		last:   atomic.NewInt64(source()),
	}
}

// Lap returns the seconds elapsed since the previous call, or since the timer
// was created for the first call, and moves the marker to now.
func (t *LapTimer) Lap() float64 {
	now := t.ticks()
	then := t.last.Swap(now)

	delta := now - then
	if t.wrap32 {
		delta = int64(int32(delta))
	}

	return float64(delta) * t.factor
}

// Factor is the number of seconds in one tick.
func (t *LapTimer) Factor() float64 {
	return t.factor
}

// process-wide reference point for the monotonic clock readings below.
var epoch = time.Now()

// MonotonicMillis reads the monotonic clock in milliseconds.
func MonotonicMillis() int64 {
	return time.Since(epoch).Milliseconds()
}

// MonotonicNanos reads the monotonic clock in nanoseconds.
func MonotonicNanos() int64 {
	return time.Since(epoch).Nanoseconds()
}

// wrappingNanos reads the monotonic clock in nanoseconds, truncated to 32 bits.
func wrappingNanos() int64 {
	return int64(int32(MonotonicNanos()))
}

// NewMs creates a LapTimer which is accurate to the millisecond.
func NewMs() *LapTimer {
	return New(MonotonicMillis, time.Millisecond)
}

// NewNano creates a LapTimer which is accurate to the nanosecond and never wraps.
func NewNano() *LapTimer {
	return New(MonotonicNanos, time.Nanosecond)
}

// NewNanoWrap2Sec creates a LapTimer which is accurate to the nanosecond but keeps
// its ticks in a 32-bit range. Intervals shorter than about 2.1 seconds are exact;
// longer intervals wrap around and come back as garbage.
func NewNanoWrap2Sec() *LapTimer {
	return newLapTimer(wrappingNanos, time.Nanosecond, true)
}
