package middleware

import (
	"context"
	"math"

	"github.com/hyp3rd/hyperbench/pkg/juxta"
	"github.com/hyp3rd/hyperbench/pkg/stats"
)

// StatsCollectorMiddleware feeds every run into a shared RunningStats, e.g. to
// track the spread of all cases together next to the per-test statistics.
type StatsCollectorMiddleware struct {
	next      juxta.Timed
	collector *stats.RunningStats
}

// NewStatsCollectorMiddleware returns a new StatsCollectorMiddleware.
func NewStatsCollectorMiddleware(next juxta.Timed, collector *stats.RunningStats) juxta.Timed {
	return &StatsCollectorMiddleware{next: next, collector: collector}
}

// Collect adapts NewStatsCollectorMiddleware to a Middleware.
func Collect(collector *stats.RunningStats) Middleware {
	return func(_ string, next juxta.Timed) juxta.Timed {
		return NewStatsCollectorMiddleware(next, collector)
	}
}

// Time implements juxta.Timed. Failed runs are collected as NaN.
func (mw *StatsCollectorMiddleware) Time(ctx context.Context) (float64, error) {
	elapsed, err := mw.next.Time(ctx)
	if err != nil {
		mw.collector.Add(math.NaN())

		return elapsed, err
	}

	mw.collector.Add(elapsed)

	return elapsed, nil
}
