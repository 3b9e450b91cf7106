package stats

import (
	"math"
	"slices"
	"sync"

	"github.com/hyp3rd/hyperbench/internal/constants"
)

// RunningStats accumulates samples and produces Stat snapshots.
// The zero value is ready to use. It is safe for concurrent use; a snapshot taken while writers are active
// reflects whichever adds completed before it acquired the lock.
type RunningStats struct {
	mu sync.Mutex // guards everything below

	samples          []float64
	min              float64
	max              float64
	total            float64
	numNanOrInfinite int
}

// NewRunningStats returns an empty accumulator.
func NewRunningStats() *RunningStats {
	return &RunningStats{
		samples: make([]float64, 0, constants.InitialSampleCapacity),
	}
}

// Add adds the given sample to the running stats.
func (r *RunningStats) Add(sample float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.add(sample)
}

func (r *RunningStats) add(sample float64) {
	if math.IsNaN(sample) || math.IsInf(sample, 0) {
		r.numNanOrInfinite++

		return
	}

	if len(r.samples) == 0 {
		r.min, r.max = sample, sample
	}

	r.samples = append(r.samples, sample)
	r.total += sample

	if sample < r.min {
		r.min = sample
	}

	if sample > r.max {
		r.max = sample
	}
}

// Stat returns these stats at this time.
func (r *RunningStats) Stat() Stat {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stat()
}

// AddAndStat adds a sample and returns the resulting snapshot without letting
// another writer slip in between.
func (r *RunningStats) AddAndStat(sample float64) Stat {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.add(sample)

	return r.stat()
}

func (r *RunningStats) stat() Stat {
	num := len(r.samples)
	if num == 0 {
		return Stat{NumNanOrInfinite: r.numNanOrInfinite}
	}

	// the buffer is private to this accumulator, so it is sorted in place
	slices.Sort(r.samples)

	middle := num / 2

	median := r.samples[middle]
	if num%2 == 0 {
		median = (r.samples[middle-1] + r.samples[middle]) / 2
	}

	return Stat{
		Min:              r.min,
		Max:              r.max,
		Mean:             r.total / float64(num),
		Median:           median,
		Total:            r.total,
		Num:              num,
		NumNanOrInfinite: r.numNanOrInfinite,
	}
}
