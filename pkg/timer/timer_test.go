package timer

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"
	"go.uber.org/atomic"
)

// fakeTicks is a manually advanced tick source.
type fakeTicks struct {
	now atomic.Int64
}

func (f *fakeTicks) source() int64   { return f.now.Load() }
func (f *fakeTicks) advance(n int64) { f.now.Add(n) }

func TestLapTimer_FirstLapMeasuresSinceConstruction(t *testing.T) {
	ticks := &fakeTicks{}
	ticks.advance(1000)

	lap := New(ticks.source, time.Millisecond)
	ticks.advance(250)

	assert.Equal(t, 0.25, lap.Lap())
	assert.Equal(t, 0.0, lap.Lap())

	ticks.advance(1500)
	assert.Equal(t, 1.5, lap.Lap())
}

func TestLapTimer_Factor(t *testing.T) {
	assert.Equal(t, 0.001, NewMs().Factor())
	assert.Equal(t, 1e-9, NewNano().Factor())
}

func TestLapTimer_Wrap32(t *testing.T) {
	ticks := &fakeTicks{}
	ticks.advance(1<<31 - 100)

	lap := newLapTimer(func() int64 { return int64(int32(ticks.source())) }, time.Nanosecond, true)

	// crosses the 32-bit boundary but stays short, so it is still exact
	ticks.advance(300)
	assert.True(t, math.Abs(lap.Lap()-300e-9) < 1e-15)
}

func TestLapTimer_ConcurrentLapsAreDisjoint(t *testing.T) {
	ticks := &fakeTicks{}
	lap := New(ticks.source, time.Nanosecond)

	const workers, laps = 8, 500

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total float64
	)

	for range workers {
		wg.Go(func() {
			local := 0.0
			for range laps {
				ticks.advance(1)
				local += lap.Lap()
			}

			mu.Lock()
			total += local
			mu.Unlock()
		})
	}

	wg.Wait()

	total += lap.Lap()

	// every tick is attributed to exactly one lap
	assert.True(t, total > float64(workers*laps)*1e-9*0.999)
	assert.True(t, total < float64(workers*laps)*1e-9*1.001)
}

func TestLapTimer_Sleep(t *testing.T) {
	timers := map[string]*LapTimer{
		"ms":        NewMs(),
		"nano":      NewNano(),
		"nanoWrap2": NewNanoWrap2Sec(),
	}

	for name, lap := range timers {
		t.Run(name, func(t *testing.T) {
			lap.Lap()
			time.Sleep(50 * time.Millisecond)

			elapsed := lap.Lap()
			if elapsed < 0.045 || elapsed > 0.1 {
				t.Fatalf("expected ~0.05s, got %f", elapsed)
			}
		})
	}
}
