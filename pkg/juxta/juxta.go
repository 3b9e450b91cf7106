// Package juxta profiles competing implementations by running them one after
// the other, over and over.
//
// Every trial runs each registered test exactly once, in an order shuffled
// afresh for that trial. Interleaving the tests this way keeps slow drift of the
// machine (thermal throttling, cache warm-up, background load) from favoring
// whichever test happens to run first. Results are printed after every trial so
// a partial run is still useful if the process is interrupted.
package juxta

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/hyperbench/internal/constants"
	"github.com/hyp3rd/hyperbench/internal/sentinel"
	"github.com/hyp3rd/hyperbench/pkg/printer"
	"github.com/hyp3rd/hyperbench/pkg/stats"
	"github.com/hyp3rd/hyperbench/pkg/timer"
)

// Logger receives failures of timed actions.
// A *zerolog.Logger logs them at error level; a Logger that also implements
// ErrorLogger gets them through Errorf; any other Logger through Printf.
type Logger interface {
	Printf(format string, v ...any)
}

// ErrorLogger is a Logger with an error level.
type ErrorLogger interface {
	Logger
	Errorf(format string, v ...any)
}

// test wraps up a single Timed under test.
type test struct {
	name  string
	timed Timed
	stats *stats.RunningStats
}

// TestResult is the report row for one registered test.
type TestResult struct {
	Name string     `codec:"name" json:"name" msgpack:"name"`
	Stat stats.Stat `codec:"stat" json:"stat" msgpack:"stat"`
}

// Profiler is the juxtaposition harness.
// A Profiler runs one batch of trials at a time; concurrent RunRandomTrials
// calls are serialized.
type Profiler struct {
	mu      sync.Mutex // guards tests and started
	tests   []*test
	started bool

	runMu sync.Mutex // held for a whole batch; guards rng and the printed progress

	rng     *rand.Rand
	printer printer.Printer
	logger  Logger
	unit    time.Duration
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithSeed makes the trial order reproducible.
func WithSeed(seed uint64) Option {
	return func(p *Profiler) { p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithRand sets the random source used to shuffle the tests.
func WithRand(rng *rand.Rand) Option {
	return func(p *Profiler) { p.rng = rng }
}

// WithPrinter sets where progress and results are printed. Defaults to standard output.
func WithPrinter(out printer.Printer) Option {
	return func(p *Profiler) { p.printer = out }
}

// WithLogger sets where failed runs are reported. Defaults to a zerolog logger on stderr.
func WithLogger(logger Logger) Option {
	return func(p *Profiler) { p.logger = logger }
}

// WithUnit sets the precision of the results lines. Defaults to milliseconds.
func WithUnit(unit time.Duration) Option {
	return func(p *Profiler) { p.unit = unit }
}

// New returns a Profiler with no tests.
func New(opts ...Option) (*Profiler, error) {
	p := &Profiler{unit: constants.DefaultReportUnit}
	for _, opt := range opts {
		opt(p)
	}

	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if p.printer == nil {
		p.printer = printer.Stdout()
	}

	if p.logger == nil {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		p.logger = &logger
	}

	_, err := stats.UnitSuffix(p.unit)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// AddTest registers a named Timed. Tests must be added before RunRandomTrials is called.
func (p *Profiler) AddTest(name string, timed Timed) error {
	if name == "" {
		return ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "test name")
	}

	if timed == nil {
		return ewrap.Wrap(sentinel.ErrNilAction, name)
	}

	if itc, ok := timed.(*InitTimedCleanup); ok && itc.Timer == nil {
		return ewrap.Wrap(sentinel.ErrNilTimer, name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ewrap.Wrap(sentinel.ErrTrialsStarted, name)
	}

	p.tests = append(p.tests, &test{name: name, timed: timed, stats: stats.NewRunningStats()})

	return nil
}

// AddTestWithTimer registers action, timed in its entirety with lap.
func (p *Profiler) AddTestWithTimer(name string, action Action, lap *timer.LapTimer) error {
	if action == nil {
		return ewrap.Wrap(sentinel.ErrNilAction, name)
	}

	if lap == nil {
		return ewrap.Wrap(sentinel.ErrNilTimer, name)
	}

	return p.AddTest(name, &InitTimedCleanup{Timer: lap, Timed: action})
}

// AddTestMs registers action with millisecond accuracy.
func (p *Profiler) AddTestMs(name string, action Action) error {
	return p.AddTestWithTimer(name, action, timer.NewMs())
}

// AddTestNanoWrap2Sec registers action with nanosecond accuracy. Runs longer
// than about two seconds wrap; see timer.NewNanoWrap2Sec.
func (p *Profiler) AddTestNanoWrap2Sec(name string, action Action) error {
	return p.AddTestWithTimer(name, action, timer.NewNanoWrap2Sec())
}

// RunRandomTrials runs the registered tests numTrials times, shuffling their
// order before each trial. It prints the progress as it goes and the running
// statistics of every test after each trial. ctx is handed to every timed action;
// the trials themselves always run to completion.
func (p *Profiler) RunRandomTrials(ctx context.Context, numTrials int) error {
	if numTrials < 0 {
		return ewrap.Wrap(sentinel.ErrInvalidTrials, strconv.Itoa(numTrials))
	}

	p.runMu.Lock()
	defer p.runMu.Unlock()

	p.mu.Lock()
	p.started = true
	shuffled := make([]*test, len(p.tests))
	copy(shuffled, p.tests)
	p.mu.Unlock()

	lap := timer.NewMs()

	for i := range numTrials {
		p.rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		p.printer.Print("Running trial " + strconv.Itoa(i+1) + " of " + strconv.Itoa(numTrials) + " ... ")
		lap.Lap()

		for _, t := range shuffled {
			p.runTrial(ctx, t)
		}

		p.printer.Println(" complete after " + formatMs(lap.Lap()) + ".")

		// print the results after every run, in case it crashes
		p.PrintResults()
	}

	return nil
}

// runTrial records one sample for t. A failed or panicking run is logged and
// recorded as NaN so the rest of the trial still runs.
func (p *Profiler) runTrial(ctx context.Context, t *test) {
	elapsed, err := p.measure(ctx, t)
	if err != nil {
		p.logFailure(t.name, err)
		t.stats.Add(math.NaN())

		return
	}

	t.stats.Add(elapsed)
}

func (p *Profiler) logFailure(name string, err error) {
	switch logger := p.logger.(type) {
	case *zerolog.Logger:
		logger.Error().Err(err).Str("test", name).Msg("timed action failed")
	case ErrorLogger:
		logger.Errorf("test %q failed: %v", name, err)
	default:
		logger.Printf("test %q failed: %v", name, err)
	}
}

func (p *Profiler) measure(ctx context.Context, t *test) (elapsed float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ewrap.Wrap(sentinel.ErrTimedActionPanicked, fmt.Sprint(r))
		}
	}()

	return t.timed.Time(ctx)
}

// Results returns the current statistics of every test, in registration order.
func (p *Profiler) Results() []TestResult {
	p.mu.Lock()
	tests := make([]*test, len(p.tests))
	copy(tests, p.tests)
	p.mu.Unlock()

	results := make([]TestResult, len(tests))
	for i, t := range tests {
		results[i] = TestResult{Name: t.name, Stat: t.stats.Stat()}
	}

	return results
}

// PrintResults prints one line per test with its running statistics.
func (p *Profiler) PrintResults() {
	for _, r := range p.Results() {
		p.printer.Println(r.Name + ": " + r.Stat.Format(p.unit))
	}
}

// formatMs renders seconds as whole milliseconds, e.g. "12 ms".
func formatMs(elapsedSec float64) string {
	return strconv.FormatInt(int64(math.Round(elapsedSec*1000)), 10) + " ms"
}
