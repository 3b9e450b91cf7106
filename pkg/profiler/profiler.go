// Package profiler attributes elapsed time to the named steps of a longer operation.
//
// Example usage:
//
//	var steps, _ = profiler.New(timer.NewNano())
//
//	func methodWhichNeedsProfiling() {
//		steps.StartStep("parse")
//		...
//		steps.StartStep("render")
//		...
//		steps.Finish()
//	}
//
//	func TestProfile(t *testing.T) {
//		// run the code that exercises the steps
//		steps.PrintResults()
//	}
package profiler

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperbench/internal/constants"
	"github.com/hyp3rd/hyperbench/internal/sentinel"
	"github.com/hyp3rd/hyperbench/pkg/printer"
	"github.com/hyp3rd/hyperbench/pkg/stats"
	"github.com/hyp3rd/hyperbench/pkg/timer"
)

// step is a named phase; it gets one sample per interval it was active.
type step struct {
	name  string
	stats *stats.RunningStats
}

// StepResult is the report row for one step.
type StepResult struct {
	Name    string     `codec:"name"    json:"name"    msgpack:"name"`
	Percent int        `codec:"percent" json:"percent" msgpack:"percent"`
	Stat    stats.Stat `codec:"stat"    json:"stat"    msgpack:"stat"`
}

// StepProfiler profiles the various steps of code. At most one step is active
// at a time; starting a step closes the interval of the previous one.
type StepProfiler struct {
	mu sync.Mutex // serializes step transitions and guards the fields below

	timer   *timer.LapTimer
	prefix  string
	unit    time.Duration
	printer printer.Printer

	steps   map[string]*step
	order   []*step
	current *step
}

// Option configures a StepProfiler.
type Option func(*StepProfiler)

// WithPrefix prepends prefix to every step line of the report.
func WithPrefix(prefix string) Option {
	return func(p *StepProfiler) { p.prefix = prefix }
}

// WithPrinter sets where PrintResults writes. Defaults to standard output.
func WithPrinter(out printer.Printer) Option {
	return func(p *StepProfiler) { p.printer = out }
}

// WithUnit sets the report precision. Defaults to milliseconds.
func WithUnit(unit time.Duration) Option {
	return func(p *StepProfiler) { p.unit = unit }
}

// New returns an idle StepProfiler measuring intervals with lap.
func New(lap *timer.LapTimer, opts ...Option) (*StepProfiler, error) {
	if lap == nil {
		return nil, sentinel.ErrNilTimer
	}

	p := &StepProfiler{
		timer: lap,
		unit:  constants.DefaultReportUnit,
		steps: make(map[string]*step),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.printer == nil {
		p.printer = printer.Stdout()
	}

	_, err := stats.UnitSuffix(p.unit)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// StartStep starts accumulating time to the named step. If a step was already
// accumulating time, it is stopped first. It panics if name is empty.
func (p *StepProfiler) StartStep(name string) {
	if name == "" {
		panic(ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "step name"))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.finishLocked()

	s, ok := p.steps[name]
	if !ok {
		s = &step{name: name, stats: stats.NewRunningStats()}
		p.steps[name] = s
		p.order = append(p.order, s)
	}

	p.current = s
}

// Finish stops accumulating time to the current step, if any.
// When idle it only resets the timer.
func (p *StepProfiler) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finishLocked()
}

func (p *StepProfiler) finishLocked() {
	elapsed := p.timer.Lap()
	if p.current != nil {
		p.current.stats.Add(elapsed)
	}

	p.current = nil
}

// Active returns the name of the step currently accumulating time.
func (p *StepProfiler) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return "", false
	}

	return p.current.name, true
}

// Results returns one row per step in the order the steps were first started.
// The interval of a still active step is not included; see PrintResults.
func (p *StepProfiler) Results() []StepResult {
	p.mu.Lock()
	order := make([]*step, len(p.order))
	copy(order, p.order)
	p.mu.Unlock()

	snapshots := make([]stats.Stat, len(order))
	allTotal := 0.0

	for i, s := range order {
		snapshots[i] = s.stats.Stat()
		allTotal += snapshots[i].Total
	}

	results := make([]StepResult, len(order))
	for i, s := range order {
		results[i] = StepResult{
			Name:    s.name,
			Percent: percentOf(snapshots[i].Total, allTotal),
			Stat:    snapshots[i],
		}
	}

	return results
}

// percentOf is 0 when nothing was recorded at all.
func percentOf(part, whole float64) int {
	if whole == 0 {
		return 0
	}

	return int(math.Round(100 * part / whole))
}

// Total is the time accumulated across all steps, in seconds.
func Total(results []StepResult) float64 {
	total := 0.0
	for _, r := range results {
		total += r.Stat.Total
	}

	return total
}

// PrintResults closes the active interval, then prints the share of time spent
// in each step along with its median/mean/min/max.
func (p *StepProfiler) PrintResults() {
	p.Finish()

	results := p.Results()

	p.printer.Println(constants.StepReportHeader)
	p.printer.Println("Total elapsed: " + stats.FormatUnit(Total(results), p.unit))

	for _, r := range results {
		p.printer.Println(p.prefix + r.Name + ": percent=" + strconv.Itoa(r.Percent) + "% " + r.Stat.Format(p.unit))
	}
}
