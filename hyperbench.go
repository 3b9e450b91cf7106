// Package hyperbench is a micro-benchmarking and time-accounting toolkit.
//
// A Session wires together the pieces found under pkg/: a juxtaposition
// harness that races competing implementations in random order, a step
// profiler that splits wall time into named phases, and a key histogram.
// Every test registered through a Session is decorated with the logging
// middleware, and with the OpenTelemetry middleware when a meter or tracer
// is configured. Reports can be exported through the serializer registry and
// served live by the management HTTP server.
package hyperbench

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/hyperbench/internal/constants"
	"github.com/hyp3rd/hyperbench/internal/libs/serializer"
	"github.com/hyp3rd/hyperbench/internal/sentinel"
	"github.com/hyp3rd/hyperbench/pkg/histogram"
	"github.com/hyp3rd/hyperbench/pkg/juxta"
	"github.com/hyp3rd/hyperbench/pkg/middleware"
	"github.com/hyp3rd/hyperbench/pkg/printer"
	"github.com/hyp3rd/hyperbench/pkg/profiler"
	"github.com/hyp3rd/hyperbench/pkg/stats"
	"github.com/hyp3rd/hyperbench/pkg/timer"
)

const (
	// DefaultHistogramTop is the number of keys shown when none is requested.
	DefaultHistogramTop = constants.DefaultHistogramTop

	// failedSuffix marks the histogram key counting the failed runs of a test.
	failedSuffix = " failed"
)

// Session composes a harness, a step profiler and a histogram sharing one
// printer, logger and display unit.
type Session struct {
	cfg         *Config
	logger      juxta.Logger
	harness     *juxta.Profiler
	steps       *profiler.StepProfiler
	histogram   *histogram.Histogram[string]
	serializers *serializer.Registry
	mgmt        *ManagementHTTPServer
}

// Report is the serializable snapshot of a Session.
type Report struct {
	Unit      string                `codec:"unit"      json:"unit"      msgpack:"unit"`
	Tests     []juxta.TestResult    `codec:"tests"     json:"tests"     msgpack:"tests"`
	Steps     []profiler.StepResult `codec:"steps"     json:"steps"     msgpack:"steps"`
	Histogram []histogram.Entry     `codec:"histogram" json:"histogram" msgpack:"histogram"`
}

// New creates a Session from cfg. A nil cfg uses NewConfig defaults, and so do
// the zero Unit and nil Printer of a Config literal.
// When cfg.ManagementAddr is set the management HTTP server is started.
func New(ctx context.Context, cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	// fill the defaults of a Config literal without touching the caller's copy
	filled := *cfg
	cfg = &filled

	if cfg.Unit == 0 {
		cfg.Unit = constants.DefaultReportUnit
	}

	if cfg.Printer == nil {
		cfg.Printer = printer.Stdout()
	}

	unitSuffix, err := stats.UnitSuffix(cfg.Unit)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger = &zl
	}

	harnessOpts := []juxta.Option{
		juxta.WithUnit(cfg.Unit),
		juxta.WithPrinter(cfg.Printer),
		juxta.WithLogger(logger),
	}
	if cfg.Seeded {
		harnessOpts = append(harnessOpts, juxta.WithSeed(cfg.Seed))
	}

	harness, err := juxta.New(harnessOpts...)
	if err != nil {
		return nil, ewrap.Wrap(err, "creating harness")
	}

	steps, err := profiler.New(timer.NewNano(),
		profiler.WithPrefix(cfg.StepPrefix),
		profiler.WithPrinter(cfg.Printer),
		profiler.WithUnit(cfg.Unit),
	)
	if err != nil {
		return nil, ewrap.Wrap(err, "creating step profiler")
	}

	s := &Session{
		cfg:         cfg,
		logger:      logger,
		harness:     harness,
		steps:       steps,
		histogram:   histogram.NewString(),
		serializers: serializer.NewSerializerRegistry(),
	}

	if cfg.ManagementAddr != "" {
		s.mgmt = NewManagementHTTPServer(cfg.ManagementAddr, cfg.ManagementOptions...)

		err = s.mgmt.Start(ctx, s)
		if err != nil {
			return nil, ewrap.Wrap(err, "starting management http server")
		}

		logger.Printf("management http server listening on %s (unit %s)", s.mgmt.Address(), unitSuffix)
	}

	return s, nil
}

// AddTest registers timed with the harness, decorated with the session middleware.
func (s *Session) AddTest(name string, timed juxta.Timed) error {
	if timed == nil {
		return ewrap.Wrap(sentinel.ErrNilAction, name)
	}

	decorated, err := s.decorate(name, timed)
	if err != nil {
		return err
	}

	return s.harness.AddTest(name, decorated)
}

// AddTestMs registers action with millisecond accuracy.
func (s *Session) AddTestMs(name string, action juxta.Action) error {
	return s.addAction(name, action, timer.NewMs())
}

// AddTestNanoWrap2Sec registers action with nanosecond accuracy; runs longer
// than about two seconds wrap.
func (s *Session) AddTestNanoWrap2Sec(name string, action juxta.Action) error {
	return s.addAction(name, action, timer.NewNanoWrap2Sec())
}

func (s *Session) addAction(name string, action juxta.Action, lap *timer.LapTimer) error {
	if action == nil {
		return ewrap.Wrap(sentinel.ErrNilAction, name)
	}

	return s.AddTest(name, &juxta.InitTimedCleanup{Timer: lap, Timed: action})
}

// decorate builds the middleware chain around timed. From the outside in:
// tracing, metrics, logging, the configured middleware, failure counting.
func (s *Session) decorate(name string, timed juxta.Timed) (juxta.Timed, error) {
	chain := make([]middleware.Middleware, 0, len(s.cfg.Middlewares)+2)
	chain = append(chain, middleware.Logging(s.logger))
	chain = append(chain, s.cfg.Middlewares...)
	chain = append(chain, s.countFailures)

	decorated := middleware.Chain(name, timed, chain...)

	if s.cfg.Meter != nil {
		var err error

		decorated, err = middleware.NewOTelMetricsMiddleware(name, decorated, s.cfg.Meter)
		if err != nil {
			return nil, ewrap.Wrap(err, "creating metrics middleware")
		}
	}

	if s.cfg.Tracer != nil {
		decorated = middleware.NewOTelTracingMiddleware(name, decorated, s.cfg.Tracer)
	}

	return decorated, nil
}

// countFailures counts errors and panics of a test in the session histogram.
func (s *Session) countFailures(name string, next juxta.Timed) juxta.Timed {
	return juxta.TimedFunc(func(ctx context.Context) (elapsed float64, err error) {
		defer func() {
			if r := recover(); r != nil {
				s.histogram.Increment(name + failedSuffix)
				panic(r)
			}
		}()

		elapsed, err = next.Time(ctx)
		if err != nil {
			s.histogram.Increment(name + failedSuffix)
		}

		return elapsed, err
	})
}

// RunRandomTrials runs the registered tests numTrials times in random order.
func (s *Session) RunRandomTrials(ctx context.Context, numTrials int) error {
	return s.harness.RunRandomTrials(ctx, numTrials)
}

// PrintResults prints the current statistics of every registered test.
func (s *Session) PrintResults() {
	s.harness.PrintResults()
}

// StartStep switches the step profiler to name.
func (s *Session) StartStep(name string) {
	s.steps.StartStep(name)
}

// FinishStep closes the active step, if any.
func (s *Session) FinishStep() {
	s.steps.Finish()
}

// PrintStepResults closes the active step and prints the step report.
func (s *Session) PrintStepResults() {
	s.steps.PrintResults()
}

// Count increments key in the session histogram and returns its new count.
func (s *Session) Count(key string) int64 {
	return s.histogram.Increment(key)
}

// Failures returns how many runs of the named test failed.
func (s *Session) Failures(name string) int64 {
	return s.histogram.Count(name + failedSuffix)
}

// HistogramTop returns the numValues most frequent histogram keys.
func (s *Session) HistogramTop(numValues int) []histogram.Entry {
	return s.histogram.Top(numValues)
}

// PrintHistogram prints the numValues most frequent histogram keys.
func (s *Session) PrintHistogram(numValues int) {
	for line := range strings.Lines(s.histogram.TopValues(numValues)) {
		s.cfg.Printer.Println(strings.TrimSuffix(line, "\n"))
	}
}

// Report returns a snapshot of every test, step and histogram key.
// The interval of a still active step is not included.
func (s *Session) Report() Report {
	suffix, _ := stats.UnitSuffix(s.cfg.Unit)

	return Report{
		Unit:      suffix,
		Tests:     s.harness.Results(),
		Steps:     s.steps.Results(),
		Histogram: s.histogram.Top(math.MaxInt),
	}
}

// Export encodes the session report with the named serializer.
func (s *Session) Export(format string) ([]byte, error) {
	data, _, err := s.Encode(format)

	return data, err
}

// Encode encodes the session report and returns the content type of the encoding.
func (s *Session) Encode(format string) (data []byte, contentType string, err error) {
	ser, err := s.serializers.New(format)
	if err != nil {
		return nil, "", err
	}

	data, err = ser.Marshal(s.Report())
	if err != nil {
		return nil, "", ewrap.Wrap(err, fmt.Sprintf("encoding report as %s", format))
	}

	return data, ser.ContentType(), nil
}

// Formats returns the names of the supported export formats.
func (s *Session) Formats() []string {
	return s.serializers.Names()
}

// ManagementHTTPAddress returns the bound management address, empty when disabled.
func (s *Session) ManagementHTTPAddress() string {
	if s.mgmt == nil {
		return ""
	}

	return s.mgmt.Address()
}

// Close stops the management HTTP server, waiting at most until ctx is done.
func (s *Session) Close(ctx context.Context) error {
	if s.mgmt == nil {
		return nil
	}

	return s.mgmt.Shutdown(ctx)
}
