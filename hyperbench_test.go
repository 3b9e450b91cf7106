package hyperbench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/longbridgeapp/assert"
	"github.com/rs/zerolog"
	"github.com/shamaton/msgpack/v2"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/hyp3rd/hyperbench/internal/sentinel"
	"github.com/hyp3rd/hyperbench/pkg/juxta"
	"github.com/hyp3rd/hyperbench/pkg/middleware"
	"github.com/hyp3rd/hyperbench/pkg/printer"
)

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

var errBroken = errors.New("broken")

func constant(seconds float64) juxta.TimedFunc {
	return func(context.Context) (float64, error) { return seconds, nil }
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *printer.BufferPrinter) {
	t.Helper()

	out := printer.NewBufferPrinter()
	opts = append([]Option{WithPrinter(out), WithLogger(&captureLogger{}), WithSeed(7)}, opts...)

	s, err := New(context.Background(), NewConfig(opts...))
	assert.Nil(t, err)

	return s, out
}

func TestSession_RejectsUnsupportedUnit(t *testing.T) {
	_, err := New(context.Background(), NewConfig(WithUnit(3*time.Millisecond)))
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedUnit))
}

func TestSession_NilConfigUsesDefaults(t *testing.T) {
	s, err := New(context.Background(), nil)
	assert.Nil(t, err)
	assert.Equal(t, "ms", s.Report().Unit)
	assert.Equal(t, "", s.ManagementHTTPAddress())
	assert.Nil(t, s.Close(context.Background()))
}

func TestSession_ConfigLiteralGetsDefaults(t *testing.T) {
	cfg := &Config{Logger: &captureLogger{}}

	s, err := New(context.Background(), cfg)
	assert.Nil(t, err)
	assert.Nil(t, cfg.Printer)
	assert.Equal(t, "ms", s.Report().Unit)

	s.Count("k")
	s.PrintHistogram(5)
	s.PrintStepResults()
}

func TestSession_FailuresLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	s, _ := newTestSession(t, WithLogger(&logger))

	assert.Nil(t, s.AddTest("bad", juxta.TimedFunc(func(context.Context) (float64, error) {
		return 0, errBroken
	})))
	assert.Nil(t, s.RunRandomTrials(context.Background(), 2))

	assert.Equal(t, int64(2), s.Failures("bad"))
	assert.Equal(t, 2, strings.Count(buf.String(), `"level":"error"`))
	assert.True(t, strings.Contains(buf.String(), `"test":"bad"`))
	assert.False(t, strings.Contains(buf.String(), "timed section"))
}

func TestSession_AddTestValidation(t *testing.T) {
	s, _ := newTestSession(t)

	assert.True(t, errors.Is(s.AddTest("x", nil), sentinel.ErrNilAction))
	assert.True(t, errors.Is(s.AddTestMs("x", nil), sentinel.ErrNilAction))
	assert.True(t, errors.Is(s.AddTest("", constant(1)), sentinel.ErrParamCannotBeEmpty))
}

func TestSession_RunsTrialsAndCountsFailures(t *testing.T) {
	s, out := newTestSession(t)

	assert.Nil(t, s.AddTest("fast", constant(0.001)))
	assert.Nil(t, s.AddTest("slow", constant(0.003)))
	assert.Nil(t, s.AddTest("bad", juxta.TimedFunc(func(context.Context) (float64, error) {
		return 0, errBroken
	})))
	assert.Nil(t, s.AddTest("panics", juxta.TimedFunc(func(context.Context) (float64, error) {
		panic("boom")
	})))

	assert.Nil(t, s.RunRandomTrials(context.Background(), 3))

	report := s.Report()
	assert.Equal(t, 4, len(report.Tests))
	assert.Equal(t, "fast", report.Tests[0].Name)
	assert.Equal(t, "median=1ms mean=1ms min=1ms max=1ms num=3", report.Tests[0].Stat.String())
	assert.Equal(t, "median=3ms mean=3ms min=3ms max=3ms num=3", report.Tests[1].Stat.String())
	assert.Equal(t, 3, report.Tests[2].Stat.NumNanOrInfinite)
	assert.Equal(t, 3, report.Tests[3].Stat.NumNanOrInfinite)

	assert.Equal(t, int64(3), s.Failures("bad"))
	assert.Equal(t, int64(3), s.Failures("panics"))
	assert.Equal(t, int64(0), s.Failures("fast"))
	assert.Equal(t, 2, len(report.Histogram))

	// the last block printed is the report after the third trial
	lines := out.Lines()
	assert.Equal(t, 3*5, len(lines))
	assert.Equal(t, "fast: median=1ms mean=1ms min=1ms max=1ms num=3", lines[len(lines)-4])
}

func TestSession_AddTestAfterTrialsStarted(t *testing.T) {
	s, _ := newTestSession(t)

	assert.Nil(t, s.RunRandomTrials(context.Background(), 0))
	assert.True(t, errors.Is(s.AddTest("late", constant(1)), sentinel.ErrTrialsStarted))
	assert.True(t, errors.Is(s.RunRandomTrials(context.Background(), -1), sentinel.ErrInvalidTrials))
}

func TestSession_MiddlewareOrder(t *testing.T) {
	var order []string

	record := func(tag string) middleware.Middleware {
		return func(name string, next juxta.Timed) juxta.Timed {
			return juxta.TimedFunc(func(ctx context.Context) (float64, error) {
				order = append(order, tag+":"+name)

				return next.Time(ctx)
			})
		}
	}

	logger := &captureLogger{}
	s, _ := newTestSession(t, WithLogger(logger), WithMiddleware(record("outer"), record("inner")))

	assert.Nil(t, s.AddTest("only", constant(0.5)))
	assert.Nil(t, s.RunRandomTrials(context.Background(), 1))

	assert.Equal(t, []string{"outer:only", "inner:only"}, order)
	assert.Equal(t, "test only timed section: 500ms", logger.lines[0])
}

func TestSession_OTelMiddlewarePassesThrough(t *testing.T) {
	s, _ := newTestSession(t,
		WithMeter(metricnoop.NewMeterProvider().Meter("test")),
		WithTracer(tracenoop.NewTracerProvider().Tracer("test")),
	)

	assert.Nil(t, s.AddTest("traced", constant(0.002)))
	assert.Nil(t, s.RunRandomTrials(context.Background(), 2))

	report := s.Report()
	assert.Equal(t, 2, report.Tests[0].Stat.Num)
	assert.Equal(t, 0.002, report.Tests[0].Stat.Median)
}

func TestSession_StepsAndHistogram(t *testing.T) {
	s, out := newTestSession(t, WithStepPrefix("cli."))

	s.StartStep("load")
	s.StartStep("parse")
	s.FinishStep()

	assert.Equal(t, int64(1), s.Count("alpha"))
	assert.Equal(t, int64(2), s.Count("alpha"))
	assert.Equal(t, int64(1), s.Count("beta"))

	report := s.Report()
	assert.Equal(t, 2, len(report.Steps))
	assert.Equal(t, "load", report.Steps[0].Name)
	assert.Equal(t, 1, report.Steps[1].Stat.Num)
	assert.Equal(t, "alpha", report.Histogram[0].Key)

	s.PrintHistogram(DefaultHistogramTop)
	s.PrintStepResults()

	lines := out.Lines()
	assert.Equal(t, "alpha: 2", lines[0])
	assert.Equal(t, "beta : 1", lines[1])
	assert.Equal(t, "------------------", lines[2])
	assert.Equal(t, "cli.parse: percent=", lines[5][:len("cli.parse: percent=")])
	assert.Equal(t, 6, len(lines))
}

func TestSession_Export(t *testing.T) {
	s, _ := newTestSession(t)

	assert.Nil(t, s.AddTest("one", constant(0.004)))
	assert.Nil(t, s.RunRandomTrials(context.Background(), 1))
	s.Count("k")

	data, err := s.Export("json")
	assert.Nil(t, err)

	var fromJSON Report

	assert.Nil(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, s.Report(), fromJSON)

	data, err = s.Export("msgpack")
	assert.Nil(t, err)

	var fromMsgpack Report

	assert.Nil(t, msgpack.Unmarshal(data, &fromMsgpack))
	assert.Equal(t, "one", fromMsgpack.Tests[0].Name)
	assert.Equal(t, 0.004, fromMsgpack.Tests[0].Stat.Median)

	_, contentType, err := s.Encode("cbor")
	assert.Nil(t, err)
	assert.Equal(t, "application/cbor", contentType)

	_, err = s.Export("yaml")
	assert.True(t, errors.Is(err, sentinel.ErrSerializerNotFound))
	assert.Equal(t, []string{"cbor", "json", "msgpack"}, s.Formats())
}
