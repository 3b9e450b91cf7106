package hyperbench

import (
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyp3rd/hyperbench/internal/constants"
	"github.com/hyp3rd/hyperbench/pkg/juxta"
	"github.com/hyp3rd/hyperbench/pkg/middleware"
	"github.com/hyp3rd/hyperbench/pkg/printer"
)

// Config is a struct that wraps all the configuration options to set up a `Session`.
type Config struct {
	// Unit is the display unit of every report.
	Unit time.Duration
	// Seed makes the trial order reproducible when Seeded is true.
	Seed   uint64
	Seeded bool
	// StepPrefix is prepended to every step name in the step report.
	StepPrefix string
	// Printer receives the trial progress and the reports.
	Printer printer.Printer
	// Logger receives failures of timed actions and per-run debug lines.
	Logger juxta.Logger
	// Meter and Tracer enable the OpenTelemetry middleware when set.
	Meter  metric.Meter
	Tracer trace.Tracer
	// Middlewares run inside the built-in ones, first is outermost.
	Middlewares []middleware.Middleware
	// ManagementAddr starts the management HTTP server when not empty.
	ManagementAddr    string
	ManagementOptions []ManagementHTTPOption
}

// NewConfig returns a new `Config` with default values:
//   - `Unit` is milliseconds
//   - `Printer` writes to stdout
//   - `Logger` is nil, the harness then logs with zerolog on stderr
//   - no meter, tracer or management server
//
// Each of the above can be overridden by passing options to `NewConfig`.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Unit:    constants.DefaultReportUnit,
		Printer: printer.Stdout(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option is a function type that can be used to configure the `Config` struct.
type Option func(*Config)

// WithUnit sets the display unit of the reports.
func WithUnit(unit time.Duration) Option {
	return func(cfg *Config) {
		cfg.Unit = unit
	}
}

// WithSeed makes the trial order reproducible.
func WithSeed(seed uint64) Option {
	return func(cfg *Config) {
		cfg.Seed = seed
		cfg.Seeded = true
	}
}

// WithStepPrefix sets the prefix of the step report lines.
func WithStepPrefix(prefix string) Option {
	return func(cfg *Config) {
		cfg.StepPrefix = prefix
	}
}

// WithPrinter sets the output sink.
func WithPrinter(out printer.Printer) Option {
	return func(cfg *Config) {
		if out != nil {
			cfg.Printer = out
		}
	}
}

// WithLogger sets the logger used by the harness and the logging middleware.
func WithLogger(logger juxta.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithMeter enables the OpenTelemetry metrics middleware.
func WithMeter(meter metric.Meter) Option {
	return func(cfg *Config) {
		cfg.Meter = meter
	}
}

// WithTracer enables the OpenTelemetry tracing middleware.
func WithTracer(tracer trace.Tracer) Option {
	return func(cfg *Config) {
		cfg.Tracer = tracer
	}
}

// WithMiddleware appends middleware applied to every registered test.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(cfg *Config) {
		cfg.Middlewares = append(cfg.Middlewares, mw...)
	}
}

// WithManagementHTTP enables the management HTTP server on addr.
func WithManagementHTTP(addr string, opts ...ManagementHTTPOption) Option {
	return func(cfg *Config) {
		cfg.ManagementAddr = addr
		cfg.ManagementOptions = opts
	}
}
