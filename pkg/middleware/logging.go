// Package middleware provides decorators for juxta.Timed actions.
// Each middleware wraps the next Timed and adds a concern (logging, statistics,
// OpenTelemetry metrics or tracing) without changing the measured value.
package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/hyperbench/pkg/juxta"
)

// Logger describes a logging interface allowing to implement different external, or custom logger.
// zerolog.Logger satisfies it, as does the standard library *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Middleware decorates the Timed registered under name.
type Middleware func(name string, next juxta.Timed) juxta.Timed

// Chain applies middlewares so that the first one is the outermost.
func Chain(name string, timed juxta.Timed, middlewares ...Middleware) juxta.Timed {
	for i := len(middlewares) - 1; i >= 0; i-- {
		timed = middlewares[i](name, timed)
	}

	return timed
}

// LoggingMiddleware logs every run of the wrapped action and how long the whole run took,
// setup and teardown included.
type LoggingMiddleware struct {
	name   string
	next   juxta.Timed
	logger Logger
}

// NewLoggingMiddleware returns a new LoggingMiddleware.
func NewLoggingMiddleware(name string, next juxta.Timed, logger Logger) juxta.Timed {
	return &LoggingMiddleware{name: name, next: next, logger: logger}
}

// Logging adapts NewLoggingMiddleware to a Middleware.
func Logging(logger Logger) Middleware {
	return func(name string, next juxta.Timed) juxta.Timed {
		return NewLoggingMiddleware(name, next, logger)
	}
}

// Time implements juxta.Timed.
func (mw *LoggingMiddleware) Time(ctx context.Context) (float64, error) {
	defer func(begin time.Time) {
		mw.logger.Printf("test %s run took: %s", mw.name, time.Since(begin))
	}(time.Now())

	elapsed, err := mw.next.Time(ctx)
	if err != nil {
		mw.logger.Printf("test %s failed: %v", mw.name, err)

		return elapsed, err
	}

	mw.logger.Printf("test %s timed section: %s", mw.name, time.Duration(elapsed*float64(time.Second)))

	return elapsed, nil
}
