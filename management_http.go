package hyperbench

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v3"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperbench/internal/constants"
	"github.com/hyp3rd/hyperbench/internal/sentinel"
	"github.com/hyp3rd/hyperbench/pkg/histogram"
)

// ManagementHTTPOption configures the management HTTP server.
type ManagementHTTPOption func(*ManagementHTTPServer)

// ManagementHTTPServer holds Fiber app and settings.
type ManagementHTTPServer struct {
	addr         string
	app          *fiber.App
	readTimeout  time.Duration
	writeTimeout time.Duration
	authFunc     func(fiber.Ctx) error
	ln           net.Listener
	started      bool
}

// WithMgmtAuth sets an auth function (return error to block).
func WithMgmtAuth(fn func(fiber.Ctx) error) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.authFunc = fn }
}

// WithMgmtReadTimeout sets read timeout.
func WithMgmtReadTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.readTimeout = d }
}

// WithMgmtWriteTimeout sets write timeout.
func WithMgmtWriteTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.writeTimeout = d }
}

// NewManagementHTTPServer builds an HTTP server holder (lazy start).
func NewManagementHTTPServer(addr string, opts ...ManagementHTTPOption) *ManagementHTTPServer {
	srv := &ManagementHTTPServer{
		addr:         addr,
		readTimeout:  constants.DefaultMgmtReadTimeout,
		writeTimeout: constants.DefaultMgmtWriteTimeout,
	}
	for _, opt := range opts { // apply options
		opt(srv)
	}

	srv.app = fiber.New(fiber.Config{
		ReadTimeout:  srv.readTimeout,
		WriteTimeout: srv.writeTimeout,
	})

	return srv
}

// managementSession is what the routes read from.
type managementSession interface {
	Report() Report
	Encode(format string) ([]byte, string, error)
	HistogramTop(numValues int) []histogram.Entry
	Formats() []string
}

// Start launches listener (idempotent). Caller provides the session for handler wiring.
func (s *ManagementHTTPServer) Start(ctx context.Context, session managementSession) error {
	if s.started { // idempotent
		return nil
	}

	s.mountRoutes(session)

	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ewrap.Wrap(err, "mgmt listen")
	}

	s.ln = ln

	go func() { // serve in background; the listener error on shutdown is expected
		_ = s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	s.started = true

	return nil
}

// Address returns the bound address (useful when passing ":0" for ephemeral port). Empty if not started yet.
func (s *ManagementHTTPServer) Address() string {
	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *ManagementHTTPServer) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}

	ch := make(chan error, 1)

	go func() {
		ch <- s.app.Shutdown()
	}()

	select {
	case <-ctx.Done():
		return sentinel.ErrMgmtHTTPShutdownTimeout
	case err := <-ch:
		s.started = false

		return err
	}
}

// mountRoutes registers endpoints onto the Fiber app.
func (s *ManagementHTTPServer) mountRoutes(session managementSession) {
	useAuth := s.wrapAuth
	s.registerBasic(useAuth, session)
	s.registerReports(useAuth, session)
}

// wrapAuth returns an auth-wrapped handler if authFunc provided.
func (s *ManagementHTTPServer) wrapAuth(handler fiber.Handler) fiber.Handler { //nolint:ireturn
	if s.authFunc == nil {
		return handler
	}

	return func(fiberCtx fiber.Ctx) error {
		authErr := s.authFunc(fiberCtx)
		if authErr != nil {
			return authErr
		}

		return handler(fiberCtx)
	}
}

func (s *ManagementHTTPServer) registerBasic(useAuth func(fiber.Handler) fiber.Handler, session managementSession) {
	s.app.Get("/health", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.SendString("ok") }))
	s.app.Get("/results", useAuth(func(fiberCtx fiber.Ctx) error {
		report := session.Report()

		return fiberCtx.JSON(fiber.Map{"unit": report.Unit, "tests": report.Tests})
	}))
	s.app.Get("/steps", useAuth(func(fiberCtx fiber.Ctx) error {
		report := session.Report()

		return fiberCtx.JSON(fiber.Map{"unit": report.Unit, "steps": report.Steps})
	}))
}

func (s *ManagementHTTPServer) registerReports(useAuth func(fiber.Handler) fiber.Handler, session managementSession) {
	s.app.Get("/report", useAuth(func(fiberCtx fiber.Ctx) error {
		format := fiberCtx.Query("format", constants.DefaultSerializer)

		data, contentType, err := session.Encode(format)
		if err != nil {
			if errors.Is(err, sentinel.ErrSerializerNotFound) {
				return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   "unknown format",
					"formats": session.Formats(),
				})
			}

			return err
		}

		fiberCtx.Set(fiber.HeaderContentType, contentType)

		return fiberCtx.Send(data)
	}))
	s.app.Get("/histogram", useAuth(func(fiberCtx fiber.Ctx) error {
		top := constants.DefaultHistogramTop

		if raw := fiberCtx.Query("top"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid top"})
			}

			top = n
		}

		return fiberCtx.JSON(fiber.Map{"top": top, "entries": session.HistogramTop(top)})
	}))
}
