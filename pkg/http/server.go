package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ADRFeed/pkg/http/middleware"
	xlogger "ADRFeed/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NotFoundMessage is the body of every unmatched route. It is served with 200.
const NotFoundMessage = "Endpoint not found"

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORS            middleware.CORSConfig

	MetricsPath   string
	Registry      *prometheus.Registry
	SlowThreshold time.Duration
}

// Server wraps Echo HTTP server.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	logger *xlogger.Logger
}

// NewServer creates a new HTTP server with Echo. Middleware order is
// recover, request logging, metrics (when a registry is set), CORS.
func NewServer(handler Handler, l *xlogger.Logger, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            5000,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    180 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORS: middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: "GET, POST, OPTIONS",
			AllowHeaders: echo.HeaderContentType,
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if l == nil {
		l = xlogger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.HTTPErrorHandler = errorHandler(l)

	// Middleware
	e.Use(middleware.Recover(l))
	e.Use(middleware.RequestLogging(l))
	if cfg.Registry != nil {
		e.Use(middleware.Metrics(middleware.NewHTTPMetrics(cfg.Registry), l, cfg.SlowThreshold))
	}
	e.Use(middleware.CORS(cfg.CORS))

	// Register routes
	if handler != nil {
		handler.RegisterRoutes(e)
	}

	if cfg.Registry != nil && cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	return &Server{
		echo:   e,
		config: cfg,
		logger: l,
	}
}

// errorHandler serves unmatched routes as 200 {"error":"Endpoint not found"}
// and every other error as an AppError envelope.
func errorHandler(l *xlogger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *AppError
		var he *echo.HTTPError
		switch {
		case errors.Is(err, echo.ErrNotFound):
			err = c.JSON(http.StatusOK, map[string]string{"error": NotFoundMessage})
		case errors.As(err, &appErr):
			err = c.JSON(appErr.Status, appErr)
		case errors.As(err, &he):
			err = c.JSON(he.Code, appErrorFromStatus(he.Code, http.StatusText(he.Code)))
		default:
			l.Error("http handler error", xlogger.Error(err), xlogger.String("path", c.Request().URL.Path))
			err = c.JSON(http.StatusInternalServerError, InternalError(http.StatusText(http.StatusInternalServerError)))
		}
		if err != nil {
			l.Warn("http error response write failed", xlogger.Error(err))
		}
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.Addr()

	go func() {
		s.logger.Info("http server: listening", xlogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", xlogger.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Info("http server: stopped gracefully")
	return nil
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// ShutdownTimeout is the configured grace period for Stop.
func (s *Server) ShutdownTimeout() time.Duration {
	return s.config.ShutdownTimeout
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithHost sets server host.
func WithHost(host string) ServerOption {
	return func(c *ServerConfig) {
		c.Host = host
	}
}

// WithPort sets server port.
func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		c.Port = port
	}
}

// WithTimeouts sets read/write timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithCORS replaces the CORS allow-list and headers.
func WithCORS(cors middleware.CORSConfig) ServerOption {
	return func(c *ServerConfig) {
		c.CORS = cors
	}
}

// WithMetrics enables request metrics and exposes reg on path.
func WithMetrics(reg *prometheus.Registry, path string, slowThreshold time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.Registry = reg
		c.MetricsPath = path
		c.SlowThreshold = slowThreshold
	}
}
