package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ADRFeed/internal/domain/repository"
	"ADRFeed/internal/usecase"
	"ADRFeed/pkg/config"
	xhttp "ADRFeed/pkg/http"
	xlogger "ADRFeed/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	refresher  *usecase.MarketRefresher
	httpServer *xhttp.Server
	sinks      []repository.Sink
	logger     *xlogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	refresher *usecase.MarketRefresher,
	httpServer *xhttp.Server,
	sinks []repository.Sink,
	logger *xlogger.Logger,
) *App {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &App{
		cfg:        cfg,
		refresher:  refresher,
		httpServer: httpServer,
		sinks:      sinks,
		logger:     logger,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext performs the startup refresh, serves HTTP and blocks until ctx
// is done.
func (a *App) RunContext(ctx context.Context) error {
	a.logger.Info("initial refresh started")
	snap := a.refresher.Refresh(ctx)
	a.logger.Info("initial refresh finished",
		xlogger.String("data_status", string(snap.Status)),
		xlogger.Int("adrs", len(snap.ADRs)),
		xlogger.Int("macro", len(snap.Macro)),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", xlogger.Error(err))
		return err
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		a.refresher.Loop(ctx, a.cfg.Refresh.Interval)
	}()
	if a.cfg.Refresh.Interval > 0 {
		a.logger.Info("refresh loop started", xlogger.Duration("interval_ms", a.cfg.Refresh.Interval))
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	<-loopDone
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	timeout := a.httpServer.ShutdownTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := a.httpServer.Stop(shutdownCtx)
	if err != nil {
		a.logger.Error("http shutdown error", xlogger.Error(err))
	}

	for _, s := range a.sinks {
		if cerr := s.Close(); cerr != nil {
			a.logger.Warn("sink close error", xlogger.String("sink", s.Name()), xlogger.Error(cerr))
		}
	}

	a.logger.Info("shutdown complete")
	return err
}
