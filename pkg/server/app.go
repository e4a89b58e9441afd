package server

import (
	"context"
	"errors"
	"time"

	"MandiPulse/internal/middleware"
	xhttp "MandiPulse/pkg/http"
	pkgkafka "MandiPulse/pkg/kafka"
	applogger "MandiPulse/pkg/logger"
)

// Components are the long-lived parts App starts and stops. Consumer,
// Reports and Queue are optional. Shared clients are released by the
// cleanup function returned alongside the App.
type Components struct {
	HTTP     *xhttp.Server
	Consumer *pkgkafka.Consumer
	Reports  pkgkafka.MessageHandler
	Queue    *middleware.PersistQueue
}

// App encapsulates the entire application lifecycle.
type App struct {
	c   Components
	log *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(c Components, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{c: c, log: l}
}

// Run starts every component and blocks until ctx ends or the HTTP listener
// fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.c.Queue != nil {
		a.c.Queue.Start(runCtx)
	}

	if a.c.Consumer != nil && a.c.Reports != nil {
		a.c.Consumer.RegisterHandler(a.c.Reports)
		if err := a.c.Consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			a.shutdown()
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.c.Reports.Topic()))
	}

	var httpErr <-chan error
	if a.c.HTTP != nil {
		httpErr = a.c.HTTP.Start()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err, ok := <-httpErr:
		if ok && err != nil {
			runErr = err
		}
	}

	a.shutdown()
	return runErr
}

// shutdown stops intake first, then background work.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	timeout := 15 * time.Second
	if a.c.HTTP != nil {
		timeout = a.c.HTTP.ShutdownTimeout()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.c.HTTP != nil {
		if err := a.c.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.c.Queue != nil {
		if n := a.c.Queue.Len(); n > 0 {
			a.log.Warn("persist queue abandoned verdicts", applogger.Int("pending", n))
		}
		a.c.Queue.Stop()
	}

	a.log.Info("shutdown complete")
	a.log.RemoveCollector()
}
