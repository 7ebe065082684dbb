package server

import (
	"context"
	"errors"
	"io"
	"time"

	xhttp "BarPull/pkg/http"
	pkgkafka "BarPull/pkg/kafka"
	applogger "BarPull/pkg/logger"
)

// Resource is closed on shutdown, in reverse registration order.
type Resource struct {
	Name   string
	Closer io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	httpServer      *xhttp.Server
	consumer        *pkgkafka.Consumer
	resources       []Resource
	shutdownTimeout time.Duration
}

// New creates an App. consumer may be nil when Kafka consumption is disabled.
func New(log *applogger.Logger, httpServer *xhttp.Server, consumer *pkgkafka.Consumer, resources ...Resource) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		log:             log,
		httpServer:      httpServer,
		consumer:        consumer,
		resources:       resources,
		shutdownTimeout: 15 * time.Second,
	}
}

// Run starts every component and blocks until ctx is cancelled or the HTTP
// listener fails.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			a.closeResources()
			return err
		}
		a.log.Info("kafka consumer started")
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return errors.Join(err, a.shutdown())
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-a.httpServer.Errors():
		a.log.Error("http server failed", applogger.Error(runErr))
	}
	return errors.Join(runErr, a.shutdown())
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	a.closeResources()
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() {
	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if r.Closer == nil {
			continue
		}
		if err := r.Closer.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", r.Name), applogger.Error(err))
		}
	}
}
