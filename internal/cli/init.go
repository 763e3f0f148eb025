// Package cli provides the initialization and lifecycle helpers shared by
// the payboard commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"payboard/internal/amqp"
	"payboard/internal/config"
	applog "payboard/internal/log"
	"payboard/internal/services"
)

// LoadAndValidateConfig reads .env (if present) and the environment, then
// validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg and installs it as
// the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *applog.Logger {
	if out == nil {
		out = os.Stdout
	}
	// Validate already rejected unknown levels.
	level, _ := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Output:    out,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

const eventDrainTimeout = 5 * time.Second

// NewEventPublisher connects to the broker when AMQP_URL is set. A broker
// that cannot be reached is logged and the dashboard runs without events.
// Events are delivered from a background dispatcher, off the request path.
// The returned close func is never nil.
func NewEventPublisher(cfg *config.Config, logger *applog.Logger) (services.EventPublisher, func()) {
	if !cfg.EventsEnabled() {
		logger.WithComponent(applog.ComponentAMQP).Info("Record events disabled")
		return nil, func() {}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WithComponent(applog.ComponentAMQP).Warn("Broker unavailable, continuing without record events",
			applog.FieldError, err,
			"exchange", cfg.AMQPExchange)
		return nil, func() {}
	}

	logger.WithComponent(applog.ComponentAMQP).Info("Publishing record events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	dispatcher := services.NewEventDispatcher(client, services.DefaultEventBuffer)
	return dispatcher, func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventDrainTimeout)
		defer cancel()
		if err := dispatcher.Close(ctx); err != nil {
			logger.WithComponent(applog.ComponentAMQP).Warn("Record events left undelivered", applog.FieldError, err)
		}
		if err := client.Close(); err != nil {
			logger.WithComponent(applog.ComponentAMQP).Warn("Broker close failed", applog.FieldError, err)
		}
	}
}

// Server is the part of *http.Server the lifecycle needs.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// RunServer serves until ctx is cancelled, then shuts srv down within
// timeout. A listener failure ends the run with that error.
func RunServer(ctx context.Context, srv Server, timeout time.Duration, logger *applog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
