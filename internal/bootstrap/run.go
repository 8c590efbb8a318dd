package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/openfolio/portfolio-api/config"
	"github.com/openfolio/portfolio-api/internal/observability/notify"
	"golang.org/x/sync/errgroup"
)

// backendDownNotifyTimeout bounds outage-page delivery during shutdown.
const backendDownNotifyTimeout = 10 * time.Second

// AppOptions contains everything RunApp needs.
type AppOptions struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunApp starts the auth controller, the HTTP server, and the session
// refresh loop, then blocks until a shutdown signal arrives or a
// component fails. The auth controller is started first so the route
// guard never sees an uninitialized state longer than necessary.
func RunApp(opts *AppOptions) error {
	if opts == nil || opts.Config == nil {
		return errors.New("app options with config are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Services.Auth == nil {
		return errors.New("service container is missing the auth controller")
	}
	if err := opts.Services.Auth.Start(ctx); err != nil {
		return fmt.Errorf("start auth controller: %w", err)
	}
	defer opts.Services.Auth.Close()

	if sink := opts.Services.Observability.MetricsSink; sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Warn("statsd close failed", "error", err)
			}
		}()
	}

	server := StartHTTPServer(&HTTPServerConfig{
		Config:   opts.Config,
		Services: opts.Services,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	if runner := opts.Services.SessionRunner; runner != nil {
		g.Go(func() error {
			err := runner.Run(gctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			announceBackendDown(opts.Services.Observability.Events, logger, err)
			return fmt.Errorf("session refresh loop: %w", err)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		// A fresh context: gctx is already canceled at this point.
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  server,
			Logger:  logger,
		})
	})

	return g.Wait()
}

// announceBackendDown pages the on-call when the hosted session backend
// refresh loop gives up. Best effort: delivery failure is only logged.
func announceBackendDown(sink notify.Sink, logger *slog.Logger, cause error) {
	if sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), backendDownNotifyTimeout)
	defer cancel()

	event := notify.Event{
		Kind:       notify.KindAuthBackendDown,
		Severity:   notify.SeverityCritical,
		Summary:    "Auth backend session refresh failed",
		Detail:     cause.Error(),
		OccurredAt: time.Now(),
	}
	if err := sink.Send(ctx, event); err != nil {
		logger.ErrorContext(ctx, "failed to deliver backend-down notification", "error", err)
	}
}
