package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/PoojaS1511/Updated-CMS-sub000/config"
	httpx "github.com/PoojaS1511/Updated-CMS-sub000/internal/http"
)

// PortalConfig holds the connected infrastructure the portal runs on.
type PortalConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// RunPortal builds and starts the auth guard, serves HTTP and blocks until ctx is
// cancelled or the server fails. The server is drained before the guard is closed.
func RunPortal(ctx context.Context, cfg PortalConfig) error {
	if cfg.Config == nil {
		return errors.New("portal config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics, closeMetrics := BuildMetrics(cfg.Config.Observability.Metrics, logger)
	defer func() {
		if err := closeMetrics(); err != nil {
			logger.Warn("close metrics client", "error", err)
		}
	}()

	guard, err := BuildGuard(ctx, AuthConfig{
		Auth:        cfg.Config.Auth,
		DB:          cfg.DB,
		RedisClient: cfg.RedisClient,
		Navigator:   httpx.RequestNavigator{},
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build auth guard: %w", err)
	}
	notifier := BuildFailureNotifier(cfg.Config.Observability.Notifications, logger)
	var watchers sync.WaitGroup
	defer func() {
		// Close ends the guard's watch streams, which stops the notifier.
		guard.Close()
		watchers.Wait()
	}()
	if notifier.Enabled() {
		watchers.Add(1)
		go func() {
			defer watchers.Done()
			notifier.WatchGuard(context.WithoutCancel(ctx), guard)
		}()
	}

	if err := guard.Start(ctx); err != nil {
		return fmt.Errorf("start auth guard: %w", err)
	}

	server, serveErr, err := StartHTTPServer(HTTPServerConfig{
		HTTP:   cfg.Config.HTTP,
		Guard:  guard,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down portal")
	case err, ok := <-serveErr:
		if ok {
			logger.Error("service error", "error", err)
			runErr = err
		}
	}

	// ctx may already be cancelled; shutdown gets its own deadline.
	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: context.WithoutCancel(ctx),
		Server:  server,
		Timeout: cfg.Config.HTTP.ShutdownTimeout,
		Logger:  logger,
	}); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}
