package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"venuedir/internal/migrate"
	"venuedir/internal/retention"
	"venuedir/pkg/banner"
	"venuedir/pkg/config"
	"venuedir/pkg/cursor"
	"venuedir/pkg/fingerprint"
	"venuedir/pkg/logger"
	"venuedir/pkg/pagination"
	"venuedir/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	version string

	pager *pagination.Paginator

	retentionStop context.CancelFunc

	srv *http.Server
}

// New validates the effective config and initializes resources that do not
// require a running context (store, cursor codec, paginator). It does not
// start the HTTP server; call Run to start it and block until shutdown.
func New(cfg *config.Config, version string) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if err := store.Open(cfg.Server.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", cfg.Server.DBPath, err)
	}

	codec, err := cursor.New(cfg.Security.CursorSecret,
		cursor.WithMaxTTLHours(cfg.Pagination.MaxTTLHours))
	if err != nil {
		return nil, fmt.Errorf("cursor codec: %w", err)
	}
	prints := fingerprint.New(
		fingerprint.WithGeoPrecision(cfg.Pagination.GeoPrecision),
		fingerprint.WithLength(cfg.Pagination.FingerprintLength))
	pager := pagination.New(codec, prints,
		pagination.WithTTLHours(cfg.Pagination.DefaultTTLHours),
		pagination.WithPageSizes(cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize))

	return &App{cfg: cfg, version: version, pager: pager}, nil
}

// Run starts the retention runner (if enabled) and the HTTP server, and
// blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	if err := migrate.Sync(ctx, a.version); err != nil {
		return err
	}

	if a.cfg.Retention.Enabled {
		stop, err := retention.Start(ctx, a.cfg.Retention)
		if err != nil {
			return fmt.Errorf("retention: %w", err)
		}
		a.retentionStop = stop
	}

	banner.Print(a.cfg, a.version)

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// shutdown drains the HTTP server and stops background runners.
func (a *App) shutdown() {
	if a.retentionStop != nil {
		a.retentionStop()
	}
	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.srv.Shutdown(sctx); err != nil {
			logger.Warn("http_shutdown_failed", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Warn("store_close_failed", zap.Error(err))
	}
	logger.Info("server_stopped")
}
