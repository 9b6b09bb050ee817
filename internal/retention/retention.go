// Package retention periodically purges soft-deleted venues. Deletes are
// soft so in-flight cursor pages keep a stable ordering; this job is what
// eventually reclaims the space.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"venuedir/pkg/config"
	"venuedir/pkg/logger"
	"venuedir/pkg/store"
)

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.RetentionConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", zap.String("cron", cfg.Cron))
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}

	logger.Info("retention_enabled",
		zap.String("cron", cronExpr),
		zap.Duration("period", cfg.Period.Duration()),
		zap.Bool("dry_run", cfg.DryRun),
	)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cfg, cronExpr)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cfg config.RetentionConfig, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", zap.String("cron", cronExpr), zap.Error(err))
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(cfg); err != nil {
				logger.Error("retention_run_error", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce executes a single purge pass. Exposed so tests and admin tooling
// can trigger retention without waiting for the schedule.
func RunOnce(cfg config.RetentionConfig) error {
	period := cfg.Period.Duration()
	if period <= 0 {
		period = 720 * time.Hour
	}
	n, err := store.PurgeDeleted(period, cfg.BatchSize, cfg.DryRun)
	if err != nil {
		return err
	}
	logger.Info("retention_run_complete", zap.Int("purged", n), zap.Bool("dry_run", cfg.DryRun))
	return nil
}
