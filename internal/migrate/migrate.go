// Package migrate performs idempotent upgrade work between binary versions
// at startup, before the server accepts traffic.
package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"venuedir/pkg/logger"
	"venuedir/pkg/store"
)

// Sync brings the database up to the running version. Each step must be
// idempotent and safe to run multiple times.
func Sync(ctx context.Context, to string) error {
	from, err := store.SystemVersion()
	if err != nil {
		return fmt.Errorf("read system version: %w", err)
	}
	if from == to {
		return nil
	}
	logger.Info("migrate_start", zap.String("from", from), zap.String("to", to))

	if err := ctx.Err(); err != nil {
		return err
	}

	// Backfill the id sequence from existing venues. Databases written
	// before the sequence key existed would otherwise reissue ids.
	maxID, err := store.MaxVenueID()
	if err != nil {
		logger.Error("migrate_scan_ids_failed", zap.Error(err))
		return err
	}
	if maxID > 0 {
		if err := store.EnsureSeqAtLeast(maxID); err != nil {
			logger.Error("migrate_seq_backfill_failed", zap.Error(err))
			return err
		}
	}

	if err := store.SetSystemVersion(to); err != nil {
		return fmt.Errorf("record system version: %w", err)
	}
	logger.Info("migrate_done", zap.String("version", to), zap.Int64("max_id", maxID))
	return nil
}
