package retention

import (
	"context"
	"testing"
	"time"

	"venuedir/pkg/config"
	"venuedir/pkg/models"
	"venuedir/pkg/store"
)

func TestStartRejectsInvalidCron(t *testing.T) {
	cfg := config.RetentionConfig{Enabled: true, Cron: "not a cron"}
	if _, err := Start(context.Background(), cfg); err == nil {
		t.Fatalf("invalid cron accepted")
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	stop, err := Start(context.Background(), config.RetentionConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	stop()
}

func TestRunOncePurges(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	v := models.Venue{ID: 1, Name: "old", CreatedTS: 1000, Deleted: true,
		DeletedTS: time.Now().UTC().Add(-100 * time.Hour).UnixNano()}
	if err := store.SaveVenue(v); err != nil {
		t.Fatalf("SaveVenue: %v", err)
	}

	cfg := config.RetentionConfig{Period: config.Duration(24 * time.Hour), BatchSize: 10}
	if err := RunOnce(cfg); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if _, err := store.GetVenue(1); !store.IsNotFound(err) {
		t.Fatalf("venue not purged: %v", err)
	}
}
