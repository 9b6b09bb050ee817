package migrate

import (
	"context"
	"testing"

	"venuedir/pkg/models"
	"venuedir/pkg/store"
)

func TestSyncBackfillsSequence(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	// venues written without the sequence key, as an import would do
	for _, id := range []int64{3, 7, 5} {
		if err := store.SaveVenue(models.Venue{ID: id, Name: "imported", CreatedTS: id * 1000}); err != nil {
			t.Fatalf("SaveVenue: %v", err)
		}
	}

	if err := Sync(context.Background(), "1.2.0"); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	id, err := store.NextVenueID()
	if err != nil {
		t.Fatalf("NextVenueID: %v", err)
	}
	if id != 8 {
		t.Fatalf("NextVenueID after migration = %d, want 8", id)
	}

	v, err := store.SystemVersion()
	if err != nil {
		t.Fatalf("SystemVersion: %v", err)
	}
	if v != "1.2.0" {
		t.Fatalf("SystemVersion = %q, want 1.2.0", v)
	}

	// a second run at the same version is a no-op
	if err := Sync(context.Background(), "1.2.0"); err != nil {
		t.Fatalf("repeat Sync: %v", err)
	}
}
