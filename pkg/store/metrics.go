package store

import (
	"io/fs"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	venuesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "venuedir_store_venues_saved_total",
		Help: "Venue records written (creates and updates).",
	})

	venuesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "venuedir_store_venues_purged_total",
		Help: "Soft-deleted venues removed by retention.",
	})

	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "venuedir_store_disk_bytes",
		Help: "Best-effort on-disk size of the pebble database directory.",
	}, func() float64 { return float64(DiskUsageBytes()) })
)

// DiskUsageBytes computes the total size of files under the DB path. Best
// effort: unreadable entries are skipped.
func DiskUsageBytes() uint64 {
	if dbPath == "" {
		return 0
	}
	var total uint64
	_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += uint64(fi.Size())
		}
		return nil
	})
	return total
}
