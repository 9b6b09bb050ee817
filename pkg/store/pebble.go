// Package store persists venue listings in pebble. Primary records live
// under timestamp-ordered keys so a keyset page is a bounded prefix scan:
// seek to the anchor, walk in scan order, collect matches.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"venuedir/pkg/cursor"
	"venuedir/pkg/fingerprint"
	"venuedir/pkg/logger"
	"venuedir/pkg/models"
)

var (
	db     *pebble.DB
	dbPath string

	// seqMu guards the id sequence read-modify-write.
	seqMu sync.Mutex
)

const (
	itemPrefix = "venue:item:"
	idPrefix   = "venue:id:"
	seqKey     = "venue:seq"
)

// Open opens (or creates) a pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", zap.String("path", path))
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", zap.String("path", path), zap.Error(err))
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", zap.String("path", path))
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// itemKey builds the primary key for a venue. Both components are
// fixed-width zero-padded decimals so lexicographic key order equals
// (created_ts, id) numeric order; the id suffix breaks ties between venues
// created in the same nanosecond.
func itemKey(ts, id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d-%012d", itemPrefix, ts, id))
}

func idKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%012d", idPrefix, id))
}

// NextVenueID allocates the next venue id from a persisted sequence.
func NextVenueID() (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	seqMu.Lock()
	defer seqMu.Unlock()
	var cur int64
	v, closer, err := db.Get([]byte(seqKey))
	if err == nil {
		cur, _ = strconv.ParseInt(string(v), 10, 64)
		_ = closer.Close()
	} else if err != pebble.ErrNotFound {
		return 0, err
	}
	cur++
	if err := db.Set([]byte(seqKey), []byte(strconv.FormatInt(cur, 10)), pebble.Sync); err != nil {
		return 0, err
	}
	return cur, nil
}

// SaveVenue writes a venue under its primary (timestamp-ordered) key and its
// id index key. The venue must carry a positive ID and CreatedTS.
func SaveVenue(v models.Venue) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if v.ID <= 0 || v.CreatedTS <= 0 {
		return fmt.Errorf("venue requires positive id and created_ts")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal venue: %w", err)
	}
	if err := db.Set(itemKey(v.CreatedTS, v.ID), data, pebble.Sync); err != nil {
		logger.Error("save_venue_failed", zap.Int64("id", v.ID), zap.Error(err))
		return err
	}
	if err := db.Set(idKey(v.ID), data, pebble.Sync); err != nil {
		logger.Error("save_venue_index_failed", zap.Int64("id", v.ID), zap.Error(err))
		return err
	}
	venuesSaved.Inc()
	logger.Info("venue_saved", zap.Int64("id", v.ID), zap.String("name", v.Name))
	return nil
}

// GetVenue returns the venue with the given id, including soft-deleted ones;
// callers decide whether a deleted venue is visible.
func GetVenue(id int64) (models.Venue, error) {
	if db == nil {
		return models.Venue{}, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get(idKey(id))
	if err != nil {
		return models.Venue{}, err
	}
	defer closer.Close()
	var out models.Venue
	if err := json.Unmarshal(v, &out); err != nil {
		return models.Venue{}, fmt.Errorf("invalid venue record: %w", err)
	}
	return out, nil
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return err == pebble.ErrNotFound
}

// SoftDeleteVenue marks the venue as deleted. The record stays in place so
// in-flight pages keep their ordering; the retention job purges it later.
func SoftDeleteVenue(id int64) error {
	v, err := GetVenue(id)
	if err != nil {
		return err
	}
	if v.Deleted {
		return nil
	}
	v.Deleted = true
	v.DeletedTS = time.Now().UTC().UnixNano()
	if err := SaveVenue(v); err != nil {
		return err
	}
	logger.Info("venue_soft_deleted", zap.Int64("id", id))
	return nil
}

// Supported sort strategies.
const (
	SortCreatedDesc = "created_at_desc"
	SortCreatedAsc  = "created_at_asc"
)

// Query is the keyset request the pagination layer hands to the store: an
// optional exclusive anchor, the sort strategy, the paging direction, a row
// limit, and the normalized filter context.
type Query struct {
	Anchor    *Anchor
	SortKey   string
	Direction cursor.Direction
	Limit     int
	Filters   fingerprint.Filters
}

// Anchor is the exclusive (created_ts, id) position a page continues from.
type Anchor struct {
	TS int64
	ID int64
}

// ListVenuesPage returns up to q.Limit venues beyond the anchor in the scan
// order implied by the sort key and direction, filters applied in-scan and
// soft-deleted rows skipped. Rows come back in scan order; for prev-direction
// fetches the caller reverses them into forward order.
func ListVenuesPage(q Query) ([]models.Venue, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	if q.Limit <= 0 {
		return nil, nil
	}
	ascending, err := scanAscending(q.SortKey, q.Direction)
	if err != nil {
		return nil, err
	}

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(itemPrefix),
		UpperBound: upperBound(itemPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	valid := seekStart(iter, q.Anchor, ascending)
	var out []models.Venue
	for ; valid; valid = step(iter, ascending) {
		var v models.Venue
		if err := json.Unmarshal(iter.Value(), &v); err != nil {
			logger.Warn("list_invalid_venue_json", zap.ByteString("key", iter.Key()), zap.Error(err))
			continue
		}
		if v.Deleted {
			continue
		}
		if !MatchesFilters(v, q.Filters) {
			continue
		}
		out = append(out, v)
		if len(out) >= q.Limit {
			break
		}
	}
	return out, iter.Error()
}

// seekStart positions the iterator on the first candidate row, strictly
// beyond the anchor when one is set.
func seekStart(iter *pebble.Iterator, a *Anchor, ascending bool) bool {
	if a == nil {
		if ascending {
			return iter.First()
		}
		return iter.Last()
	}
	key := itemKey(a.TS, a.ID)
	if ascending {
		valid := iter.SeekGE(key)
		if valid && string(iter.Key()) == string(key) {
			valid = iter.Next()
		}
		return valid
	}
	// SeekLT lands on the largest key strictly below the anchor.
	return iter.SeekLT(key)
}

func step(iter *pebble.Iterator, ascending bool) bool {
	if ascending {
		return iter.Next()
	}
	return iter.Prev()
}

// scanAscending maps (sortKey, direction) to physical scan order. Keys are
// stored ascending by (created_ts, id); a descending sort pages forward by
// scanning backwards, and the prev direction inverts whichever order the
// sort implies.
func scanAscending(sortKey string, dir cursor.Direction) (bool, error) {
	var asc bool
	switch sortKey {
	case "", SortCreatedDesc:
		asc = false
	case SortCreatedAsc:
		asc = true
	default:
		return false, fmt.Errorf("unsupported sort key: %q", sortKey)
	}
	if dir == cursor.DirectionPrev {
		asc = !asc
	}
	return asc, nil
}

// upperBound returns the smallest key greater than every key with the given
// prefix.
func upperBound(prefix string) []byte {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return b[:i+1]
		}
	}
	return nil
}

// PurgeDeleted removes venues soft-deleted longer ago than olderThan, up to
// batchSize per call. With dryRun it only counts. Returns the number of
// venues purged (or that would be purged).
func PurgeDeleted(olderThan time.Duration, batchSize int, dryRun bool) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	cutoff := time.Now().UTC().Add(-olderThan).UnixNano()

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(itemPrefix),
		UpperBound: upperBound(itemPrefix),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	purged := 0
	for valid := iter.First(); valid && purged < batchSize; valid = iter.Next() {
		var v models.Venue
		if err := json.Unmarshal(iter.Value(), &v); err != nil {
			continue
		}
		if !v.Deleted || v.DeletedTS == 0 || v.DeletedTS > cutoff {
			continue
		}
		purged++
		if dryRun {
			continue
		}
		if err := db.Delete(itemKey(v.CreatedTS, v.ID), pebble.Sync); err != nil {
			return purged, err
		}
		if err := db.Delete(idKey(v.ID), pebble.Sync); err != nil {
			return purged, err
		}
		venuesPurged.Inc()
		logger.Info("venue_purged", zap.Int64("id", v.ID))
	}
	return purged, iter.Error()
}
