package store

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/pebble"
)

const systemVersionKey = "system:version"

// SystemVersion returns the schema version recorded in the database, or ""
// when the database is fresh.
func SystemVersion() (string, error) {
	if db == nil {
		return "", fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte(systemVersionKey))
	if err == pebble.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	out := string(v)
	_ = closer.Close()
	return out, nil
}

// SetSystemVersion records the schema version in the database.
func SetSystemVersion(v string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Set([]byte(systemVersionKey), []byte(v), pebble.Sync)
}

// MaxVenueID scans the id index and returns the highest allocated venue id,
// or 0 when no venues exist.
func MaxVenueID() (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(idPrefix),
		UpperBound: upperBound(idPrefix),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, nil
	}
	raw := string(iter.Key())[len(idPrefix):]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed id key %q: %w", iter.Key(), err)
	}
	return id, nil
}

// EnsureSeqAtLeast raises the persisted id sequence to at least n so that
// NextVenueID never hands out an id already in use.
func EnsureSeqAtLeast(n int64) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	seqMu.Lock()
	defer seqMu.Unlock()
	var cur int64
	v, closer, err := db.Get([]byte(seqKey))
	if err == nil {
		cur, _ = strconv.ParseInt(string(v), 10, 64)
		_ = closer.Close()
	} else if err != pebble.ErrNotFound {
		return err
	}
	if cur >= n {
		return nil
	}
	return db.Set([]byte(seqKey), []byte(strconv.FormatInt(n, 10)), pebble.Sync)
}
