// Package fingerprint derives a short deterministic version string from the
// query context of a list request. A cursor minted under one filter/sort/geo
// context embeds this version; when the context changes, the version changes
// and the cursor is detectably stale. The fingerprint is a pure function of
// the normalized inputs: no process state, no randomness, no clock.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultGeoPrecision is the number of decimal places kept when rounding
	// a geo center. Four decimals is roughly 11m at the equator: coarse
	// enough that client GPS jitter does not change the fingerprint, fine
	// enough that a materially different location does.
	DefaultGeoPrecision = 4
	// DefaultLength is the number of hex characters retained from the digest.
	DefaultLength = 16
)

// Geo is a geospatial search center.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Filters is the filter context of a list request. A nil Center means no
// geospatial filter; that is itself a valid, distinct context.
type Filters struct {
	Search     string
	City       string
	Region     string
	Categories []string
	MinRating  float64
	RadiusKm   float64
	Center     *Geo
}

// Fingerprinter computes data-version fingerprints. Safe for concurrent use.
type Fingerprinter struct {
	geoPrecision int
	length       int
}

// Option configures a Fingerprinter.
type Option func(*Fingerprinter)

// WithGeoPrecision sets the decimal places used when rounding coordinates.
func WithGeoPrecision(p int) Option {
	return func(f *Fingerprinter) {
		if p >= 0 {
			f.geoPrecision = p
		}
	}
}

// WithLength sets how many hex characters of the digest are retained.
func WithLength(n int) Option {
	return func(f *Fingerprinter) {
		if n > 0 && n <= hex.EncodedLen(sha256.Size) {
			f.length = n
		}
	}
}

// New returns a Fingerprinter with the given options applied over defaults.
func New(opts ...Option) *Fingerprinter {
	f := &Fingerprinter{
		geoPrecision: DefaultGeoPrecision,
		length:       DefaultLength,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Normalize canonicalizes a filter record so that semantically identical
// inputs serialize identically: search terms and cities are trimmed and
// lowercased, region codes uppercased, category lists lowercased, deduped
// and sorted, and the geo center rounded to the configured precision.
// Normalizing an already-normalized record yields the same record.
func (f *Fingerprinter) Normalize(in Filters) Filters {
	out := Filters{
		Search:    strings.ToLower(strings.TrimSpace(in.Search)),
		City:      strings.ToLower(strings.TrimSpace(in.City)),
		Region:    strings.ToUpper(strings.TrimSpace(in.Region)),
		MinRating: in.MinRating,
		RadiusKm:  in.RadiusKm,
	}
	if len(in.Categories) > 0 {
		seen := make(map[string]struct{}, len(in.Categories))
		cats := make([]string, 0, len(in.Categories))
		for _, c := range in.Categories {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			cats = append(cats, c)
		}
		sort.Strings(cats)
		if len(cats) > 0 {
			out.Categories = cats
		}
	}
	if in.Center != nil {
		out.Center = &Geo{
			Lat: f.roundCoord(in.Center.Lat),
			Lng: f.roundCoord(in.Center.Lng),
		}
	}
	return out
}

// Version computes the fingerprint of the given filter context and sort key.
// The input is normalized first (normalization is idempotent, so callers may
// pass raw or already-normalized filters), serialized to a canonical
// line-oriented byte form with fixed key order, and hashed with SHA-256; the
// externally visible version is a fixed-length prefix of the hex digest.
func (f *Fingerprinter) Version(in Filters, sortKey string) string {
	n := f.Normalize(in)

	var b strings.Builder
	b.WriteString("search=")
	b.WriteString(n.Search)
	b.WriteString("\ncity=")
	b.WriteString(n.City)
	b.WriteString("\nregion=")
	b.WriteString(n.Region)
	b.WriteString("\ncategories=")
	b.WriteString(strings.Join(n.Categories, ","))
	b.WriteString("\nmin_rating=")
	b.WriteString(formatNum(n.MinRating))
	b.WriteString("\nradius_km=")
	b.WriteString(formatNum(n.RadiusKm))
	b.WriteString("\ngeo=")
	if n.Center != nil {
		b.WriteString(strconv.FormatFloat(n.Center.Lat, 'f', f.geoPrecision, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(n.Center.Lng, 'f', f.geoPrecision, 64))
	}
	b.WriteString("\nsort=")
	b.WriteString(sortKey)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:f.length]
}

// Validate reports whether a token-embedded version matches the current one.
// Kept as a named operation so callers have a single place to hook mismatch
// logging or looser matching policies.
func (f *Fingerprinter) Validate(tokenVersion, currentVersion string) bool {
	return tokenVersion != "" && tokenVersion == currentVersion
}

func (f *Fingerprinter) roundCoord(v float64) float64 {
	scale := math.Pow10(f.geoPrecision)
	return math.Round(v*scale) / scale
}

// formatNum renders a numeric threshold with the shortest exact decimal
// representation so serialization is stable across platforms.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
