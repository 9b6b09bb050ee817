// Package cursor creates and validates the opaque continuation tokens used
// by list endpoints. A token carries its own keyset anchor, authenticated
// with an HMAC over the serialized payload, so the server holds no
// pagination state: the client-held token string is the only record of
// position, and every field in it is verified before it is trusted.
package cursor

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the token format version. Tokens minted with a different
// version are unreadable by design; bump it when the payload shape changes.
const SchemaVersion = 1

const (
	// DefaultTTLHours applies when the caller does not choose a lifetime.
	DefaultTTLHours = 24
	// MaxTTLHours is the hard ceiling enforced at creation time.
	MaxTTLHours = 72
)

// sep joins the serialized payload and its authentication tag inside the
// encoded blob. The tag is hex so the separator can never appear in it;
// decoding splits at the last occurrence.
const sep = '|'

// Direction indicates which way a token pages through the collection.
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

func (d Direction) valid() bool {
	return d == DirectionNext || d == DirectionPrev
}

// Payload is the decoded contents of a token. Field order is the canonical
// serialization order: encoding/json marshals struct fields in declaration
// order, so identical inputs always produce identical bytes.
type Payload struct {
	// AnchorTS is the sort-key value (creation time, epoch nanos) of the
	// last item on the previous page.
	AnchorTS int64 `json:"ts"`
	// AnchorID is the id of that same item; tie-breaker for equal timestamps.
	AnchorID      int64     `json:"id"`
	SortKey       string    `json:"sort"`
	Direction     Direction `json:"dir"`
	SchemaVersion int       `json:"v"`
	// DataVersion fingerprints the filter/sort/geo context the token was
	// minted under; see the fingerprint package.
	DataVersion string `json:"dv"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// Anchored is the narrow view of a listing row the codec needs to mint a
// continuation token: its sort-key value and its id, nothing else.
type Anchored interface {
	PageAnchor() (ts int64, id int64)
}

// Codec signs and verifies cursor tokens. It is pure (no I/O) apart from a
// clock read and is safe for concurrent use; the secret is fixed for the
// process lifetime.
type Codec struct {
	secret      []byte
	maxTTLHours int
	now         func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxTTLHours overrides the creation-time ttl ceiling.
func WithMaxTTLHours(h int) Option {
	return func(c *Codec) {
		if h > 0 {
			c.maxTTLHours = h
		}
	}
}

// WithClock injects the time source; tests use it to cross expiry boundaries.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Codec around the server-held signing secret. An empty secret
// is refused so a misconfigured deployment fails at startup, not at request
// time with unverifiable tokens.
func New(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("cursor: signing secret must not be empty")
	}
	c := &Codec{
		secret:      []byte(secret),
		maxTTLHours: MaxTTLHours,
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// CreateInput holds the caller-supplied fields for a new token.
type CreateInput struct {
	AnchorTS    int64
	AnchorID    int64
	SortKey     string
	Direction   Direction
	DataVersion string
	// TTLHours must be within [1, max]; use DefaultTTLHours for the
	// conventional lifetime.
	TTLHours int
}

// Create mints a signed, URL-safe token for the given anchor. All input
// validation happens before any serialization or MAC work.
func (c *Codec) Create(in CreateInput) (string, error) {
	if in.AnchorID <= 0 {
		return "", fmt.Errorf("%w: anchor id must be a positive integer, got %d", ErrInvalidInput, in.AnchorID)
	}
	if !in.Direction.valid() {
		return "", fmt.Errorf("%w: direction must be %q or %q, got %q", ErrInvalidInput, DirectionNext, DirectionPrev, in.Direction)
	}
	if in.TTLHours < 1 || in.TTLHours > c.maxTTLHours {
		return "", fmt.Errorf("%w: ttl must be within [1, %d] hours, got %d", ErrInvalidInput, c.maxTTLHours, in.TTLHours)
	}
	sortKey := in.SortKey
	if sortKey == "" {
		sortKey = DefaultSortKey
	}

	now := c.now().UTC().Unix()
	p := Payload{
		AnchorTS:      in.AnchorTS,
		AnchorID:      in.AnchorID,
		SortKey:       sortKey,
		Direction:     in.Direction,
		SchemaVersion: SchemaVersion,
		DataVersion:   in.DataVersion,
		IssuedAt:      now,
		ExpiresAt:     now + int64(in.TTLHours)*3600,
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("cursor: marshal payload: %w", err)
	}

	blob := make([]byte, 0, len(body)+1+sha256.Size*2)
	blob = append(blob, body...)
	blob = append(blob, sep)
	blob = append(blob, c.sign(body)...)
	return base64.RawURLEncoding.EncodeToString(blob), nil
}

// DefaultSortKey is the sort strategy assumed when the caller omits one.
const DefaultSortKey = "created_at_desc"

// Decode verifies a token and returns its payload. Checks run in a fixed
// fail-closed order; in particular, nothing after the signature comparison
// executes unless the signature is valid, so no downstream logic can ever
// act on unauthenticated fields. When expectDirection is non-empty the
// token's direction must match it.
func (c *Codec) Decode(token string, expectDirection Direction) (Payload, error) {
	// (1) reverse the text encoding
	blob, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: malformed encoding", ErrInvalidCursor)
	}

	// (2) split payload and tag at the last separator
	i := bytes.LastIndexByte(blob, sep)
	if i <= 0 || i == len(blob)-1 {
		return Payload{}, fmt.Errorf("%w: missing separator", ErrInvalidCursor)
	}
	body, tag := blob[:i], blob[i+1:]

	// (3) recompute and compare the authentication tag in constant time
	if !hmac.Equal(tag, c.sign(body)) {
		return Payload{}, fmt.Errorf("%w: signature mismatch", ErrInvalidCursor)
	}

	// (4) deserialize and check structure
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: malformed payload", ErrInvalidCursor)
	}
	if p.AnchorID <= 0 || !p.Direction.valid() || p.ExpiresAt <= p.IssuedAt {
		return Payload{}, fmt.Errorf("%w: incomplete payload", ErrInvalidCursor)
	}

	// (5) expiry
	if c.now().UTC().Unix() >= p.ExpiresAt {
		return Payload{}, ErrCursorExpired
	}

	// (6) schema version
	if p.SchemaVersion != SchemaVersion {
		return Payload{}, fmt.Errorf("%w: unsupported schema version %d", ErrInvalidCursor, p.SchemaVersion)
	}

	// (7) direction, when the caller pins one
	if expectDirection != "" && p.Direction != expectDirection {
		return Payload{}, fmt.Errorf("%w: direction mismatch", ErrInvalidCursor)
	}
	return p, nil
}

// DeriveNext mints the token for the page after the given row, which is the
// last row of the current page. A nil row or a row without a usable anchor
// yields an empty token and no error: callers read that as "no further
// pages".
func (c *Codec) DeriveNext(last Anchored, sortKey, dataVersion string, ttlHours int) (string, error) {
	return c.derive(last, DirectionNext, sortKey, dataVersion, ttlHours)
}

// DerivePrev mints the token for the page before the given row, which is the
// first row of the current page. Same empty-token contract as DeriveNext.
func (c *Codec) DerivePrev(first Anchored, sortKey, dataVersion string, ttlHours int) (string, error) {
	return c.derive(first, DirectionPrev, sortKey, dataVersion, ttlHours)
}

func (c *Codec) derive(row Anchored, dir Direction, sortKey, dataVersion string, ttlHours int) (string, error) {
	if row == nil {
		return "", nil
	}
	ts, id := row.PageAnchor()
	if id <= 0 {
		return "", nil
	}
	return c.Create(CreateInput{
		AnchorTS:    ts,
		AnchorID:    id,
		SortKey:     sortKey,
		Direction:   dir,
		DataVersion: dataVersion,
		TTLHours:    ttlHours,
	})
}

// sign returns the hex-encoded HMAC-SHA256 tag over body.
func (c *Codec) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	sum := mac.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
