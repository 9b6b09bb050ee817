// Package pagination is the glue between the cursor codec, the data-version
// fingerprinter, and the storage layer. For each list request it decides
// whether the supplied cursor is usable, derives the keyset predicate the
// store should execute, and assembles the response page with fresh
// continuation tokens.
//
// Every cursor failure — bad signature, expiry, schema drift, direction
// mismatch, or a data-version mismatch — collapses into the same outcome: the
// request is served as page one. Clients never learn which check failed;
// surfacing the distinction would hand an attacker a tampering oracle.
package pagination

import (
	"go.uber.org/zap"

	"venuedir/pkg/cursor"
	"venuedir/pkg/fingerprint"
	"venuedir/pkg/logger"
)

// State describes how a request's position was established.
type State int

const (
	// FreshStart serves page one: no cursor, a failed cursor, or a stale
	// data version. Always safe, never an error to the client.
	FreshStart State = iota
	// Continuing resumes from an authenticated keyset anchor.
	Continuing
)

func (s State) String() string {
	if s == Continuing {
		return "continuing"
	}
	return "fresh_start"
}

const (
	// DefaultPageSize applies when the caller sends no limit.
	DefaultPageSize = 20
	// MaxPageSize caps caller-supplied limits.
	MaxPageSize = 100
)

// Request is a list request after query parsing: an optional opaque cursor,
// an optional direction hint, a page size, and the raw filter context.
type Request struct {
	Cursor    string
	Direction cursor.Direction
	Limit     int
	SortKey   string
	Filters   fingerprint.Filters
}

// Keyset is the predicate handed to the storage collaborator: fetch rows
// strictly beyond (AnchorTS, AnchorID) in the scan order implied by the sort
// key and direction.
type Keyset struct {
	AnchorTS  int64
	AnchorID  int64
	Direction cursor.Direction
}

// Plan is the resolved execution plan for one page.
type Plan struct {
	State State
	// Keyset is nil on a fresh start.
	Keyset      *Keyset
	DataVersion string
	SortKey     string
	Direction   cursor.Direction
	Limit       int
	// Filters is the normalized filter context; stores and matchers must use
	// this, not the raw request filters, so filtering and fingerprinting
	// agree on what the context is.
	Filters fingerprint.Filters
}

// Paginator resolves list requests into plans and mints follow-up cursors.
// Stateless and safe for concurrent use.
type Paginator struct {
	codec        *cursor.Codec
	prints       *fingerprint.Fingerprinter
	ttlHours     int
	defaultLimit int
	maxLimit     int
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithTTLHours sets the lifetime of cursors the paginator mints.
func WithTTLHours(h int) Option {
	return func(p *Paginator) {
		if h > 0 {
			p.ttlHours = h
		}
	}
}

// WithPageSizes overrides the default and maximum page sizes.
func WithPageSizes(def, max int) Option {
	return func(p *Paginator) {
		if def > 0 {
			p.defaultLimit = def
		}
		if max > 0 {
			p.maxLimit = max
		}
	}
}

// New builds a Paginator over the given codec and fingerprinter.
func New(codec *cursor.Codec, prints *fingerprint.Fingerprinter, opts ...Option) *Paginator {
	p := &Paginator{
		codec:        codec,
		prints:       prints,
		ttlHours:     cursor.DefaultTTLHours,
		defaultLimit: DefaultPageSize,
		maxLimit:     MaxPageSize,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Resolve turns a request into an execution plan. It never returns an error:
// any cursor problem degrades to a fresh first page. Signature verification
// happens inside Decode before any payload field is read, so a keyset anchor
// is only ever built from authenticated data.
func (p *Paginator) Resolve(req Request) Plan {
	sortKey := req.SortKey
	if sortKey == "" {
		sortKey = cursor.DefaultSortKey
	}
	limit := req.Limit
	if limit <= 0 {
		limit = p.defaultLimit
	}
	if limit > p.maxLimit {
		limit = p.maxLimit
	}

	filters := p.prints.Normalize(req.Filters)
	version := p.prints.Version(filters, sortKey)

	plan := Plan{
		State:       FreshStart,
		DataVersion: version,
		SortKey:     sortKey,
		Direction:   cursor.DirectionNext,
		Limit:       limit,
		Filters:     filters,
	}
	if req.Cursor == "" {
		pagesTotal.WithLabelValues(plan.State.String()).Inc()
		return plan
	}

	payload, err := p.codec.Decode(req.Cursor, req.Direction)
	if err != nil {
		cursorRejected.WithLabelValues(rejectReason(err)).Inc()
		logger.Debug("cursor_rejected", zap.String("reason", err.Error()))
		pagesTotal.WithLabelValues(plan.State.String()).Inc()
		return plan
	}
	if payload.SortKey != sortKey || !p.prints.Validate(payload.DataVersion, version) {
		cursorRejected.WithLabelValues("version_mismatch").Inc()
		logger.Debug("cursor_version_mismatch",
			zap.String("token_version", payload.DataVersion),
			zap.String("current_version", version),
		)
		pagesTotal.WithLabelValues(plan.State.String()).Inc()
		return plan
	}

	plan.State = Continuing
	plan.Direction = payload.Direction
	plan.Keyset = &Keyset{
		AnchorTS:  payload.AnchorTS,
		AnchorID:  payload.AnchorID,
		Direction: payload.Direction,
	}
	pagesTotal.WithLabelValues(plan.State.String()).Inc()
	return plan
}

// Page is the paginated envelope a list endpoint returns. Cursor strings are
// opaque; an absent NextCursor means the last page.
type Page[T cursor.Anchored] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	PrevCursor string `json:"prev_cursor,omitempty"`
}

// BuildPage assembles the response page from the rows the store returned for
// plan. The store is expected to overfetch by one row (plan.Limit+1) so the
// extra row signals another page beyond this one in the fetched direction.
//
// Rows fetched in the prev direction arrive in reverse scan order and are
// flipped here, so clients always see rows in consistent forward order no
// matter which direction fetched them.
func BuildPage[T cursor.Anchored](p *Paginator, plan Plan, rows []T) (Page[T], error) {
	more := len(rows) > plan.Limit
	if more {
		rows = rows[:plan.Limit]
	}
	if len(rows) == 0 {
		return Page[T]{Items: []T{}}, nil
	}
	if plan.Direction == cursor.DirectionPrev {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	page := Page[T]{Items: rows}
	first, last := rows[0], rows[len(rows)-1]

	// The next cursor exists when there are rows beyond the end of this
	// page: always true after paging backwards (we came from there), and
	// true after paging forward only when the store overfetched one.
	if plan.Direction == cursor.DirectionPrev || more {
		tok, err := p.codec.DeriveNext(last, plan.SortKey, plan.DataVersion, p.ttlHours)
		if err != nil {
			return Page[T]{}, err
		}
		page.NextCursor = tok
	}
	// The prev cursor mirrors that: always true after a continued forward
	// page, and true after paging backwards only when more remain behind.
	if (plan.Direction == cursor.DirectionNext && plan.State == Continuing) ||
		(plan.Direction == cursor.DirectionPrev && more) {
		tok, err := p.codec.DerivePrev(first, plan.SortKey, plan.DataVersion, p.ttlHours)
		if err != nil {
			return Page[T]{}, err
		}
		page.PrevCursor = tok
	}
	return page, nil
}
