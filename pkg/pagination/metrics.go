package pagination

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"venuedir/pkg/cursor"
)

// The fail-closed path is silent toward clients, so these counters are the
// only way operators can see rejected cursors happening.
var (
	cursorRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedir_cursor_rejected_total",
		Help: "Cursors rejected during plan resolution, by reason.",
	}, []string{"reason"})

	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedir_pages_total",
		Help: "List pages resolved, by pagination state.",
	}, []string{"state"})
)

func rejectReason(err error) string {
	switch {
	case errors.Is(err, cursor.ErrCursorExpired):
		return "expired"
	case errors.Is(err, cursor.ErrInvalidCursor):
		return "invalid"
	default:
		return "other"
	}
}
