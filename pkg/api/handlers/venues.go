package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"venuedir/pkg/cursor"
	"venuedir/pkg/fingerprint"
	"venuedir/pkg/logger"
	"venuedir/pkg/models"
	"venuedir/pkg/pagination"
	"venuedir/pkg/store"
	"venuedir/pkg/utils"
	"venuedir/pkg/validation"
)

// VenueHandler serves the venue collection endpoints. The paginator (and
// through it the cursor signing secret) is injected at construction.
type VenueHandler struct {
	Pager        *pagination.Paginator
	MaxBodyBytes int64
}

// RegisterVenues registers all venue routes onto the provided router.
func RegisterVenues(r *mux.Router, h *VenueHandler) {
	r.HandleFunc("/venues", h.createVenue).Methods(http.MethodPost)
	r.HandleFunc("/venues", h.listVenues).Methods(http.MethodGet)
	r.HandleFunc("/venues/{id}", h.getVenue).Methods(http.MethodGet)
	r.HandleFunc("/venues/{id}", h.deleteVenue).Methods(http.MethodDelete)
}

// listVenues handles GET /venues: a filtered, sorted, cursor-paginated
// listing. The cursor query parameter is an opaque blob; any problem with it
// (tampering, expiry, changed filters) silently serves page one, so the
// endpoint never reveals which validation step failed.
func (h *VenueHandler) listVenues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := pagination.Request{
		Cursor:  q.Get("cursor"),
		SortKey: q.Get("sort"),
		Filters: parseFilters(q),
	}
	switch q.Get("direction") {
	case "":
	case string(cursor.DirectionNext):
		req.Direction = cursor.DirectionNext
	case string(cursor.DirectionPrev):
		req.Direction = cursor.DirectionPrev
	default:
		utils.JSONError(w, http.StatusBadRequest, "direction must be next or prev")
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.JSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		req.Limit = n
	}
	if req.SortKey != "" && req.SortKey != store.SortCreatedDesc && req.SortKey != store.SortCreatedAsc {
		utils.JSONError(w, http.StatusBadRequest, "unsupported sort")
		return
	}

	plan := h.Pager.Resolve(req)

	sq := store.Query{
		SortKey:   plan.SortKey,
		Direction: plan.Direction,
		Limit:     plan.Limit + 1, // one extra row signals another page
		Filters:   plan.Filters,
	}
	if plan.Keyset != nil {
		sq.Anchor = &store.Anchor{TS: plan.Keyset.AnchorTS, ID: plan.Keyset.AnchorID}
	}
	rows, err := store.ListVenuesPage(sq)
	if err != nil {
		logger.Error("list_venues_failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	page, err := pagination.BuildPage(h.Pager, plan, rows)
	if err != nil {
		logger.Error("build_page_failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	logger.Debug("venues_listed",
		zap.String("state", plan.State.String()),
		zap.Int("count", len(page.Items)),
		zap.Bool("has_next", page.NextCursor != ""),
	)
	_ = utils.JSONWrite(w, http.StatusOK, page)
}

// parseFilters builds the raw filter context from query parameters.
// Normalization happens inside the paginator so that the store and the
// fingerprint always see the same canonical form.
func parseFilters(q map[string][]string) fingerprint.Filters {
	get := func(k string) string {
		if vs := q[k]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}
	f := fingerprint.Filters{
		Search: get("search"),
		City:   get("city"),
		Region: get("region"),
	}
	for _, vs := range q["category"] {
		for _, c := range strings.Split(vs, ",") {
			if c = strings.TrimSpace(c); c != "" {
				f.Categories = append(f.Categories, c)
			}
		}
	}
	if v := get("min_rating"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinRating = r
		}
	}
	if v := get("radius_km"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			f.RadiusKm = r
		}
	}
	latS, lngS := get("lat"), get("lng")
	if latS != "" && lngS != "" {
		lat, laErr := strconv.ParseFloat(latS, 64)
		lng, lnErr := strconv.ParseFloat(lngS, 64)
		if laErr == nil && lnErr == nil {
			f.Center = &fingerprint.Geo{Lat: lat, Lng: lng}
		}
	}
	return f
}

// createVenue handles POST /venues.
func (h *VenueHandler) createVenue(w http.ResponseWriter, r *http.Request) {
	maxBody := h.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var v models.Venue
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	v.HasGeo = v.Lat != 0 || v.Lng != 0 || v.HasGeo
	if err := validation.ValidateVenue(v); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := store.NextVenueID()
	if err != nil {
		logger.Error("venue_id_alloc_failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "create failed")
		return
	}
	v.ID = id
	v.CreatedTS = time.Now().UTC().UnixNano()
	v.UpdatedTS = v.CreatedTS
	v.Deleted = false
	v.DeletedTS = 0

	if err := store.SaveVenue(v); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "create failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, v)
}

// getVenue handles GET /venues/{id}.
func (h *VenueHandler) getVenue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(w, http.StatusBadRequest, "invalid venue id")
		return
	}
	v, err := store.GetVenue(id)
	if err != nil {
		if store.IsNotFound(err) {
			utils.JSONError(w, http.StatusNotFound, "venue not found")
			return
		}
		logger.Error("get_venue_failed", zap.Int64("id", id), zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if v.Deleted {
		utils.JSONError(w, http.StatusNotFound, "venue not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, v)
}

// deleteVenue handles DELETE /venues/{id} as a soft delete.
func (h *VenueHandler) deleteVenue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(w, http.StatusBadRequest, "invalid venue id")
		return
	}
	if err := store.SoftDeleteVenue(id); err != nil {
		if store.IsNotFound(err) {
			utils.JSONError(w, http.StatusNotFound, "venue not found")
			return
		}
		logger.Error("delete_venue_failed", zap.Int64("id", id), zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
