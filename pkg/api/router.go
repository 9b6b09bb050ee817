// Package api assembles the venuedir HTTP routing.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"venuedir/pkg/api/handlers"
	"venuedir/pkg/telemetry"
)

// NewRouter builds the versioned API router. Health and metrics endpoints
// are mounted by the app wiring, not here.
func NewRouter(h *handlers.VenueHandler) http.Handler {
	r := mux.NewRouter()
	r.Use(telemetry.Middleware)
	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterVenues(v1, h)
	return r
}
