package store

import (
	"math"
	"strings"

	"venuedir/pkg/fingerprint"
	"venuedir/pkg/models"
)

// MatchesFilters reports whether a venue satisfies a normalized filter
// context. Filters must come from fingerprint.Normalize so the matching here
// agrees with the data version embedded in cursors: a row set and its
// fingerprint are always derived from the same canonical context.
func MatchesFilters(v models.Venue, f fingerprint.Filters) bool {
	if f.Search != "" {
		hay := strings.ToLower(v.Name + " " + v.Description)
		if !strings.Contains(hay, f.Search) {
			return false
		}
	}
	if f.City != "" && strings.ToLower(v.City) != f.City {
		return false
	}
	if f.Region != "" && strings.ToUpper(v.Region) != f.Region {
		return false
	}
	if len(f.Categories) > 0 {
		have := make(map[string]struct{}, len(v.Categories))
		for _, c := range v.Categories {
			have[strings.ToLower(c)] = struct{}{}
		}
		for _, want := range f.Categories {
			if _, ok := have[want]; !ok {
				return false
			}
		}
	}
	if f.MinRating > 0 && v.Rating < f.MinRating {
		return false
	}
	if f.Center != nil && f.RadiusKm > 0 {
		if !v.HasGeo {
			return false
		}
		if haversineKm(f.Center.Lat, f.Center.Lng, v.Lat, v.Lng) > f.RadiusKm {
			return false
		}
	}
	return true
}

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance between two points.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
