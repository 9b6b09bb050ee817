package store

import (
	"testing"

	"venuedir/pkg/fingerprint"
	"venuedir/pkg/models"
)

func TestMatchesFilters(t *testing.T) {
	v := models.Venue{
		Name:        "Joe's Pizza",
		Description: "Classic slices near the park",
		City:        "Miami",
		Region:      "fl",
		Categories:  []string{"Food", "Pizza"},
		Rating:      4.2,
		Lat:         25.7617,
		Lng:         -80.1918,
		HasGeo:      true,
	}

	cases := []struct {
		name string
		f    fingerprint.Filters
		want bool
	}{
		{"empty", fingerprint.Filters{}, true},
		{"search name", fingerprint.Filters{Search: "pizza"}, true},
		{"search description", fingerprint.Filters{Search: "slices"}, true},
		{"search miss", fingerprint.Filters{Search: "sushi"}, false},
		{"city", fingerprint.Filters{City: "miami"}, true},
		{"city miss", fingerprint.Filters{City: "tampa"}, false},
		{"region", fingerprint.Filters{Region: "FL"}, true},
		{"region miss", fingerprint.Filters{Region: "NY"}, false},
		{"category subset", fingerprint.Filters{Categories: []string{"food"}}, true},
		{"category all", fingerprint.Filters{Categories: []string{"food", "pizza"}}, true},
		{"category miss", fingerprint.Filters{Categories: []string{"food", "bars"}}, false},
		{"rating at threshold", fingerprint.Filters{MinRating: 4.2}, true},
		{"rating above", fingerprint.Filters{MinRating: 4.5}, false},
		{"radius inside", fingerprint.Filters{Center: &fingerprint.Geo{Lat: 25.7617, Lng: -80.19}, RadiusKm: 5}, true},
		{"radius outside", fingerprint.Filters{Center: &fingerprint.Geo{Lat: 26.5, Lng: -80.19}, RadiusKm: 5}, false},
	}
	for _, tc := range cases {
		if got := MatchesFilters(v, tc.f); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMatchesFiltersGeoRequiresCoordinates(t *testing.T) {
	v := models.Venue{Name: "No Geo", City: "miami"}
	f := fingerprint.Filters{Center: &fingerprint.Geo{Lat: 25.76, Lng: -80.19}, RadiusKm: 100}
	if MatchesFilters(v, f) {
		t.Fatalf("venue without coordinates matched a radius filter")
	}
}
