package validation

import (
	"strings"
	"testing"

	"venuedir/pkg/models"
)

func TestValidateVenue(t *testing.T) {
	base := models.Venue{Name: "Blue Door", Region: "FL", Rating: 4.5}
	if err := ValidateVenue(base); err != nil {
		t.Fatalf("valid venue rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*models.Venue)
	}{
		{"empty name", func(v *models.Venue) { v.Name = "  " }},
		{"long name", func(v *models.Venue) { v.Name = strings.Repeat("x", 201) }},
		{"long description", func(v *models.Venue) { v.Description = strings.Repeat("x", 5001) }},
		{"bad region", func(v *models.Venue) { v.Region = "FLA" }},
		{"too many categories", func(v *models.Venue) {
			for i := 0; i < 21; i++ {
				v.Categories = append(v.Categories, "c")
			}
		}},
		{"blank category", func(v *models.Venue) { v.Categories = []string{"food", " "} }},
		{"rating below range", func(v *models.Venue) { v.Rating = -0.1 }},
		{"rating above range", func(v *models.Venue) { v.Rating = 5.1 }},
		{"bad latitude", func(v *models.Venue) { v.HasGeo = true; v.Lat = 91 }},
		{"bad longitude", func(v *models.Venue) { v.HasGeo = true; v.Lng = -181 }},
	}
	for _, tc := range cases {
		v := base
		tc.mutate(&v)
		if err := ValidateVenue(v); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}
}
