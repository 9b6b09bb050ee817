// Package validation checks venue input on the write path.
package validation

import (
	"fmt"
	"strings"

	"venuedir/pkg/models"
)

const (
	maxNameLen        = 200
	maxDescriptionLen = 5000
	maxCategories     = 20
)

// ValidateVenue checks a venue submitted for creation or update. It returns
// the first violation found; callers map it to a 400 response.
func ValidateVenue(v models.Venue) error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(v.Name) > maxNameLen {
		return fmt.Errorf("name exceeds %d characters", maxNameLen)
	}
	if len(v.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	if v.Region != "" && len(v.Region) != 2 {
		return fmt.Errorf("region must be a two-letter code")
	}
	if len(v.Categories) > maxCategories {
		return fmt.Errorf("too many categories (max %d)", maxCategories)
	}
	for _, c := range v.Categories {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("categories must not be empty strings")
		}
	}
	if v.Rating < 0 || v.Rating > 5 {
		return fmt.Errorf("rating must be within [0, 5]")
	}
	if v.HasGeo {
		if v.Lat < -90 || v.Lat > 90 {
			return fmt.Errorf("lat must be within [-90, 90]")
		}
		if v.Lng < -180 || v.Lng > 180 {
			return fmt.Errorf("lng must be within [-180, 180]")
		}
	}
	return nil
}
