package models

// Venue is a single directory listing: a place with descriptive fields used
// for filtering and a creation timestamp used as the primary sort key.
type Venue struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Description is free text matched by the search filter alongside Name.
	Description string `json:"description,omitempty"`
	City        string `json:"city,omitempty"`
	// Region is a two-letter state/region code, stored uppercase.
	Region     string   `json:"region,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Rating     float64  `json:"rating,omitempty"`
	Lat        float64  `json:"lat,omitempty"`
	Lng        float64  `json:"lng,omitempty"`
	HasGeo     bool     `json:"has_geo,omitempty"`
	// CreatedTS is the creation time in epoch nanoseconds; primary ordering key.
	CreatedTS int64 `json:"created_ts"`
	UpdatedTS int64 `json:"updated_ts,omitempty"`
	// Deleted marks a venue as soft-deleted; DeletedTS records deletion time (ns).
	Deleted   bool  `json:"deleted,omitempty"`
	DeletedTS int64 `json:"deleted_ts,omitempty"`
}

// PageAnchor exposes the two fields the cursor codec needs to mint a
// continuation token for a page ending (or starting) at this venue.
func (v Venue) PageAnchor() (ts int64, id int64) {
	return v.CreatedTS, v.ID
}
