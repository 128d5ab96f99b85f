package types

// Coordinates is a normalized (lat, lon) pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is a point of interest as stored in the places table.
// Coordinates is nil when the stored value is absent or malformed.
type Place struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Address      string       `json:"address,omitempty"`
	Category     string       `json:"category,omitempty"`
	Rating       *float64     `json:"rating,omitempty"`
	RatingCount  int          `json:"rating_count"`
	NumCheckins  int          `json:"num_checkins,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	OpeningHours string       `json:"opening_hours,omitempty"`
	About        string       `json:"about,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Website      string       `json:"website,omitempty"`
	PriceLevel   *int         `json:"price_level,omitempty"`
	Images       []string     `json:"images,omitempty"`
}

// Candidate is a Place annotated with the per-request ranking signals.
// It is never persisted.
type Candidate struct {
	Place
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	SemanticScore   *float64 `json:"semantic_score,omitempty"`
	MatchScore      float64  `json:"match_score,omitempty"`
	RatingScore     float64  `json:"rating_score,omitempty"`
	PopularityScore float64  `json:"popularity_score,omitempty"`
	FinalScore      float64  `json:"final_score,omitempty"`
}

// KeywordQuery is the filter set accepted by keyword search.
type KeywordQuery struct {
	Terms     []string
	Location  string
	Category  string
	MinRating *float64
	MaxRating *float64
	Limit     int
}
