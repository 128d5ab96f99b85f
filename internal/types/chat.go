package types

import "math"

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message   string   `json:"message"`
	SessionID string   `json:"session_id"`
	UserLat   *float64 `json:"user_lat,omitempty"`
	UserLon   *float64 `json:"user_lon,omitempty"`
}

// HasUserLocation reports whether both user coordinates are present and finite.
func (r ChatRequest) HasUserLocation() bool {
	if r.UserLat == nil || r.UserLon == nil {
		return false
	}
	return !math.IsNaN(*r.UserLat) && !math.IsNaN(*r.UserLon) &&
		!math.IsInf(*r.UserLat, 0) && !math.IsInf(*r.UserLon, 0)
}

// PlaceInfo is the public shape of a recommended place. Field names are part
// of the client contract.
type PlaceInfo struct {
	PlaceID      string   `json:"place_id"`
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Phone        string   `json:"phone,omitempty"`
	Website      string   `json:"website,omitempty"`
	Category     string   `json:"category,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	RatingCount  *int     `json:"rating_count,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	About        string   `json:"about,omitempty"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	Weather      *Weather `json:"weather,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	Images       []string `json:"images"`
}

// NewPlaceInfo formats a ranked candidate for the response body.
func NewPlaceInfo(c Candidate, weather *Weather) PlaceInfo {
	info := PlaceInfo{
		PlaceID:      c.ID,
		Name:         c.Name,
		Address:      c.Address,
		Phone:        c.Phone,
		Website:      c.Website,
		Category:     c.Category,
		Rating:       c.Rating,
		OpeningHours: c.OpeningHours,
		About:        c.About,
		DistanceKm:   c.DistanceKm,
		Weather:      weather,
		Images:       c.Images,
	}
	if c.Coordinates != nil {
		info.Latitude = c.Coordinates.Lat
		info.Longitude = c.Coordinates.Lon
	}
	if c.RatingCount > 0 {
		count := c.RatingCount
		info.RatingCount = &count
	}
	if c.FinalScore != 0 {
		score := c.FinalScore
		info.Score = &score
	}
	if info.Images == nil {
		info.Images = []string{}
	}
	return info
}

// UserLocation echoes the caller's coordinates back in the response.
type UserLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ChatResponse is the body returned by POST /api/v1/chat.
type ChatResponse struct {
	Answer       string             `json:"answer"`
	Places       []PlaceInfo        `json:"places"`
	QueryType    string             `json:"query_type"`
	TotalPlaces  int                `json:"total_places"`
	UserLocation *UserLocation      `json:"user_location,omitempty"`
	Itinerary    *ItineraryResponse `json:"itinerary,omitempty"`
}

// ChatConfigResponse exposes the non-sensitive ranking configuration.
type ChatConfigResponse struct {
	DefaultNearbyRadiusKm      float64            `json:"default_nearby_radius_km"`
	DefaultNearbyRadiusKmShort float64            `json:"default_nearby_radius_km_short"`
	TopNSemanticResults        int                `json:"top_n_semantic_results"`
	TopKFinalResults           int                `json:"top_k_final_results"`
	Weights                    map[string]float64 `json:"weights"`
}
