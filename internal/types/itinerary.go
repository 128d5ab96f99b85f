package types

import "time"

// ItineraryRequest asks for a day-by-day plan at a destination.
type ItineraryRequest struct {
	Destination string   `json:"destination"`
	NumDays     int      `json:"num_days"`
	Preferences []string `json:"preferences,omitempty"`
	Budget      string   `json:"budget,omitempty"`
	MaxBudget   *int     `json:"max_budget,omitempty"`
	StartTime   string   `json:"start_time,omitempty"`
	EndTime     string   `json:"end_time,omitempty"`
	UserLat     *float64 `json:"user_lat,omitempty"`
	UserLon     *float64 `json:"user_lon,omitempty"`
}

// HasUserLocation reports whether both user coordinates are present.
func (r ItineraryRequest) HasUserLocation() bool {
	return r.UserLat != nil && r.UserLon != nil
}

// ActivityDetail is one stop within a day.
type ActivityDetail struct {
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	ActivityType    string   `json:"activity_type"`
	PlaceID         string   `json:"place_id,omitempty"`
	PlaceName       string   `json:"place_name"`
	Address         string   `json:"address,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
	Category        string   `json:"category,omitempty"`
	Description     string   `json:"description"`
	Tips            string   `json:"tips,omitempty"`
	EstimatedCost   string   `json:"estimated_cost,omitempty"`
}

// DayItinerary groups the activities of a single day.
type DayItinerary struct {
	Day                 int              `json:"day"`
	Date                string           `json:"date,omitempty"`
	Theme               string           `json:"theme"`
	Activities          []ActivityDetail `json:"activities"`
	TotalActivities     int              `json:"total_activities"`
	EstimatedDistanceKm *float64         `json:"estimated_distance_km,omitempty"`
}

// ItineraryResponse is the full multi-day plan.
type ItineraryResponse struct {
	Destination     string         `json:"destination"`
	NumDays         int            `json:"num_days"`
	Itinerary       []DayItinerary `json:"itinerary"`
	Summary         string         `json:"summary"`
	TotalPlaces     int            `json:"total_places"`
	Tips            []string       `json:"tips"`
	EstimatedBudget string         `json:"estimated_budget,omitempty"`
}

// SavedItinerary is an itinerary stored against a chat session.
type SavedItinerary struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Places    []map[string]any `json:"places"`
	CreatedAt time.Time        `json:"created_at"`
}

type ItinerarySaveRequest struct {
	SessionID string           `json:"session_id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Places    []map[string]any `json:"places"`
}

type ItinerarySaveResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ItineraryID string `json:"itinerary_id"`
}

type ItineraryListResponse struct {
	Success     bool             `json:"success"`
	Itineraries []SavedItinerary `json:"itineraries"`
}
