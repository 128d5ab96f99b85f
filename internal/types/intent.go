package types

type QueryType string

const (
	QueryTypeGeneral   QueryType = "general"
	QueryTypeNearby    QueryType = "nearby_search"
	QueryTypeSpecific  QueryType = "specific_search"
	QueryTypeItinerary QueryType = "itinerary_request"
)

// Intent is the structured reading of a user utterance.
type Intent struct {
	QueryType           QueryType `json:"query_type"`
	Keywords            []string  `json:"keywords"`
	KeywordVariants     []string  `json:"keyword_variants,omitempty"`
	LocationMentioned   string    `json:"location_mentioned,omitempty"`
	City                string    `json:"city,omitempty"`
	District            string    `json:"district,omitempty"`
	MinRating           *float64  `json:"min_rating,omitempty"`
	MaxRating           *float64  `json:"max_rating,omitempty"`
	PriceRange          string    `json:"price_range,omitempty"`
	Category            string    `json:"category,omitempty"`
	RadiusKm            *float64  `json:"radius_km,omitempty"`
	NumberOfPlaces      *int      `json:"number_of_places,omitempty"`
	NumDays             *int      `json:"num_days,omitempty"`
	BudgetAmount        *int      `json:"budget_amount,omitempty"`
	NeedsSemanticSearch bool      `json:"needs_semantic_search"`
	VietnameseQuery     string    `json:"vietnamese_query"`
	CorrectedQuery      string    `json:"corrected_query"`
	OriginalLanguage    string    `json:"original_language"`
}

// Location returns the most specific place name carried by the intent.
func (i Intent) Location() string {
	switch {
	case i.LocationMentioned != "":
		return i.LocationMentioned
	case i.District != "":
		return i.District
	default:
		return i.City
	}
}
