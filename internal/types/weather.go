package types

// Weather is the current conditions snapshot returned by the weather provider.
type Weather struct {
	Temp        float64      `json:"temp"`
	FeelsLike   float64      `json:"feels_like"`
	TempMin     float64      `json:"temp_min"`
	TempMax     float64      `json:"temp_max"`
	Humidity    int          `json:"humidity"`
	Pressure    int          `json:"pressure"`
	Description string       `json:"description"`
	Main        string       `json:"main"`
	Icon        string       `json:"icon"`
	WindSpeed   float64      `json:"wind_speed"`
	Clouds      int          `json:"clouds"`
	Coords      *Coordinates `json:"coords,omitempty"`
}
