package geo

import (
	"math"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using the
// Haversine formula. Non-finite input yields +Inf so ranking code treats the
// pair as "do not prefer" instead of failing.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	if !finite(lat1) || !finite(lon1) || !finite(lat2) || !finite(lon2) {
		return math.Inf(1)
	}
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	// float error can push a a hair past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Between is DistanceKm for two optional coordinate pairs. Missing points are
// infinitely far apart.
func Between(a, b *types.Coordinates) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	return DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
