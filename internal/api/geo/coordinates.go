package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

// maxDecodeDepth bounds how many times a JSON string wrapping another JSON
// document is unwrapped.
const maxDecodeDepth = 3

// ParseCoordinates normalizes a stored coordinates value into a (lat, lon)
// pair. Accepted shapes:
//
//   - JSON text (possibly a JSON string that itself holds JSON)
//   - {"lat":..,"lon":..}, {"latitude":..,"longitude":..}, {"lat":..,"lng":..}
//   - GeoJSON positions [lon, lat]
//   - GeoJSON points {"type":"Point","coordinates":[lon, lat]}
//
// Anything else, including out-of-range or non-finite values, yields nil.
func ParseCoordinates(raw any) *types.Coordinates {
	return parseCoordinates(raw, 0)
}

func parseCoordinates(raw any, depth int) *types.Coordinates {
	if depth > maxDecodeDepth {
		return nil
	}
	switch v := raw.(type) {
	case nil:
		return nil
	case *types.Coordinates:
		if v == nil {
			return nil
		}
		return validCoordinates(v.Lat, v.Lon)
	case types.Coordinates:
		return validCoordinates(v.Lat, v.Lon)
	case []byte:
		return parseCoordinatesText(string(v), depth)
	case json.RawMessage:
		return parseCoordinatesText(string(v), depth)
	case string:
		return parseCoordinatesText(v, depth)
	case map[string]any:
		return parseCoordinatesObject(v, depth)
	case []any:
		return parseCoordinatesArray(v)
	case []float64:
		if len(v) < 2 {
			return nil
		}
		return validCoordinates(v[1], v[0])
	default:
		return nil
	}
}

func parseCoordinatesText(s string, depth int) *types.Coordinates {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil
	}
	// A JSON string holding JSON ("{\"lat\":...}") is unwrapped once more.
	if inner, ok := decoded.(string); ok {
		return parseCoordinates(inner, depth+1)
	}
	return parseCoordinates(decoded, depth+1)
}

func parseCoordinatesObject(m map[string]any, depth int) *types.Coordinates {
	if t, ok := m["type"].(string); ok && strings.EqualFold(t, "point") {
		if pos, ok := m["coordinates"].([]any); ok {
			return parseCoordinatesArray(pos)
		}
		return nil
	}
	lat, okLat := firstNumber(m, "lat", "latitude")
	lon, okLon := firstNumber(m, "lon", "lng", "longitude")
	if !okLat || !okLon {
		if nested, ok := m["coordinates"]; ok {
			return parseCoordinates(nested, depth+1)
		}
		return nil
	}
	return validCoordinates(lat, lon)
}

// parseCoordinatesArray reads a GeoJSON position, which is [lon, lat].
func parseCoordinatesArray(pos []any) *types.Coordinates {
	if len(pos) < 2 {
		return nil
	}
	lon, okLon := toFloat(pos[0])
	lat, okLat := toFloat(pos[1])
	if !okLon || !okLat {
		return nil
	}
	return validCoordinates(lat, lon)
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func validCoordinates(lat, lon float64) *types.Coordinates {
	if !finite(lat) || !finite(lon) {
		return nil
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return nil
	}
	return &types.Coordinates{Lat: lat, Lon: lon}
}
