package itinerary

import (
	"math"
	"sort"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/geo"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

var mealTypes = map[string]struct{}{
	"breakfast": {},
	"lunch":     {},
	"dinner":    {},
}

func isMeal(act types.ActivityDetail) bool {
	_, ok := mealTypes[act.ActivityType]
	return ok
}

// legKm is the distance between two stops, +Inf when either lacks
// coordinates.
func legKm(from, to types.ActivityDetail) float64 {
	if from.Latitude == nil || from.Longitude == nil || to.Latitude == nil || to.Longitude == nil {
		return math.Inf(1)
	}
	return geo.DistanceKm(*from.Latitude, *from.Longitude, *to.Latitude, *to.Longitude)
}

// optimizeDayRoute keeps meals at their times and chains the free activities
// between two meals by nearest neighbour, starting from the earlier meal.
// The visiting order claims the window's time slots in ascending order, so
// the day still reads chronologically.
func optimizeDayRoute(activities []types.ActivityDetail) []types.ActivityDetail {
	if len(activities) <= 2 {
		return activities
	}

	var meals []types.ActivityDetail
	var free []int
	for i, act := range activities {
		if isMeal(act) {
			meals = append(meals, act)
			continue
		}
		free = append(free, i)
	}
	if len(free) == 0 {
		return activities
	}
	sort.SliceStable(meals, func(i, j int) bool { return meals[i].Time < meals[j].Time })

	// A virtual anchor with no coordinates opens the day.
	anchors := append([]types.ActivityDetail{{Time: ""}}, meals...)

	out := make([]types.ActivityDetail, 0, len(activities))
	out = append(out, meals...)
	placed := make(map[int]struct{}, len(free))

	for i, anchor := range anchors {
		next := "99:99"
		if i+1 < len(anchors) {
			next = anchors[i+1].Time
		}

		var window []int
		for _, idx := range free {
			t := activities[idx].Time
			if t > anchor.Time && t < next {
				window = append(window, idx)
			}
		}
		if len(window) == 0 {
			continue
		}

		slots := make([]string, len(window))
		for k, idx := range window {
			slots[k] = activities[idx].Time
		}
		sort.Strings(slots)
		sort.SliceStable(window, func(x, y int) bool { return activities[window[x]].Time < activities[window[y]].Time })

		last := anchor
		for k := range slots {
			best, bestDist := 0, math.Inf(1)
			for j, idx := range window {
				if d := legKm(last, activities[idx]); d < bestDist {
					best, bestDist = j, d
				}
			}
			act := activities[window[best]]
			act.Time = slots[k]
			out = append(out, act)
			placed[window[best]] = struct{}{}
			last = act
			window = append(window[:best], window[best+1:]...)
		}
	}

	for _, idx := range free {
		if _, ok := placed[idx]; !ok {
			out = append(out, activities[idx])
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// dayDistanceKm sums the legs between consecutive stops that both carry
// coordinates, rounded to one decimal.
func dayDistanceKm(activities []types.ActivityDetail) float64 {
	total := 0.0
	for i := 1; i < len(activities); i++ {
		if d := legKm(activities[i-1], activities[i]); !math.IsInf(d, 0) {
			total += d
		}
	}
	return geo.Round(total, 1)
}
