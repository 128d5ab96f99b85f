package itinerary

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

var indoorPatterns = []string{
	"museum", "bảo tàng", "cafe", "cà phê", "mall", "shopping", "restaurant", "nhà hàng",
}

var (
	indoorBuilder = a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            a.LeftMostLongestMatch,
	})
	indoorMatcher = indoorBuilder.Build(indoorPatterns)
)

// isLikelyIndoor guesses from category and name whether a visit stays out of
// the sun and rain.
func isLikelyIndoor(p types.Place) bool {
	text := strings.ToLower(p.Category + " " + p.Name)
	return len(indoorMatcher.FindAll(text)) > 0
}

// preferIndoor reports whether the weather calls for indoor stops.
func preferIndoor(w *types.Weather) bool {
	if w == nil {
		return false
	}
	return w.Temp > 32 || strings.Contains(strings.ToLower(w.Main), "rain")
}

var hoursRangeRe = regexp.MustCompile(`(\d{1,2})[:.h](\d{2})\s*[-–]\s*(\d{1,2})[:.h](\d{2})`)

// isOpenAt checks a "HH:MM-HH:MM" opening range against a slot time. Anything
// it cannot read is treated as open.
func isOpenAt(openingHours, slot string) bool {
	hours := strings.ToLower(strings.TrimSpace(openingHours))
	if hours == "" {
		return true
	}
	if strings.Contains(hours, "closed") || strings.Contains(hours, "đóng cửa") {
		return false
	}
	if strings.Contains(hours, "24/7") || strings.Contains(hours, "24 giờ") {
		return true
	}
	at, ok := minuteOfDay(slot)
	if !ok {
		return true
	}
	matches := hoursRangeRe.FindAllStringSubmatch(hours, -1)
	if len(matches) == 0 {
		return true
	}
	for _, m := range matches {
		open := atoi(m[1])*60 + atoi(m[2])
		closing := atoi(m[3])*60 + atoi(m[4])
		if closing <= open {
			// past midnight
			if at >= open || at < closing {
				return true
			}
			continue
		}
		if at >= open && at < closing {
			return true
		}
	}
	return false
}

func minuteOfDay(hhmm string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// formatBudget renders a VND amount the way travellers read it.
func formatBudget(amount int) string {
	switch {
	case amount >= 1_000_000:
		millions := float64(amount) / 1_000_000
		if millions == float64(int(millions)) {
			return fmt.Sprintf("%d triệu VND", int(millions))
		}
		return fmt.Sprintf("%.1f triệu VND", millions)
	case amount >= 1000:
		return fmt.Sprintf("%dk VND", amount/1000)
	default:
		return fmt.Sprintf("%s VND", groupThousands(amount))
	}
}

func groupThousands(n int) string {
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	s := strconv.Itoa(n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var preferenceCategories = map[string][]string{
	"beach":       {"Biển & Bãi Biển"},
	"museum":      {"Bảo Tàng & Triển Lãm"},
	"attractions": {"Biển & Bãi Biển", "Bảo Tàng & Triển Lãm"},
}

// mapPreferences turns activity preferences into stored category names,
// distinct and in first-seen order.
func mapPreferences(prefs []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, p := range prefs {
		for _, c := range preferenceCategories[strings.ToLower(strings.TrimSpace(p))] {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// cityVariants returns the spellings searched for a destination. The
// destination itself always comes first.
func cityVariants(city string, table map[string][]string) []string {
	lower := strings.ToLower(strings.TrimSpace(city))
	out := []string{city}
	seen := map[string]struct{}{lower: {}}
	for _, key := range slices.Sorted(maps.Keys(table)) {
		values := table[key]
		if !matchesVariant(lower, values) {
			continue
		}
		for _, v := range values {
			if _, ok := seen[strings.ToLower(v)]; ok {
				continue
			}
			seen[strings.ToLower(v)] = struct{}{}
			out = append(out, v)
		}
		break
	}
	return out
}

func matchesVariant(city string, values []string) bool {
	for _, v := range values {
		v = strings.ToLower(v)
		if city == v || strings.Contains(city, v) {
			return true
		}
	}
	return false
}
