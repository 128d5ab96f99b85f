package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

var activityEmoji = map[string]string{
	"breakfast":   "🍳",
	"lunch":       "🍜",
	"dinner":      "🍽️",
	"cafe":        "☕",
	"coffee":      "☕",
	"visit":       "🏛️",
	"attractions": "🎭",
	"shopping":    "🛍️",
	"rest":        "😴",
}

func emojiFor(activityType string) string {
	if e, ok := activityEmoji[activityType]; ok {
		return e
	}
	return "📍"
}

// formatItineraryAnswer renders a plan as the markdown chat answer.
func formatItineraryAnswer(plan *types.ItineraryResponse, destination string, numDays int) string {
	lines := []string{
		fmt.Sprintf("🗓️ **Lịch trình %d ngày tại %s**\n", numDays, destination),
		fmt.Sprintf("📋 %s\n", plan.Summary),
	}
	for _, day := range plan.Itinerary {
		lines = append(lines, fmt.Sprintf("\n**📅 Ngày %d: %s**", day.Day, day.Theme))
		for _, act := range day.Activities {
			lines = append(lines, fmt.Sprintf("  %s %s - **%s**", emojiFor(act.ActivityType), act.Time, act.PlaceName))
			if act.Address != "" {
				lines = append(lines, "     📍 "+act.Address)
			}
		}
	}
	if len(plan.Tips) > 0 {
		lines = append(lines, "\n💡 **Lời khuyên:**")
		for _, tip := range plan.Tips[:min(3, len(plan.Tips))] {
			lines = append(lines, "  • "+tip)
		}
	}
	if plan.EstimatedBudget != "" {
		lines = append(lines, "\n💰 **Chi phí ước tính:** "+plan.EstimatedBudget)
	}
	return strings.Join(lines, "\n")
}

// itineraryPlaces lists every activity of the plan as a PlaceInfo.
func itineraryPlaces(plan *types.ItineraryResponse) []types.PlaceInfo {
	out := []types.PlaceInfo{}
	for _, day := range plan.Itinerary {
		for _, act := range day.Activities {
			info := types.PlaceInfo{
				PlaceID:  act.PlaceID,
				Name:     act.PlaceName,
				Address:  act.Address,
				Category: act.Category,
				Rating:   act.Rating,
				Images:   []string{},
			}
			if info.PlaceID == "" {
				info.PlaceID = "unknown"
			}
			if act.Latitude != nil {
				info.Latitude = *act.Latitude
			}
			if act.Longitude != nil {
				info.Longitude = *act.Longitude
			}
			out = append(out, info)
		}
	}
	return out
}

var (
	countPrefixRe  = regexp.MustCompile(`\b\d+\s+`)
	locationFrames = []string{"ở %s", "tại %s", "in %s"}
)

// Go's \b only knows ASCII word characters, so boundaries are spelled out as
// any rune that is not a letter or digit.
var fillerRe = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])(?:tìm cho tôi|cho tôi|tìm|gợi ý|đề xuất|liệt kê|show me|give me|find)(?:$|[^\p{L}\p{N}])`)

// stripFillers removes request phrasing as whole words, ignoring case.
// Adjacent fillers share a delimiter, so it repeats until nothing matches.
func stripFillers(q string) string {
	for {
		next := fillerRe.ReplaceAllString(q, "${1} ")
		if next == q {
			return q
		}
		q = next
	}
}

// semanticQuery keeps only the descriptive part of a query for embedding:
// the location, a requested count and request phrasing are removed.
func semanticQuery(in types.Intent, message string) string {
	q := in.VietnameseQuery
	if strings.TrimSpace(q) == "" {
		q = in.CorrectedQuery
	}
	if strings.TrimSpace(q) == "" {
		q = message
	}

	if loc := in.LocationMentioned; loc != "" {
		for _, frame := range locationFrames {
			q = strings.ReplaceAll(q, fmt.Sprintf(frame, loc), "")
		}
		q = strings.ReplaceAll(q, loc, "")
	}
	if in.NumberOfPlaces != nil {
		q = countPrefixRe.ReplaceAllString(q, "")
	}
	return strings.Join(strings.Fields(stripFillers(q)), " ")
}

// filterByAddress keeps candidates whose address mentions location. When none
// do, the input is returned unchanged.
func filterByAddress(candidates []types.Candidate, location string) []types.Candidate {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return candidates
	}
	var out []types.Candidate
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Address), loc) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return candidates
	}
	return out
}

// filterByRating applies optional bounds. Unrated places never pass a bound.
// When nothing passes, the input is returned unchanged.
func filterByRating(candidates []types.Candidate, minRating, maxRating *float64) []types.Candidate {
	if minRating == nil && maxRating == nil {
		return candidates
	}
	var out []types.Candidate
	for _, c := range candidates {
		if c.Rating == nil {
			continue
		}
		if minRating != nil && *c.Rating < *minRating {
			continue
		}
		if maxRating != nil && *c.Rating > *maxRating {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return candidates
	}
	return out
}
