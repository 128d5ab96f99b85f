package place

import (
	"regexp"
	"slices"
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"
)

// CategoryDetector maps free-text phrases ("bãi biển", "museum") onto the
// canonical category tags stored in places.category.
type CategoryDetector struct {
	matcher   a.AhoCorasick
	canonical map[string]string
	enabled   bool
}

func NewCategoryDetector(phrases map[string]string) *CategoryDetector {
	canonical := make(map[string]string, len(phrases))
	patterns := make([]string, 0, len(phrases))
	for phrase, tag := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" || tag == "" {
			continue
		}
		canonical[p] = tag
		patterns = append(patterns, p)
	}
	slices.Sort(patterns)

	d := &CategoryDetector{canonical: canonical}
	if len(patterns) == 0 {
		return d
	}
	// Vietnamese text is multibyte, so whole-word boundaries are not reliable.
	builder := a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            a.LeftMostLongestMatch,
	})
	d.matcher = builder.Build(patterns)
	d.enabled = true
	return d
}

// Detect returns the distinct canonical tags mentioned in texts, in order of
// first appearance.
func (d *CategoryDetector) Detect(texts ...string) []string {
	if d == nil || !d.enabled {
		return nil
	}
	var tags []string
	for _, text := range texts {
		lower := strings.ToLower(text)
		if lower == "" {
			continue
		}
		for _, m := range d.matcher.FindAll(lower) {
			tag, ok := d.canonical[lower[m.Start():m.End()]]
			if ok && !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// inCategory reports whether a stored category carries one of tags.
func inCategory(category string, tags []string) bool {
	if category == "" {
		return false
	}
	lower := strings.ToLower(category)
	for _, t := range tags {
		if strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

var (
	adminPrefixes  = []string{"quận ", "phường ", "huyện ", "xã ", "tp ", "tp.", "thành phố ", "district ", "ward "}
	shortDistrictR = regexp.MustCompile(`^q\.?\s?\d{1,2}$`)
)

// isLocationTerm reports whether a search term names an administrative area
// rather than a place, in which case it should only be matched against the
// address.
func isLocationTerm(term, location string, cities []string) bool {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return false
	}
	if location != "" && t == strings.ToLower(strings.TrimSpace(location)) {
		return true
	}
	for _, p := range adminPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	if shortDistrictR.MatchString(t) {
		return true
	}
	for _, c := range cities {
		if t == strings.ToLower(c) {
			return true
		}
	}
	return false
}
