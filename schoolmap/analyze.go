package schoolmap

import "strings"

// commonNameKeys holds normalized keys that recur in nearly every state.
// Matches on these keys are high-collision and flagged for review priority.
var commonNameKeys = map[string]struct{}{
	"central":        {},
	"lincoln":        {},
	"washington":     {},
	"jefferson":      {},
	"franklin":       {},
	"madison":        {},
	"jackson":        {},
	"roosevelt":      {},
	"kennedy":        {},
	"east":           {},
	"west":           {},
	"north":          {},
	"south":          {},
	"memorial":       {},
	"riverside":      {},
	"lakeside":       {},
	"northside":      {},
	"southside":      {},
	"saint marys":    {},
	"saint josephs":  {},
	"saint francis":  {},
	"sacred heart":   {},
	"mount vernon":   {},
}

var prepMarkers = []string{
	"prep",
	"preparatory",
	"academy",
	"christian academy",
	"boarding",
}

// ExtractDisambiguator returns the text of the first parenthetical in a raw
// name, trimmed. The normalizer strips parentheticals from the key, but the
// free-text disambiguator (a city, a religious order) stays available for
// display and manual review.
func ExtractDisambiguator(raw string) string {
	open := strings.IndexRune(raw, '(')
	if open < 0 {
		return ""
	}
	close := strings.IndexRune(raw[open:], ')')
	if close < 0 {
		return strings.TrimSpace(raw[open+1:])
	}
	return strings.TrimSpace(raw[open+1 : open+close])
}

// CategorizeSchoolType places a raw name into a curation bucket. Non-domestic
// schools are international regardless of the name; prep markers beat the
// generic high-school markers because prep academies need manual curation.
func CategorizeSchoolType(raw, country, domesticCountry string) SchoolType {
	if country != "" && !strings.EqualFold(country, domesticCountry) {
		return SchoolInternational
	}
	lower := strings.ToLower(raw)
	for _, marker := range prepMarkers {
		if strings.Contains(lower, marker) {
			return SchoolPrep
		}
	}
	for _, token := range strings.Fields(stripPunctuation(lower)) {
		switch token {
		case "high", "hs", "shs", "secondary":
			return SchoolPublic
		}
	}
	return SchoolUnknown
}

// IsLikelyCommonName reports whether a normalized key belongs to the fixed
// high-collision vocabulary. Such keys match dozens of distinct schools, so
// any automatic resolution on them deserves a second look.
func IsLikelyCommonName(key string) bool {
	_, ok := commonNameKeys[key]
	return ok
}
