package schoolmap

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ColumnCandidates defines possible header names for auto-detecting roster
// and reference CSV columns. Source files come from years of hand-maintained
// scrapes, so the same field hides behind many spellings.
type ColumnCandidates struct {
	School  []string `json:"school"`
	State   []string `json:"state"`
	City    []string `json:"city"`
	Country []string `json:"country"`
	Count   []string `json:"count"`
}

var (
	columnCandidatesMu  sync.RWMutex
	activeColumnOptions = defaultColumnCandidates()
)

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		School:  []string{"high_school", "highschool", "high school", "hs", "school", "previous_school"},
		State:   []string{"homestate", "state", "home_state", "st", "state_clean"},
		City:    []string{"hometown", "city", "home_city", "hometown_clean"},
		Country: []string{"country_clean", "country", "nation", "home_country"},
		Count:   []string{"player_count", "players", "count", "season_count"},
	}
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates().clone()
}

// SetColumnCandidates updates the column detection candidates used during
// auto-detection. Fields left nil fall back to the built-in defaults, so
// callers can override only the parts they need.
func SetColumnCandidates(candidates ColumnCandidates) {
	columnCandidatesMu.Lock()
	defer columnCandidatesMu.Unlock()
	activeColumnOptions = candidates.withDefaults()
}

func getColumnCandidates() ColumnCandidates {
	columnCandidatesMu.RLock()
	defer columnCandidatesMu.RUnlock()
	return activeColumnOptions.clone()
}

func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := defaultColumnCandidates()
	return ColumnCandidates{
		School:  pickStrings(c.School, defaults.School),
		State:   pickStrings(c.State, defaults.State),
		City:    pickStrings(c.City, defaults.City),
		Country: pickStrings(c.Country, defaults.Country),
		Count:   pickStrings(c.Count, defaults.Count),
	}
}

func (c ColumnCandidates) clone() ColumnCandidates {
	return ColumnCandidates{
		School:  cloneStrings(c.School),
		State:   cloneStrings(c.State),
		City:    cloneStrings(c.City),
		Country: cloneStrings(c.Country),
		Count:   cloneStrings(c.Count),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), cand) {
				return i
			}
		}
	}
	return -1
}

// resolveColumn locates a column by explicit name or "#N" position, falling
// back to candidate auto-detection. Returns -1 when nothing matches and no
// explicit selection was made.
func resolveColumn(header []string, explicit string, candidates []string) (int, error) {
	trimmed := strings.TrimSpace(explicit)
	if trimmed != "" {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), trimmed) {
				return i, nil
			}
		}
		if strings.HasPrefix(trimmed, "#") {
			idx, err := parseColumnIndex(trimmed)
			if err != nil {
				return -1, err
			}
			if idx >= len(header) {
				return -1, fmt.Errorf("column index %s is out of range", trimmed)
			}
			return idx, nil
		}
		return -1, fmt.Errorf("column %q not found", explicit)
	}
	return findColumn(header, candidates), nil
}

// resolveRequiredColumn is resolveColumn for columns the caller cannot work
// without.
func resolveRequiredColumn(header []string, explicit string, candidates []string) (int, error) {
	idx, err := resolveColumn(header, explicit, candidates)
	if err != nil {
		return -1, err
	}
	if idx < 0 {
		return -1, fmt.Errorf("no usable column found among %v", candidates)
	}
	return idx, nil
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	if trimmed == "" {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}
