package schoolmap

import (
	"sort"
	"strings"
	"unicode"
)

// BuildClusters groups records whose names share a normalized key and selects
// one canonical surface form per group. Records with empty keys are treated
// as missing and never clustered. Groups with a single distinct surface form
// are not emitted; there is nothing to deduplicate in them.
//
// The result is sorted by key and independent of input ordering.
func BuildClusters(records []SchoolRecord) []Cluster {
	groups := make(map[string][]SchoolRecord)
	for _, rec := range records {
		key := Normalize(rec.Original)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], rec)
	}

	clusters := make([]Cluster, 0, len(groups))
	for key, members := range groups {
		if countDistinctNames(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			if members[i].PlayerCount != members[j].PlayerCount {
				return members[i].PlayerCount > members[j].PlayerCount
			}
			return members[i].Original < members[j].Original
		})
		clusters = append(clusters, Cluster{
			Key:       key,
			Members:   members,
			Canonical: selectCanonical(members),
		})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Key < clusters[j].Key })
	return clusters
}

// ClusterIndex arranges clusters into a lookup map keyed by normalized key.
func ClusterIndex(clusters []Cluster) map[string]Cluster {
	idx := make(map[string]Cluster, len(clusters))
	for _, c := range clusters {
		idx[c.Key] = c
	}
	return idx
}

func countDistinctNames(members []SchoolRecord) int {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		seen[m.Original] = struct{}{}
	}
	return len(seen)
}

// selectCanonical picks the display form for a cluster: highest player count
// first, then the fullest suffix form ("High School" over "HS" over "H.S."),
// then the fewest punctuation characters, then lexicographically first. The
// ordering favors readability over brevity and must stay stable; downstream
// mapping tables are diffed across runs.
func selectCanonical(members []SchoolRecord) string {
	best := members[0]
	for _, m := range members[1:] {
		if canonicalLess(m, best) {
			best = m
		}
	}
	return best.Original
}

// canonicalLess reports whether a should be preferred over b as canonical.
func canonicalLess(a, b SchoolRecord) bool {
	if a.PlayerCount != b.PlayerCount {
		return a.PlayerCount > b.PlayerCount
	}
	ra, rb := suffixFormRank(a.Original), suffixFormRank(b.Original)
	if ra != rb {
		return ra > rb
	}
	pa, pb := punctuationCount(a.Original), punctuationCount(b.Original)
	if pa != pb {
		return pa < pb
	}
	return a.Original < b.Original
}

// suffixFormRank scores how fully spelled out the institution suffix is.
// Fixed preference ranking, not alphabetical.
func suffixFormRank(name string) int {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "high school"):
		return 3
	case hasWord(lower, "high"):
		return 2
	case hasWord(lower, "hs") || strings.Contains(lower, "h.s."):
		return 1
	default:
		return 0
	}
}

func hasWord(lower, word string) bool {
	for _, token := range strings.Fields(lower) {
		if strings.Trim(token, ".,'") == word {
			return true
		}
	}
	return false
}

func punctuationCount(name string) int {
	count := 0
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		count++
	}
	return count
}
