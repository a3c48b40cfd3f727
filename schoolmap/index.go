package schoolmap

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// FuzzyMatch pairs a reference entry with its similarity to a query key.
type FuzzyMatch struct {
	Entry      ReferenceEntry
	Similarity float64
}

// ReferenceIndex provides exact and fuzzy lookup over the NCES directory,
// keyed by normalized name. A nil or empty index is valid and simply never
// matches; the pipeline degrades rather than fails when the directory is
// unavailable.
type ReferenceIndex struct {
	byKey      map[string][]ReferenceEntry
	byStateKey map[stateKey][]ReferenceEntry
	byState    map[string][]ReferenceEntry
	size       int
}

type stateKey struct {
	state string
	key   string
}

// NewReferenceIndex builds an index over the given entries. Entries whose
// names normalize to the empty key are dropped.
func NewReferenceIndex(entries []ReferenceEntry) *ReferenceIndex {
	idx := &ReferenceIndex{
		byKey:      make(map[string][]ReferenceEntry),
		byStateKey: make(map[stateKey][]ReferenceEntry),
		byState:    make(map[string][]ReferenceEntry),
	}
	for _, e := range entries {
		if e.Key == "" {
			e.Key = Normalize(e.Name)
		}
		if e.Key == "" {
			continue
		}
		idx.byKey[e.Key] = append(idx.byKey[e.Key], e)
		idx.byStateKey[stateKey{e.State, e.Key}] = append(idx.byStateKey[stateKey{e.State, e.Key}], e)
		idx.byState[e.State] = append(idx.byState[e.State], e)
		idx.size++
	}
	return idx
}

// Size returns the number of indexed entries.
func (idx *ReferenceIndex) Size() int {
	if idx == nil {
		return 0
	}
	return idx.size
}

// Empty reports whether the index holds no entries.
func (idx *ReferenceIndex) Empty() bool { return idx.Size() == 0 }

// LookupExact returns the reference entry matching the normalized key within
// the given state, but only when the match is unambiguous. With an empty
// state the key must be unique across the whole directory; two "Central"
// entries in different states cannot be told apart without a locality.
func (idx *ReferenceIndex) LookupExact(key, state string) (ReferenceEntry, bool) {
	if idx == nil || key == "" {
		return ReferenceEntry{}, false
	}
	var candidates []ReferenceEntry
	if state != "" {
		candidates = idx.byStateKey[stateKey{state, key}]
	} else {
		candidates = idx.byKey[key]
	}
	if len(candidates) != 1 {
		return ReferenceEntry{}, false
	}
	return candidates[0], true
}

// LookupFuzzy returns reference entries within the given state whose keys are
// at least threshold-similar to the query key, ordered by descending
// similarity. The state restriction is mandatory: cross-state fuzzy matching
// is the dominant source of false positives, so an empty state returns
// nothing.
func (idx *ReferenceIndex) LookupFuzzy(key, state string, threshold float64) []FuzzyMatch {
	if idx == nil || key == "" || state == "" {
		return nil
	}
	var matches []FuzzyMatch
	for _, e := range idx.byState[state] {
		sim := Similarity(key, e.Key)
		if sim >= threshold {
			matches = append(matches, FuzzyMatch{Entry: e, Similarity: sim})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Entry.Key < matches[j].Entry.Key
	})
	return matches
}

// Similarity computes a normalized edit-distance score in [0,1]. Identical
// strings score 1; an empty string never resembles anything.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}
