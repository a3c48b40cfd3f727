package schoolmap

import (
	"fmt"
	"strings"
)

// Provenance tags recorded in the mapping table's source column.
const (
	SourceManual        = "manual_curation"
	SourceDuplicates    = "duplicate_resolution"
	SourceNCES          = "nces_directory"
	SourceNCESFuzzy     = "nces_fuzzy"
	SourceInternational = "international"
	SourceUnresolved    = "unresolved"
)

// ManualOverride is one row of the curated override table: the hand-chosen
// standardized form for an exact original string.
type ManualOverride struct {
	Standardized string
	State        string
	City         string
	NCESID       string
	Notes        string
}

// Matcher resolves extracted school records into mapping records through a
// fixed tier order: manual override, cluster canonical, reference exact,
// reference fuzzy, international passthrough, unmapped. First match wins.
// Resolution is pure; every input yields some mapping record and nothing here
// can fail.
type Matcher struct {
	Clusters  map[string]Cluster
	Index     *ReferenceIndex
	Overrides map[string]ManualOverride

	// SimilarityThreshold is the minimum fuzzy score in [0,1] to accept.
	SimilarityThreshold float64
	// AmbiguityMargin is how far the best fuzzy candidate must sit above the
	// second best. Near-ties are surfaced as unmapped for review, not guessed.
	AmbiguityMargin float64
	// DomesticCountry is the country whose schools are eligible for cluster
	// and reference matching. Everything else passes through verbatim.
	DomesticCountry string
}

// Resolve maps one school record to its standardized form.
func (m Matcher) Resolve(rec SchoolRecord) MappingRecord {
	if o, ok := m.Overrides[rec.Original]; ok {
		return MappingRecord{
			Original:             rec.Original,
			Standardized:         o.Standardized,
			State:                firstNonEmpty(o.State, rec.State),
			Confidence:           ConfidenceManual,
			Source:               SourceManual,
			NCESID:               o.NCESID,
			PlayerCount:          rec.PlayerCount,
			CanonicalPlayerCount: rec.PlayerCount,
			City:                 firstNonEmpty(o.City, rec.City),
			Notes:                o.Notes,
		}
	}

	// Non-domestic schools are preserved verbatim. The NCES directory covers
	// only domestic schools, so any cluster or fuzzy hit on a foreign name
	// would be a coincidence of spelling.
	if m.international(rec) {
		return m.passthrough(rec, ConfidenceInternational, SourceInternational, "")
	}

	key := Normalize(rec.Original)
	if key == "" {
		return m.passthrough(rec, ConfidenceUnmapped, SourceUnresolved, "empty name")
	}

	if c, ok := m.Clusters[key]; ok {
		return MappingRecord{
			Original:             rec.Original,
			Standardized:         c.Canonical,
			State:                rec.State,
			Confidence:           ConfidenceAutoDuplicate,
			Source:               SourceDuplicates,
			PlayerCount:          rec.PlayerCount,
			CanonicalPlayerCount: c.TotalPlayers(),
			City:                 rec.City,
		}
	}

	if e, ok := m.Index.LookupExact(key, rec.State); ok {
		return MappingRecord{
			Original:             rec.Original,
			Standardized:         e.Name,
			State:                e.State,
			Confidence:           ConfidenceReferenceExact,
			Source:               SourceNCES,
			NCESID:               e.NCESID,
			PlayerCount:          rec.PlayerCount,
			CanonicalPlayerCount: rec.PlayerCount,
			City:                 e.City,
		}
	}

	if matches := m.Index.LookupFuzzy(key, rec.State, m.SimilarityThreshold); len(matches) > 0 {
		best := matches[0]
		if len(matches) > 1 && best.Similarity-matches[1].Similarity < m.AmbiguityMargin {
			note := fmt.Sprintf("ambiguous nces candidates: %q vs %q", best.Entry.Name, matches[1].Entry.Name)
			return m.passthrough(rec, ConfidenceUnmapped, SourceUnresolved, note)
		}
		return MappingRecord{
			Original:             rec.Original,
			Standardized:         best.Entry.Name,
			State:                best.Entry.State,
			Confidence:           ConfidenceReferenceFuzzy,
			Source:               SourceNCESFuzzy,
			NCESID:               best.Entry.NCESID,
			PlayerCount:          rec.PlayerCount,
			CanonicalPlayerCount: rec.PlayerCount,
			City:                 best.Entry.City,
			Notes:                fmt.Sprintf("similarity %.3f", best.Similarity),
		}
	}

	return m.passthrough(rec, ConfidenceUnmapped, SourceUnresolved, "")
}

// ResolveAll resolves a batch of records in order.
func (m Matcher) ResolveAll(records []SchoolRecord) []MappingRecord {
	out := make([]MappingRecord, len(records))
	for i, rec := range records {
		out[i] = m.Resolve(rec)
	}
	return out
}

func (m Matcher) international(rec SchoolRecord) bool {
	if rec.Country == "" {
		return false
	}
	return !strings.EqualFold(rec.Country, m.DomesticCountry)
}

// passthrough builds an identity mapping: the standardized form equals the
// original, which is how "not resolved" and "foreign, leave alone" are
// recorded without losing the row.
func (m Matcher) passthrough(rec SchoolRecord, conf Confidence, source, notes string) MappingRecord {
	return MappingRecord{
		Original:             rec.Original,
		Standardized:         rec.Original,
		State:                rec.State,
		Confidence:           conf,
		Source:               source,
		PlayerCount:          rec.PlayerCount,
		CanonicalPlayerCount: rec.PlayerCount,
		City:                 rec.City,
		Notes:                notes,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
