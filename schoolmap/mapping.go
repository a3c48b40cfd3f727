package schoolmap

// Confidence labels how a standardized name was derived. The values are the
// wire labels written to the persisted mapping table.
type Confidence string

const (
	// ConfidenceManual marks hand-curated mappings. Ground truth.
	ConfidenceManual Confidence = "high_manual"
	// ConfidenceAutoDuplicate marks mappings derived from duplicate clustering.
	ConfidenceAutoDuplicate Confidence = "high_auto"
	// ConfidenceReferenceExact marks exact matches against the NCES directory.
	ConfidenceReferenceExact Confidence = "medium_nces"
	// ConfidenceReferenceFuzzy marks similarity matches against the NCES directory.
	ConfidenceReferenceFuzzy Confidence = "low_fuzzy"
	// ConfidenceInternational marks non-domestic schools preserved verbatim.
	ConfidenceInternational Confidence = "international"
	// ConfidenceUnmapped marks identity mappings for names nothing could resolve.
	ConfidenceUnmapped Confidence = "unstandardized"
)

// rank orders confidence tiers for merge precedence. Manual curation beats the
// official directory, which beats duplicate resolution, which beats fuzzy
// matching. International passthrough and unmapped sit at the bottom.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceManual:
		return 5
	case ConfidenceReferenceExact:
		return 4
	case ConfidenceAutoDuplicate:
		return 3
	case ConfidenceReferenceFuzzy:
		return 2
	case ConfidenceInternational:
		return 1
	default:
		return 0
	}
}

// Supersedes reports whether a record at this confidence may replace one at
// the other confidence during a merge. Equal confidence never supersedes, so
// re-derived but equivalent records cause no churn.
func (c Confidence) Supersedes(other Confidence) bool {
	return c.rank() > other.rank()
}

// ParseConfidence maps a wire label back to a Confidence. Unknown labels
// report ok=false and fall back to unmapped, which keeps a corrupted table
// loadable.
func ParseConfidence(label string) (Confidence, bool) {
	switch Confidence(label) {
	case ConfidenceManual, ConfidenceAutoDuplicate, ConfidenceReferenceExact,
		ConfidenceReferenceFuzzy, ConfidenceInternational, ConfidenceUnmapped:
		return Confidence(label), true
	}
	return ConfidenceUnmapped, false
}

// MappingRecord is one row of the persisted mapping table: the standardized
// form chosen for one distinct original name, plus provenance.
type MappingRecord struct {
	Original             string
	Standardized         string
	State                string
	Confidence           Confidence
	Source               string
	NCESID               string
	PlayerCount          int
	CanonicalPlayerCount int
	City                 string
	Notes                string
}

// Identity reports whether the record maps a name onto itself.
func (m MappingRecord) Identity() bool {
	return m.Original == m.Standardized
}
