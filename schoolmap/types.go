package schoolmap

// SchoolType buckets raw school names for curation routing.
type SchoolType string

const (
	// SchoolPublic covers names that look like regular public high schools.
	SchoolPublic SchoolType = "public"
	// SchoolPrep covers prep schools and academies, which need manual curation.
	SchoolPrep SchoolType = "prep"
	// SchoolInternational covers schools outside the domestic country.
	SchoolInternational SchoolType = "international"
	// SchoolUnknown is everything the heuristics cannot place.
	SchoolUnknown SchoolType = "unknown"
)

// SchoolRecord is one distinct raw school name extracted from roster files,
// together with the metadata aggregated across every row that carried it.
// Records are derived fresh each run and never persisted directly.
type SchoolRecord struct {
	Original      string
	City          string
	State         string
	Country       string
	PlayerCount   int
	Disambiguator string
	Type          SchoolType
	CommonName    bool
}

// Cluster groups raw name variants that share one normalized key. Canonical is
// always one of the member surface forms, never a synthesized string.
type Cluster struct {
	Key       string
	Members   []SchoolRecord
	Canonical string
}

// TotalPlayers sums the player counts across every member of the cluster.
func (c Cluster) TotalPlayers() int {
	total := 0
	for _, m := range c.Members {
		total += m.PlayerCount
	}
	return total
}

// ReferenceEntry is one school from the external NCES directory. Entries are
// immutable for the lifetime of a run. Multiple entries may share a Key; the
// state column exists to disambiguate them.
type ReferenceEntry struct {
	NCESID string
	Name   string
	City   string
	State  string
	Key    string
}
