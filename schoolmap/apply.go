package schoolmap

import (
	"fmt"
	"strings"
)

// Columns appended by ApplyToTable, in order.
var appliedColumns = []string{"high_school_standardized", "standardization_confidence", "high_school_changed"}

// CoverageReport summarizes how much of a roster the mapping table covers.
type CoverageReport struct {
	TotalRows    int
	NamedRows    int
	Standardized int
	Changed      int
}

// Coverage returns the fraction of rows with a name whose confidence is
// something better than unstandardized.
func (r CoverageReport) Coverage() float64 {
	if r.NamedRows == 0 {
		return 0
	}
	return float64(r.Standardized) / float64(r.NamedRows)
}

// AppliedTable is a roster table with the standardization columns appended.
type AppliedTable struct {
	Header   []string
	Rows     [][]string
	Coverage CoverageReport
}

// ApplyToTable left-joins a roster table against the mapping set by original
// school name. Three columns are appended: the standardized name, the
// confidence label, and a changed flag. The original column is never
// modified. Rows whose names the matcher has never seen get the identity
// standardization at the unstandardized label.
//
// schoolColumn may be a header name, a 1-based "#N" position, or empty to
// auto-detect via the column candidates. Failure to locate the column is a
// configuration error and reported up front.
func ApplyToTable(header []string, rows [][]string, schoolColumn string, mappings []MappingRecord) (AppliedTable, error) {
	col, err := resolveRequiredColumn(header, schoolColumn, getColumnCandidates().School)
	if err != nil {
		return AppliedTable{}, fmt.Errorf("locate school column: %w", err)
	}

	byOriginal := make(map[string]MappingRecord, len(mappings))
	for _, m := range mappings {
		if _, ok := byOriginal[m.Original]; !ok {
			byOriginal[m.Original] = m
		}
	}

	out := AppliedTable{
		Header: append(append([]string{}, header...), appliedColumns...),
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		name := ""
		if col < len(row) {
			name = strings.TrimSpace(row[col])
		}
		standardized, label := "", ""
		changed := false
		if name != "" {
			out.Coverage.NamedRows++
			if m, ok := byOriginal[name]; ok {
				standardized = m.Standardized
				label = string(m.Confidence)
			} else {
				standardized = name
				label = string(ConfidenceUnmapped)
			}
			if label != string(ConfidenceUnmapped) {
				out.Coverage.Standardized++
			}
			changed = standardized != "" && standardized != name
			if changed {
				out.Coverage.Changed++
			}
		}
		out.Coverage.TotalRows++
		joined := append(append([]string{}, row...), standardized, label, boolCell(changed))
		out.Rows = append(out.Rows, joined)
	}
	return out, nil
}

func boolCell(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
