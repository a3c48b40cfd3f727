package nces

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wbbdata/schoolmap/schoolmap"
)

// columnAliases maps canonical reference fields to the header spellings seen
// across NCES exports, Urban Institute dumps and hand-saved copies. Unknown
// columns are ignored; missing required columns fail at load time.
var columnAliases = map[string][]string{
	"nces_id": {"nces_school_id", "ncessch", "nces_id", "ncesid", "school_id"},
	"name":    {"school_name", "sch_name", "name"},
	"city":    {"city_location", "city", "lcity", "mcity"},
	"state":   {"state_location", "state", "st", "stabr", "lstate"},
}

var cacheHeader = []string{"nces_school_id", "school_name", "city", "state"}

// LoadCSV reads reference entries from a local directory export. The file
// may come from any of the known sources; the alias table absorbs their
// header differences.
func LoadCSV(path string) ([]schoolmap.ReferenceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty reference file %s", filepath.Base(path))
	}

	cols, err := resolveAliases(rows[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	entries := make([]schoolmap.ReferenceEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cell(row, cols["name"])
		if name == "" {
			continue
		}
		entries = append(entries, schoolmap.ReferenceEntry{
			NCESID: cell(row, cols["nces_id"]),
			Name:   name,
			City:   cell(row, cols["city"]),
			State:  cell(row, cols["state"]),
			Key:    schoolmap.Normalize(name),
		})
	}
	return entries, nil
}

// WriteCSV caches reference entries locally so later runs work offline.
func WriteCSV(path string, entries []schoolmap.ReferenceEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(cacheHeader); err != nil {
		return fmt.Errorf("write cache header: %w", err)
	}
	for _, e := range entries {
		if err := writer.Write([]string{e.NCESID, e.Name, e.City, e.State}); err != nil {
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush cache file: %w", err)
	}
	return nil
}

// resolveAliases maps each canonical field to its column position. The name
// and state fields are required; identifiers and cities may be absent in
// older exports.
func resolveAliases(header []string) (map[string]int, error) {
	normalized := make([]string, len(header))
	for i, raw := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
	}
	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		cols[field] = -1
		for _, alias := range aliases {
			for i, name := range normalized {
				if name == alias {
					cols[field] = i
					break
				}
			}
			if cols[field] >= 0 {
				break
			}
		}
	}
	for _, required := range []string{"name", "state"} {
		if cols[required] < 0 {
			return nil, fmt.Errorf("reference file missing a %s column (tried %v)", required, columnAliases[required])
		}
	}
	return cols, nil
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
