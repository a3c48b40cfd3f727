package schoolmap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RosterParseOptions allows callers to choose which CSV columns map to roster
// fields. Empty fields fall back to candidate auto-detection.
type RosterParseOptions struct {
	SchoolColumn  string
	StateColumn   string
	CityColumn    string
	CountryColumn string
}

// RosterRow is one roster line reduced to the fields the engine cares about.
type RosterRow struct {
	School  string
	State   string
	City    string
	Country string
}

// Table is a raw delimited file: header plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable loads a CSV or TSV file without interpreting its columns.
func ReadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("empty file %s", filepath.Base(path))
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	return Table{Header: header, Rows: rows[1:]}, nil
}

// WriteTable writes a table as CSV.
func WriteTable(path string, table Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ParseRosterFile reads one roster CSV/TSV and extracts the school, state,
// city and country columns. The school column is required; a roster file
// without one is a configuration problem, reported immediately. The other
// columns are optional and empty when absent.
func ParseRosterFile(path string, opts RosterParseOptions) ([]RosterRow, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	candidates := getColumnCandidates()
	schoolCol, err := resolveRequiredColumn(table.Header, opts.SchoolColumn, candidates.School)
	if err != nil {
		return nil, fmt.Errorf("%s: locate school column: %w", filepath.Base(path), err)
	}
	stateCol, err := resolveColumn(table.Header, opts.StateColumn, candidates.State)
	if err != nil {
		return nil, fmt.Errorf("%s: locate state column: %w", filepath.Base(path), err)
	}
	cityCol, err := resolveColumn(table.Header, opts.CityColumn, candidates.City)
	if err != nil {
		return nil, fmt.Errorf("%s: locate city column: %w", filepath.Base(path), err)
	}
	countryCol, err := resolveColumn(table.Header, opts.CountryColumn, candidates.Country)
	if err != nil {
		return nil, fmt.Errorf("%s: locate country column: %w", filepath.Base(path), err)
	}

	rows := make([]RosterRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		r := RosterRow{School: cellAt(row, schoolCol)}
		if r.School == "" {
			continue
		}
		r.State = cellAt(row, stateCol)
		r.City = cellAt(row, cityCol)
		r.Country = cellAt(row, countryCol)
		rows = append(rows, r)
	}
	return rows, nil
}

// ExtractSchools aggregates roster rows into one record per distinct school
// text: player-season counts, the modal state and country, the parenthetical
// disambiguator, a type bucket and a common-name flag. Output is sorted by
// player count descending so curation files lead with the names that matter.
func ExtractSchools(rows []RosterRow, domesticCountry string) []SchoolRecord {
	type agg struct {
		count     int
		states    map[string]int
		cities    map[string]int
		countries map[string]int
	}
	byName := make(map[string]*agg)
	for _, row := range rows {
		a, ok := byName[row.School]
		if !ok {
			a = &agg{
				states:    make(map[string]int),
				cities:    make(map[string]int),
				countries: make(map[string]int),
			}
			byName[row.School] = a
		}
		a.count++
		if row.State != "" {
			a.states[row.State]++
		}
		if row.City != "" {
			a.cities[row.City]++
		}
		if row.Country != "" {
			a.countries[row.Country]++
		}
	}

	records := make([]SchoolRecord, 0, len(byName))
	for name, a := range byName {
		country := modalValue(a.countries)
		rec := SchoolRecord{
			Original:      name,
			City:          modalValue(a.cities),
			State:         modalValue(a.states),
			Country:       country,
			PlayerCount:   a.count,
			Disambiguator: ExtractDisambiguator(name),
			Type:          CategorizeSchoolType(name, country, domesticCountry),
			CommonName:    IsLikelyCommonName(Normalize(name)),
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].PlayerCount != records[j].PlayerCount {
			return records[i].PlayerCount > records[j].PlayerCount
		}
		return records[i].Original < records[j].Original
	})
	return records
}

// overrideColumns maps curation-sheet headers to override fields. Curators
// work in spreadsheets, so both the canonical names and a few informal
// spellings are accepted.
var overrideColumns = map[string][]string{
	"original":     {"high_school_original", "original", "school", "raw_name"},
	"standardized": {"high_school_standardized", "standardized", "canonical", "standard_name"},
	"state":        {"state", "st"},
	"city":         {"city"},
	"nces_id":      {"nces_id", "ncesid", "nces"},
	"notes":        {"notes", "note", "comment"},
}

// ParseOverrides loads a manual override table from a CSV, TSV or Excel
// workbook. Every row becomes a manual-confidence mapping record; the
// original and standardized columns are required.
func ParseOverrides(path string) ([]MappingRecord, error) {
	var table Table
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		table, err = readWorkbookTable(path)
	} else {
		table, err = ReadTable(path)
	}
	if err != nil {
		return nil, err
	}
	return overridesFromTable(path, table)
}

func overridesFromTable(path string, table Table) ([]MappingRecord, error) {
	find := func(field string) int {
		return findColumn(table.Header, overrideColumns[field])
	}
	originalCol := find("original")
	standardizedCol := find("standardized")
	if originalCol < 0 || standardizedCol < 0 {
		return nil, fmt.Errorf("%s: override table needs original and standardized columns", filepath.Base(path))
	}
	stateCol, cityCol := find("state"), find("city")
	ncesCol, notesCol := find("nces_id"), find("notes")

	records := make([]MappingRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		original := cellAt(row, originalCol)
		standardized := cellAt(row, standardizedCol)
		if original == "" || standardized == "" {
			continue
		}
		records = append(records, MappingRecord{
			Original:     original,
			Standardized: standardized,
			State:        cellAt(row, stateCol),
			Confidence:   ConfidenceManual,
			Source:       SourceManual,
			NCESID:       cellAt(row, ncesCol),
			City:         cellAt(row, cityCol),
			Notes:        cellAt(row, notesCol),
		})
	}
	return records, nil
}

// OverrideIndex converts manual mapping records into the matcher's override
// lookup, keyed by exact original text.
func OverrideIndex(records []MappingRecord) map[string]ManualOverride {
	idx := make(map[string]ManualOverride, len(records))
	for _, rec := range records {
		if rec.Original == "" {
			continue
		}
		if _, ok := idx[rec.Original]; ok {
			continue
		}
		idx[rec.Original] = ManualOverride{
			Standardized: rec.Standardized,
			State:        rec.State,
			City:         rec.City,
			NCESID:       rec.NCESID,
			Notes:        rec.Notes,
		}
	}
	return idx
}

func readWorkbookTable(path string) (Table, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("%s: workbook has no sheets", filepath.Base(path))
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return Table{}, errors.New("empty workbook sheet")
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	return Table{Header: header, Rows: rows[1:]}, nil
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return cleanCell(row[col])
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

// modalValue returns the most frequent value, breaking ties toward the
// lexicographically smaller one so extraction is order independent.
func modalValue(counts map[string]int) string {
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && (best == "" || v < best)) {
			best, bestCount = v, n
		}
	}
	return best
}
