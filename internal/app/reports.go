package app

import (
	"fmt"
	"path/filepath"
	"strconv"

	"wbbdata/schoolmap/schoolmap"
)

// writeCurationReports emits the three review files curators work from:
// every distinct school with its extracted metadata, the variant clusters
// that were collapsed, and the names the run could not place.
func writeCurationReports(dir string, records []schoolmap.SchoolRecord, report *schoolmap.RunReport) error {
	if err := writeUniqueSchools(filepath.Join(dir, "unique_schools.csv"), records); err != nil {
		return err
	}
	if err := writeDuplicateClusters(filepath.Join(dir, "potential_duplicates.csv"), report.Clusters); err != nil {
		return err
	}
	return writeUnmapped(filepath.Join(dir, "unmapped_schools.csv"), report.Unmapped)
}

func writeUniqueSchools(path string, records []schoolmap.SchoolRecord) error {
	table := schoolmap.Table{
		Header: []string{"school", "state", "city", "country", "player_count", "type", "disambiguator", "common_name"},
	}
	for _, rec := range records {
		table.Rows = append(table.Rows, []string{
			rec.Original,
			rec.State,
			rec.City,
			rec.Country,
			strconv.Itoa(rec.PlayerCount),
			string(rec.Type),
			rec.Disambiguator,
			strconv.FormatBool(rec.CommonName),
		})
	}
	if err := schoolmap.WriteTable(path, table); err != nil {
		return fmt.Errorf("write unique schools report: %w", err)
	}
	return nil
}

func writeDuplicateClusters(path string, clusters []schoolmap.Cluster) error {
	table := schoolmap.Table{
		Header: []string{"normalized_key", "canonical", "variant", "player_count"},
	}
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			table.Rows = append(table.Rows, []string{
				cluster.Key,
				cluster.Canonical,
				member.Original,
				strconv.Itoa(member.PlayerCount),
			})
		}
	}
	if err := schoolmap.WriteTable(path, table); err != nil {
		return fmt.Errorf("write duplicate clusters report: %w", err)
	}
	return nil
}

func writeUnmapped(path string, unmapped []schoolmap.MappingRecord) error {
	table := schoolmap.Table{
		Header: []string{"school", "state", "city", "player_count", "notes"},
	}
	for _, rec := range unmapped {
		table.Rows = append(table.Rows, []string{
			rec.Original,
			rec.State,
			rec.City,
			strconv.Itoa(rec.PlayerCount),
			rec.Notes,
		})
	}
	if err := schoolmap.WriteTable(path, table); err != nil {
		return fmt.Errorf("write unmapped schools report: %w", err)
	}
	return nil
}
