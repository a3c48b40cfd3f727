package schoolmap

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// mappingHeader is the persisted column order of the mapping table. Other
// tools consume this file; the order is part of the contract.
var mappingHeader = []string{
	"high_school_original",
	"high_school_standardized",
	"state",
	"confidence",
	"source",
	"nces_id",
	"player_count",
	"canonical_player_count",
	"city",
	"notes",
}

// Store persists the mapping table between runs. Implementations must treat
// Save as a whole-table replace; the merge step is the only writer and always
// works read-then-write-whole within one run.
type Store interface {
	Load(ctx context.Context) ([]MappingRecord, error)
	Save(ctx context.Context, records []MappingRecord) error
	Close() error
}

// CSVStore keeps the mapping table in a single CSV file, the durable artifact
// the rest of the tooling joins against. Saves go through a temp file and an
// atomic rename so a failed run never corrupts the previous table.
type CSVStore struct {
	path   string
	logger zerolog.Logger
}

// NewCSVStore creates a store backed by the CSV file at path. The file does
// not need to exist yet.
func NewCSVStore(path string, logger zerolog.Logger) *CSVStore {
	return &CSVStore{path: path, logger: logger}
}

// Load reads the mapping table. A missing file is an empty table, not an
// error. Duplicate original keys are resolved by confidence precedence with a
// warning; unknown confidence labels demote the row to unmapped.
func (s *CSVStore) Load(ctx context.Context) ([]MappingRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open mapping table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read mapping table: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols, err := mappingColumns(rows[0])
	if err != nil {
		return nil, err
	}
	records := make([]MappingRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := MappingRecord{
			Original:             cols.get(row, "high_school_original"),
			Standardized:         cols.get(row, "high_school_standardized"),
			State:                cols.get(row, "state"),
			Source:               cols.get(row, "source"),
			NCESID:               cols.get(row, "nces_id"),
			PlayerCount:          atoiOrZero(cols.get(row, "player_count")),
			CanonicalPlayerCount: atoiOrZero(cols.get(row, "canonical_player_count")),
			City:                 cols.get(row, "city"),
			Notes:                cols.get(row, "notes"),
		}
		if rec.Original == "" {
			continue
		}
		conf, known := ParseConfidence(cols.get(row, "confidence"))
		if !known {
			s.logger.Warn().
				Str("original", rec.Original).
				Str("label", cols.get(row, "confidence")).
				Msg("unknown confidence label, treating as unstandardized")
		}
		rec.Confidence = conf
		records = append(records, rec)
	}
	return Dedupe(records, s.logger), nil
}

// Save atomically replaces the mapping table with the given records.
func (s *CSVStore) Save(ctx context.Context, records []MappingRecord) error {
	pending, err := renameio.NewPendingFile(s.path)
	if err != nil {
		return fmt.Errorf("create pending mapping table: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			s.logger.Debug().Err(err).Msg("cleanup pending mapping table")
		}
	}()

	writer := csv.NewWriter(pending)
	if err := writer.Write(mappingHeader); err != nil {
		return fmt.Errorf("write mapping header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Original,
			rec.Standardized,
			rec.State,
			string(rec.Confidence),
			rec.Source,
			rec.NCESID,
			strconv.Itoa(rec.PlayerCount),
			strconv.Itoa(rec.CanonicalPlayerCount),
			rec.City,
			rec.Notes,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write mapping row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush mapping table: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace mapping table: %w", err)
	}
	return nil
}

// Close is a no-op for the file-backed store.
func (s *CSVStore) Close() error { return nil }

// columnIndex maps canonical mapping column names to their position in a
// loaded header. Unknown columns are ignored; the three structural columns
// are required up front so a malformed file fails at load, not mid-pipeline.
type columnIndex map[string]int

func mappingColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		if name == "" {
			continue
		}
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	for _, required := range []string{"high_school_original", "high_school_standardized", "confidence"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("mapping table missing column %q", required)
		}
	}
	return cols, nil
}

func (c columnIndex) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
