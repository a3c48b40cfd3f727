package schoolmap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// SQLiteStore keeps the mapping table in an embedded SQLite database. The
// merge-precedence contract is identical to the CSV store; only the storage
// changes. The primary key on the original name enforces the one-row-per-
// input invariant at the schema level.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath and runs the
// schema migration. busy_timeout avoids "database locked" errors when report
// tooling reads the table while a run is in flight.
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mapping database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mapping database: %w", err)
	}
	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate mapping database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS high_school_mappings (
		high_school_original TEXT PRIMARY KEY,
		high_school_standardized TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT '',
		confidence TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		nces_id TEXT NOT NULL DEFAULT '',
		player_count INTEGER NOT NULL DEFAULT 0,
		canonical_player_count INTEGER NOT NULL DEFAULT 0,
		city TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_mappings_standardized
		ON high_school_mappings(high_school_standardized);
	CREATE INDEX IF NOT EXISTS idx_mappings_confidence
		ON high_school_mappings(confidence);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the whole mapping table ordered by original name.
func (s *SQLiteStore) Load(ctx context.Context) ([]MappingRecord, error) {
	query := `
	SELECT high_school_original, high_school_standardized, state, confidence,
	       source, nces_id, player_count, canonical_player_count, city, notes
	FROM high_school_mappings
	ORDER BY high_school_original
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query mapping table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []MappingRecord
	for rows.Next() {
		var rec MappingRecord
		var label string
		if err := rows.Scan(
			&rec.Original, &rec.Standardized, &rec.State, &label,
			&rec.Source, &rec.NCESID, &rec.PlayerCount, &rec.CanonicalPlayerCount,
			&rec.City, &rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan mapping row: %w", err)
		}
		conf, known := ParseConfidence(label)
		if !known {
			s.logger.Warn().
				Str("original", rec.Original).
				Str("label", label).
				Msg("unknown confidence label, treating as unstandardized")
		}
		rec.Confidence = conf
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save replaces the whole table inside one transaction, mirroring the
// read-then-write-whole discipline of the CSV store.
func (s *SQLiteStore) Save(ctx context.Context, records []MappingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mapping save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM high_school_mappings`); err != nil {
		return fmt.Errorf("clear mapping table: %w", err)
	}
	insert := `
	INSERT INTO high_school_mappings (
		high_school_original, high_school_standardized, state, confidence,
		source, nces_id, player_count, canonical_player_count, city, notes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, insert,
			rec.Original, rec.Standardized, rec.State, string(rec.Confidence),
			rec.Source, rec.NCESID, rec.PlayerCount, rec.CanonicalPlayerCount,
			rec.City, rec.Notes,
		); err != nil {
			return fmt.Errorf("insert mapping row: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
