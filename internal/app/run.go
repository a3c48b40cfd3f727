// Package app wires the standardization pipeline together: configuration,
// logging, the mapping store, the reference directory and the roster files.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"wbbdata/schoolmap/internal/nces"
	"wbbdata/schoolmap/schoolmap"
)

// Options selects what one invocation does. RosterGlob drives a mapping
// build; ApplyPath standardizes an arbitrary roster file against the stored
// table. Both may be set in one run.
type Options struct {
	ConfigPath     string
	RosterGlob     string
	RosterOpts     schoolmap.RosterParseOptions
	OverridesPath  string
	ReferencePath  string
	FetchReference bool
	OutputDir      string
	ApplyPath      string
	ApplyOutput    string
	ApplyColumn    string
	Verbose        bool
}

// Run executes one pipeline invocation end to end.
func Run(ctx context.Context, opts Options) error {
	logger := newLogger(opts.Verbose)

	cfg, err := schoolmap.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	schoolmap.SetColumnCandidates(cfg.Columns)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	svc, err := schoolmap.NewService(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	defer svc.Close()

	svc.SetReference(loadReference(ctx, cfg, opts, logger))

	if opts.OverridesPath != "" {
		overrides, err := schoolmap.ParseOverrides(opts.OverridesPath)
		if err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
		svc.SetOverrides(overrides)
	}

	if opts.RosterGlob != "" {
		if err := buildMapping(ctx, svc, cfg, opts, logger); err != nil {
			return err
		}
	}

	if opts.ApplyPath != "" {
		if err := applyMapping(ctx, store, opts, logger); err != nil {
			return err
		}
	}

	if opts.RosterGlob == "" && opts.ApplyPath == "" {
		return errors.New("nothing to do: need a roster glob or a file to standardize")
	}
	return nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func openStore(cfg schoolmap.Config, logger zerolog.Logger) (schoolmap.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	switch cfg.Store.Backend {
	case "csv":
		return schoolmap.NewCSVStore(cfg.Store.Path, logger), nil
	case "sqlite":
		return schoolmap.NewSQLiteStore(cfg.Store.Path, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// loadReference obtains NCES directory entries from the API, an explicit
// file, or the local cache, in that priority order. Any failure logs a
// warning and returns fewer entries; the run continues either way.
func loadReference(ctx context.Context, cfg schoolmap.Config, opts Options, logger zerolog.Logger) []schoolmap.ReferenceEntry {
	if opts.FetchReference {
		client := nces.NewClient(cfg.Reference, logger)
		entries, err := client.FetchDirectory(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("nces download incomplete")
		}
		if len(entries) > 0 {
			if err := nces.WriteCSV(cfg.Reference.CachePath, entries); err != nil {
				logger.Warn().Err(err).Msg("could not cache nces directory")
			}
			return entries
		}
	}
	path := opts.ReferencePath
	if path == "" {
		path = cfg.Reference.CachePath
	}
	entries, err := nces.LoadCSV(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || opts.ReferencePath != "" {
			logger.Warn().Str("path", path).Err(err).Msg("reference directory unavailable")
		}
		return nil
	}
	return entries
}

func buildMapping(ctx context.Context, svc *schoolmap.Service, cfg schoolmap.Config, opts Options, logger zerolog.Logger) error {
	paths, err := filepath.Glob(opts.RosterGlob)
	if err != nil {
		return fmt.Errorf("bad roster glob: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no roster files match %q", opts.RosterGlob)
	}

	var rows []schoolmap.RosterRow
	for _, path := range paths {
		fileRows, err := schoolmap.ParseRosterFile(path, opts.RosterOpts)
		if err != nil {
			return fmt.Errorf("parse roster: %w", err)
		}
		logger.Info().Str("file", filepath.Base(path)).Int("rows", len(fileRows)).Msg("roster file read")
		rows = append(rows, fileRows...)
	}

	records := schoolmap.ExtractSchools(rows, cfg.DomesticCountry)
	logger.Info().Int("entries", len(rows)).Int("schools", len(records)).Msg("schools extracted")

	report, err := svc.Run(ctx, records)
	if err != nil {
		return err
	}
	if opts.OutputDir != "" {
		if err := writeCurationReports(opts.OutputDir, records, report); err != nil {
			return err
		}
	}
	return nil
}

func applyMapping(ctx context.Context, store schoolmap.Store, opts Options, logger zerolog.Logger) error {
	mappings, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load mapping table: %w", err)
	}
	table, err := schoolmap.ReadTable(opts.ApplyPath)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}
	applied, err := schoolmap.ApplyToTable(table.Header, table.Rows, opts.ApplyColumn, mappings)
	if err != nil {
		return err
	}

	out := opts.ApplyOutput
	if out == "" {
		ext := filepath.Ext(opts.ApplyPath)
		out = opts.ApplyPath[:len(opts.ApplyPath)-len(ext)] + "_standardized.csv"
	}
	if err := schoolmap.WriteTable(out, schoolmap.Table{Header: applied.Header, Rows: applied.Rows}); err != nil {
		return err
	}
	logger.Info().
		Str("output", out).
		Int("rows", applied.Coverage.TotalRows).
		Int("changed", applied.Coverage.Changed).
		Float64("coverage", applied.Coverage.Coverage()).
		Msg("roster standardized")
	return nil
}
