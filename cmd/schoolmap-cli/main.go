package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"wbbdata/schoolmap/internal/app"
)

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("schoolmap-cli: %v", err)
	}
	if err := app.Run(context.Background(), opts); err != nil {
		log.Fatalf("schoolmap-cli: %v", err)
	}
}

func parseFlags() (app.Options, error) {
	var opts app.Options
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.RosterGlob, "rosters", "", "Glob of roster CSV/TSV files to build the mapping from")
	flag.StringVar(&opts.OverridesPath, "overrides", "", "Manual override table (CSV/TSV/XLSX)")
	flag.StringVar(&opts.ReferencePath, "reference", "", "NCES directory CSV (default: the configured cache)")
	flag.BoolVar(&opts.FetchReference, "fetch-reference", false, "Download the NCES directory before running")
	flag.StringVar(&opts.OutputDir, "output-dir", "", "Directory for curation reports (unique schools, duplicates, unmapped)")
	flag.StringVar(&opts.ApplyPath, "apply", "", "Roster file to standardize against the stored mapping table")
	flag.StringVar(&opts.ApplyOutput, "apply-output", "", "Output path for the standardized roster (default: <input>_standardized.csv)")
	flag.StringVar(&opts.ApplyColumn, "apply-column", "", "Column name or #index of the school column in the --apply file")
	flag.StringVar(&opts.RosterOpts.SchoolColumn, "school-column", "", "Column name or #index for the school column")
	flag.StringVar(&opts.RosterOpts.StateColumn, "state-column", "", "Column name or #index for the state column")
	flag.StringVar(&opts.RosterOpts.CityColumn, "city-column", "", "Column name or #index for the city column")
	flag.StringVar(&opts.RosterOpts.CountryColumn, "country-column", "", "Column name or #index for the country column")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --rosters GLOB [options]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "       %s --apply FILE [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.ConfigPath = strings.TrimSpace(opts.ConfigPath)
	opts.RosterGlob = strings.TrimSpace(opts.RosterGlob)
	opts.OverridesPath = strings.TrimSpace(opts.OverridesPath)
	opts.ReferencePath = strings.TrimSpace(opts.ReferencePath)
	opts.OutputDir = strings.TrimSpace(opts.OutputDir)
	opts.ApplyPath = strings.TrimSpace(opts.ApplyPath)
	opts.ApplyOutput = strings.TrimSpace(opts.ApplyOutput)

	if opts.RosterGlob == "" && opts.ApplyPath == "" {
		flag.Usage()
		return opts, errors.New("need --rosters or --apply")
	}
	return opts, nil
}
