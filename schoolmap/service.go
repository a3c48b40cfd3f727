package schoolmap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Service runs the standardization pipeline: cluster the extracted schools,
// resolve each record through the matcher, merge the results into the
// persisted mapping table, and report coverage. One Run is one atomic unit;
// the merge step is the only writer to the store and is safe to repeat.
type Service struct {
	store  Store
	logger zerolog.Logger

	cfgMu sync.RWMutex
	cfg   Config

	idx       *ReferenceIndex
	overrides map[string]ManualOverride
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	TotalSchools  int
	TotalPlayers  int
	Clusters      []Cluster
	ByConfidence  map[Confidence]int
	MappedSchools int
	MappedPlayers int
	Resolved      []MappingRecord
	Unmapped      []MappingRecord
}

// SchoolCoverage is the fraction of schools resolved past unstandardized.
func (r RunReport) SchoolCoverage() float64 {
	if r.TotalSchools == 0 {
		return 0
	}
	return float64(r.MappedSchools) / float64(r.TotalSchools)
}

// PlayerCoverage is the player-season-weighted coverage fraction.
func (r RunReport) PlayerCoverage() float64 {
	if r.TotalPlayers == 0 {
		return 0
	}
	return float64(r.MappedPlayers) / float64(r.TotalPlayers)
}

// NewService constructs a pipeline service over the given store.
func NewService(cfg Config, store Store, logger zerolog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	cfg.ApplyDefaults()
	return &Service{
		store:     store,
		logger:    logger,
		cfg:       cfg,
		idx:       NewReferenceIndex(nil),
		overrides: map[string]ManualOverride{},
	}, nil
}

// Close releases the underlying store.
func (s *Service) Close() error { return s.store.Close() }

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration.
func (s *Service) UpdateConfig(cfg Config) {
	cfg.ApplyDefaults()
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// SetReference indexes the NCES directory entries for this run. An empty or
// nil slice leaves the reference tiers inert, which is how the pipeline
// degrades when the directory is unavailable.
func (s *Service) SetReference(entries []ReferenceEntry) {
	s.idx = NewReferenceIndex(entries)
	if s.idx.Empty() {
		s.logger.Warn().Msg("reference directory empty, nces tiers disabled")
		return
	}
	s.logger.Info().Int("entries", s.idx.Size()).Msg("reference directory indexed")
}

// SetOverrides installs the manual curation table.
func (s *Service) SetOverrides(records []MappingRecord) {
	s.overrides = OverrideIndex(records)
	s.logger.Info().Int("overrides", len(s.overrides)).Msg("manual overrides loaded")
}

// Run resolves the extracted school records, merges the outcome into the
// persisted mapping table and saves it. Data-quality problems never fail a
// run; only store I/O can.
func (s *Service) Run(ctx context.Context, records []SchoolRecord) (*RunReport, error) {
	cfg := s.Config()

	domestic := make([]SchoolRecord, 0, len(records))
	for _, rec := range records {
		if rec.Type != SchoolInternational {
			domestic = append(domestic, rec)
		}
	}
	clusters := BuildClusters(domestic)

	matcher := Matcher{
		Clusters:            ClusterIndex(clusters),
		Index:               s.idx,
		Overrides:           s.overrides,
		SimilarityThreshold: cfg.Match.SimilarityThreshold,
		AmbiguityMargin:     cfg.Match.AmbiguityMargin,
		DomesticCountry:     cfg.DomesticCountry,
	}
	resolved := matcher.ResolveAll(records)

	existing, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mapping table: %w", err)
	}
	merged := Merge(existing, resolved)
	if err := s.store.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("save mapping table: %w", err)
	}

	report := buildReport(records, clusters, resolved)
	s.logger.Info().
		Int("schools", report.TotalSchools).
		Int("players", report.TotalPlayers).
		Int("clusters", len(report.Clusters)).
		Int("mapped_schools", report.MappedSchools).
		Float64("school_coverage", report.SchoolCoverage()).
		Float64("player_coverage", report.PlayerCoverage()).
		Msg("standardization run complete")
	return report, nil
}

func buildReport(records []SchoolRecord, clusters []Cluster, resolved []MappingRecord) *RunReport {
	report := &RunReport{
		Clusters:     clusters,
		ByConfidence: make(map[Confidence]int),
		Resolved:     resolved,
	}
	for i, rec := range resolved {
		report.TotalSchools++
		report.TotalPlayers += records[i].PlayerCount
		report.ByConfidence[rec.Confidence]++
		if rec.Confidence != ConfidenceUnmapped {
			report.MappedSchools++
			report.MappedPlayers += records[i].PlayerCount
		} else {
			report.Unmapped = append(report.Unmapped, rec)
		}
	}
	sort.Slice(report.Unmapped, func(i, j int) bool {
		if report.Unmapped[i].PlayerCount != report.Unmapped[j].PlayerCount {
			return report.Unmapped[i].PlayerCount > report.Unmapped[j].PlayerCount
		}
		return report.Unmapped[i].Original < report.Unmapped[j].Original
	})
	return report
}
