package schoolmap

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Equal(t, "USA", cfg.DomesticCountry)
	require.Equal(t, 0.9, cfg.Match.SimilarityThreshold)
	require.Equal(t, 0.02, cfg.Match.AmbiguityMargin)
	require.Equal(t, "csv", cfg.Store.Backend)
	require.NotEmpty(t, cfg.Store.Path)
	require.NotEmpty(t, cfg.Reference.BaseURL)
	require.NotZero(t, cfg.Reference.Year)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Config{
		DomesticCountry: "USA",
		Match:           MatchConfig{SimilarityThreshold: 0.85, AmbiguityMargin: 0.05},
		Store:           StoreConfig{Backend: "sqlite", Path: "data/mapping.db"},
	}
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", loaded.Store.Backend)
	require.Equal(t, 0.85, loaded.Match.SimilarityThreshold)
	require.Equal(t, 0.05, loaded.Match.AmbiguityMargin)
	// Defaults fill the sections the file left out.
	require.NotEmpty(t, loaded.Reference.BaseURL)
}

func TestConfigCloneIsDeep(t *testing.T) {
	cfg := Config{Columns: ColumnCandidates{School: []string{"school"}}}
	clone := cfg.Clone()
	clone.Columns.School[0] = "changed"
	if diff := cmp.Diff([]string{"school"}, cfg.Columns.School); diff != "" {
		t.Fatalf("clone shares state with the original:\n%s", diff)
	}
}

func TestColumnCandidatesPartialOverride(t *testing.T) {
	t.Cleanup(func() { SetColumnCandidates(DefaultColumnCandidates()) })

	SetColumnCandidates(ColumnCandidates{School: []string{"roster_school"}})
	active := getColumnCandidates()
	require.Equal(t, []string{"roster_school"}, active.School)
	// Fields left nil keep the built-in candidates.
	require.Equal(t, DefaultColumnCandidates().State, active.State)
}
