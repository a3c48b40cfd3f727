package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"wbbdata/schoolmap/schoolmap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T, dir string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.json")
	cfg := schoolmap.Config{
		Store:     schoolmap.StoreConfig{Backend: "csv", Path: filepath.Join(dir, "data", "mapping.csv")},
		Reference: schoolmap.ReferenceConfig{CachePath: filepath.Join(dir, "data", "nces.csv")},
	}
	require.NoError(t, schoolmap.SaveConfig(cfgPath, cfg))
	return cfgPath
}

func TestRunBuildsMappingAndReports(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfig(t, dir)
	writeFile(t, filepath.Join(dir, "rosters", "2021.csv"),
		"player,high_school,homestate,country_clean\n"+
			"Ann,Central High School,OH,USA\n"+
			"Beth,Central HS,OH,USA\n"+
			"Cara,Zzyzx Collegiate,CA,USA\n")
	writeFile(t, filepath.Join(dir, "rosters", "2022.csv"),
		"player,high_school,homestate,country_clean\n"+
			"Dana,Central High School,OH,USA\n")

	err := Run(context.Background(), Options{
		ConfigPath: cfgPath,
		RosterGlob: filepath.Join(dir, "rosters", "*.csv"),
		OutputDir:  filepath.Join(dir, "reports"),
	})
	require.NoError(t, err)

	mapping, err := os.ReadFile(filepath.Join(dir, "data", "mapping.csv"))
	require.NoError(t, err)
	require.Contains(t, string(mapping), "Central HS,Central High School")
	require.Contains(t, string(mapping), "high_auto")

	for _, name := range []string{"unique_schools.csv", "potential_duplicates.csv", "unmapped_schools.csv"} {
		_, err := os.Stat(filepath.Join(dir, "reports", name))
		require.NoError(t, err, "missing report %s", name)
	}
	unmapped, err := os.ReadFile(filepath.Join(dir, "reports", "unmapped_schools.csv"))
	require.NoError(t, err)
	require.Contains(t, string(unmapped), "Zzyzx Collegiate")
}

func TestRunApplyStandardizesRoster(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfig(t, dir)
	writeFile(t, filepath.Join(dir, "rosters", "2021.csv"),
		"player,high_school,homestate,country_clean\n"+
			"Ann,Central High School,OH,USA\n"+
			"Beth,Central HS,OH,USA\n")

	require.NoError(t, Run(context.Background(), Options{
		ConfigPath: cfgPath,
		RosterGlob: filepath.Join(dir, "rosters", "*.csv"),
	}))

	applyInput := filepath.Join(dir, "target.csv")
	writeFile(t, applyInput, "player,high_school\nEve,Central HS\n")

	require.NoError(t, Run(context.Background(), Options{
		ConfigPath: cfgPath,
		ApplyPath:  applyInput,
	}))

	out, err := os.ReadFile(filepath.Join(dir, "target_standardized.csv"))
	require.NoError(t, err)
	content := string(out)
	require.Contains(t, content, "high_school_standardized")
	require.True(t, strings.Contains(content, "Eve,Central HS,Central High School,high_auto,true"), "unexpected output:\n%s", content)
}

func TestRunOverridesBeatClustering(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfig(t, dir)
	writeFile(t, filepath.Join(dir, "rosters", "2021.csv"),
		"player,high_school,homestate,country_clean\n"+
			"Ann,Central High School,OH,USA\n"+
			"Beth,Central HS,OH,USA\n")
	writeFile(t, filepath.Join(dir, "overrides.csv"),
		"high_school_original,high_school_standardized,state\n"+
			"Central HS,Central High School (Columbus),OH\n")

	require.NoError(t, Run(context.Background(), Options{
		ConfigPath:    cfgPath,
		RosterGlob:    filepath.Join(dir, "rosters", "*.csv"),
		OverridesPath: filepath.Join(dir, "overrides.csv"),
	}))

	mapping, err := os.ReadFile(filepath.Join(dir, "data", "mapping.csv"))
	require.NoError(t, err)
	require.Contains(t, string(mapping), "Central High School (Columbus)")
	require.Contains(t, string(mapping), "high_manual")
}

func TestRunRejectsEmptyInvocation(t *testing.T) {
	err := Run(context.Background(), Options{ConfigPath: testConfig(t, t.TempDir())})
	require.Error(t, err)
}

func TestRunRejectsGlobWithoutMatches(t *testing.T) {
	dir := t.TempDir()
	err := Run(context.Background(), Options{
		ConfigPath: testConfig(t, dir),
		RosterGlob: filepath.Join(dir, "nowhere", "*.csv"),
	})
	require.Error(t, err)
}
