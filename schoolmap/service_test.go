package schoolmap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, Store) {
	t.Helper()
	store := NewCSVStore(filepath.Join(t.TempDir(), "mapping.csv"), zerolog.Nop())
	svc, err := NewService(Config{}, store, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, store
}

func serviceFixtureRecords() []SchoolRecord {
	rows := []RosterRow{
		{School: "Central High School", State: "OH", Country: "USA"},
		{School: "Central High School", State: "OH", Country: "USA"},
		{School: "Central High School", State: "OH", Country: "USA"},
		{School: "Central HS", State: "OH", Country: "USA"},
		{School: "Crestwood Prep", City: "Toronto", Country: "Canada"},
		{School: "Zzyzx Collegiate", State: "CA", Country: "USA"},
	}
	return ExtractSchools(rows, "USA")
}

func TestServiceRunEndToEnd(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	report, err := svc.Run(ctx, serviceFixtureRecords())
	require.NoError(t, err)

	require.Equal(t, 4, report.TotalSchools)
	require.Equal(t, 6, report.TotalPlayers)
	require.Len(t, report.Clusters, 1)
	require.Equal(t, "Central High School", report.Clusters[0].Canonical)

	require.Equal(t, 2, report.ByConfidence[ConfidenceAutoDuplicate])
	require.Equal(t, 1, report.ByConfidence[ConfidenceInternational])
	require.Equal(t, 1, report.ByConfidence[ConfidenceUnmapped])
	require.Equal(t, 3, report.MappedSchools)
	require.Equal(t, 5, report.MappedPlayers)
	require.InDelta(t, 0.75, report.SchoolCoverage(), 1e-9)
	require.InDelta(t, 5.0/6.0, report.PlayerCoverage(), 1e-9)

	require.Len(t, report.Unmapped, 1)
	require.Equal(t, "Zzyzx Collegiate", report.Unmapped[0].Original)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 4)
}

func TestServiceRunIsRepeatable(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	records := serviceFixtureRecords()

	_, err := svc.Run(ctx, records)
	require.NoError(t, err)
	first, err := store.Load(ctx)
	require.NoError(t, err)

	_, err = svc.Run(ctx, records)
	require.NoError(t, err)
	second, err := store.Load(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("re-running the same input changed the table:\n%s", diff)
	}
}

func TestServiceRunOverridesSurviveRerun(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	svc.SetOverrides([]MappingRecord{{
		Original:     "Zzyzx Collegiate",
		Standardized: "Zzyzx Collegiate School",
		Confidence:   ConfidenceManual,
		Source:       SourceManual,
	}})
	_, err := svc.Run(ctx, serviceFixtureRecords())
	require.NoError(t, err)

	// A later run without the override table must not downgrade the manual row.
	svc.SetOverrides(nil)
	_, err = svc.Run(ctx, serviceFixtureRecords())
	require.NoError(t, err)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	byOriginal := make(map[string]MappingRecord)
	for _, rec := range persisted {
		byOriginal[rec.Original] = rec
	}
	rec := byOriginal["Zzyzx Collegiate"]
	require.Equal(t, ConfidenceManual, rec.Confidence)
	require.Equal(t, "Zzyzx Collegiate School", rec.Standardized)
}

func TestServiceRunWithReference(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	svc.SetReference([]ReferenceEntry{
		{NCESID: "390001", Name: "Riverview Gardens High School", City: "Dayton", State: "OH"},
	})

	rows := []RosterRow{
		{School: "Riverview Gardens HS", State: "OH", Country: "USA"},
	}
	report, err := svc.Run(ctx, ExtractSchools(rows, "USA"))
	require.NoError(t, err)
	require.Equal(t, 1, report.ByConfidence[ConfidenceReferenceExact])

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	require.Equal(t, "Riverview Gardens High School", persisted[0].Standardized)
	require.Equal(t, "390001", persisted[0].NCESID)
}

func TestServiceConfigUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	cfg := svc.Config()
	cfg.Match.SimilarityThreshold = 0.95
	svc.UpdateConfig(cfg)
	require.Equal(t, 0.95, svc.Config().Match.SimilarityThreshold)
}
