package schoolmap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mapping.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	records := []MappingRecord{
		{
			Original:             "Central HS",
			Standardized:         "Central High School",
			State:                "MO",
			Confidence:           ConfidenceAutoDuplicate,
			Source:               SourceDuplicates,
			PlayerCount:          5,
			CanonicalPlayerCount: 17,
			City:                 "St. Louis",
		},
		{
			Original:     "Abraham Lincon High School",
			Standardized: "Abraham Lincoln High School",
			State:        "MO",
			Confidence:   ConfidenceReferenceFuzzy,
			Source:       SourceNCESFuzzy,
			NCESID:       "290002",
			PlayerCount:  2,
			Notes:        "similarity 0.933",
		},
	}
	require.NoError(t, store.Save(ctx, records))

	got, err := store.Load(ctx)
	require.NoError(t, err)

	// Load returns rows ordered by original name.
	want := []MappingRecord{records[1], records[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestSQLiteStoreEmptyDatabase(t *testing.T) {
	store := newTestSQLiteStore(t)
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSQLiteStoreSaveReplaces(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []MappingRecord{
		{Original: "A", Standardized: "A", Confidence: ConfidenceUnmapped},
		{Original: "B", Standardized: "B", Confidence: ConfidenceUnmapped},
	}))
	require.NoError(t, store.Save(ctx, []MappingRecord{
		{Original: "B", Standardized: "B Prime", Confidence: ConfidenceManual},
	}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "B Prime", got[0].Standardized)
}
