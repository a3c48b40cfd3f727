package schoolmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func applyFixture() []MappingRecord {
	return []MappingRecord{
		{Original: "Central HS", Standardized: "Central High School", Confidence: ConfidenceAutoDuplicate},
		{Original: "Central High School", Standardized: "Central High School", Confidence: ConfidenceAutoDuplicate},
		{Original: "Abraham Lincon High School", Standardized: "Abraham Lincoln High School", Confidence: ConfidenceReferenceFuzzy},
	}
}

func TestApplyToTable(t *testing.T) {
	header := []string{"player", "high_school", "season"}
	rows := [][]string{
		{"Ann", "Central HS", "2021"},
		{"Beth", "Central High School", "2021"},
		{"Cara", "Riverdale Collegiate", "2022"},
		{"Dina", "", "2022"},
	}

	got, err := ApplyToTable(header, rows, "", applyFixture())
	require.NoError(t, err)

	require.Equal(t, []string{
		"player", "high_school", "season",
		"high_school_standardized", "standardization_confidence", "high_school_changed",
	}, got.Header)
	require.Len(t, got.Rows, 4)

	// The source column is never touched.
	for i, row := range got.Rows {
		require.Equal(t, rows[i][1], row[1], "row %d source column modified", i)
	}

	require.Equal(t, []string{"Ann", "Central HS", "2021", "Central High School", "high_auto", "true"}, got.Rows[0])
	require.Equal(t, []string{"Beth", "Central High School", "2021", "Central High School", "high_auto", "false"}, got.Rows[1])
	// Unseen names get the identity standardization at the bottom label.
	require.Equal(t, []string{"Cara", "Riverdale Collegiate", "2022", "Riverdale Collegiate", "unstandardized", "false"}, got.Rows[2])
	// Blank cells stay blank.
	require.Equal(t, []string{"Dina", "", "2022", "", "", "false"}, got.Rows[3])

	require.Equal(t, 4, got.Coverage.TotalRows)
	require.Equal(t, 3, got.Coverage.NamedRows)
	require.Equal(t, 2, got.Coverage.Standardized)
	require.Equal(t, 1, got.Coverage.Changed)
	require.InDelta(t, 2.0/3.0, got.Coverage.Coverage(), 1e-9)
}

func TestApplyToTableExplicitColumn(t *testing.T) {
	header := []string{"name", "school"}
	rows := [][]string{{"Ann", "Central HS"}}

	byName, err := ApplyToTable(header, rows, "school", applyFixture())
	require.NoError(t, err)
	require.Equal(t, "Central High School", byName.Rows[0][2])

	byIndex, err := ApplyToTable(header, rows, "#2", applyFixture())
	require.NoError(t, err)
	require.Equal(t, "Central High School", byIndex.Rows[0][2])
}

func TestApplyToTableMissingColumn(t *testing.T) {
	_, err := ApplyToTable([]string{"a", "b"}, nil, "nope", applyFixture())
	require.Error(t, err)

	_, err = ApplyToTable([]string{"a", "b"}, nil, "#9", applyFixture())
	require.Error(t, err)
}

func TestCoverageEmptyReport(t *testing.T) {
	var r CoverageReport
	require.Zero(t, r.Coverage())
}
