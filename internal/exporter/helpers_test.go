package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"surveycli/internal/codeframe"
	"surveycli/internal/dataset"
)

// exportFrame declares a small tracker codeframe in its cleaned, exportable
// shape: one single-select, one ordinal single-select, one numeric, one
// expanded multi-select with a companion text column, a 0-10 scale, the
// derived wave and the completion timestamp.
func exportFrame() *codeframe.Codeframe {
	return &codeframe.Codeframe{
		Version: 1,
		Survey:  "Energy Brand Tracker",
		Questions: []codeframe.Question{
			{Variable: "S1", Column: "What is your gender?", Text: "What is your gender?",
				Type: codeframe.TypeSingle,
				Options: []codeframe.Option{
					{Label: "Male", Code: 1},
					{Label: "Female", Code: 2},
					{Label: "Prefer not to say", Code: 99},
				}},
			{Variable: "S2", Column: "What is your age?", Text: "What is your age?",
				Type: codeframe.TypeSingle, Measure: codeframe.MeasureOrdinal,
				Options: []codeframe.Option{
					{Label: "18-24", Code: 2},
					{Label: "25-34", Code: 3},
				}},
			{Variable: "S3", Column: "What is your postcode?", Text: "What is your postcode?",
				Type: codeframe.TypeNumeric, Measure: codeframe.MeasureScale},
			{Variable: "Q1", Column: "Which providers are you aware of?",
				Text: "Which providers are you aware of?", Type: codeframe.TypeMulti,
				Options: []codeframe.Option{
					{Label: "Synergy", Code: 1},
					{Label: "Origin", Code: 4},
					{Label: "None of these", Code: 99},
					{Label: "Other (please specify)", Code: 97, Short: "Other", OtherColumn: "Other provider"},
				}},
			{Variable: "Q1_97_Oth", Column: "Other provider", Text: "Providers aware of - other",
				Type: codeframe.TypeText, Width: 100},
			{Variable: "Q4a", Column: "How likely are you to recommend?",
				Text: "How likely are you to recommend?",
				Type: codeframe.TypeScale, Measure: codeframe.MeasureScale,
				Range: &codeframe.Range{Min: 0, Max: 10},
				Options: []codeframe.Option{
					{Label: "0 - Not at all likely", Code: 0, Short: "Not at all likely"},
					{Label: "10 - Extremely likely", Code: 10, Short: "Extremely likely"},
				}},
			{Variable: "Wave", Text: "Data collection wave", Type: codeframe.TypeWave,
				Measure: codeframe.MeasureOrdinal},
			{Variable: "CompletedDate", Column: "CompletedDate", Text: "Completion date and time",
				Type: codeframe.TypeTimestamp, Width: 20},
		},
	}
}

func cleanColumns() []string {
	return []string{
		"S1", "S2", "S3",
		"Q1_1", "Q1_4", "Q1_99", "Q1_97", "Q1_97_Oth",
		"Q4a", "Wave", "CompletedDate",
	}
}

// cleanTable builds a table in its post-pipeline shape: codes in place of
// labels, indicators expanded, wave derived. Waves 1, 2 and 4 are present
// so label generation has a gap to skip.
func cleanTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(cleanColumns())
	require.NoError(t, err)

	rows := [][]dataset.Value{
		{
			dataset.Int(1), dataset.Int(2), dataset.Number(6000),
			dataset.Int(1), dataset.Int(0), dataset.Int(0), dataset.Int(1),
			dataset.String("Kleenheat"),
			dataset.Int(10), dataset.Int(1), dataset.String("2025-08-05 10:00:00"),
		},
		{
			dataset.Int(2), dataset.Int(3), dataset.Number(6100),
			dataset.Int(0), dataset.Int(1), dataset.Int(0), dataset.Int(0),
			dataset.Missing(),
			dataset.Int(0), dataset.Int(2), dataset.String("2025-08-11 09:00:00"),
		},
		{
			dataset.Int(99), dataset.Missing(), dataset.Missing(),
			dataset.Int(1), dataset.Int(1), dataset.Int(0), dataset.Int(0),
			dataset.Missing(),
			dataset.Missing(), dataset.Int(4), dataset.String("2025-08-26 12:00:00"),
		},
	}
	for i, row := range rows {
		require.NoError(t, tbl.AppendRow(i+2, row))
	}
	return tbl
}

func fieldworkStart(t *testing.T) time.Time {
	t.Helper()
	start, err := time.Parse("2006-01-02", "2025-08-04")
	require.NoError(t, err)
	return start
}
