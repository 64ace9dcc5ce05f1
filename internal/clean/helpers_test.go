package clean

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"surveycli/internal/codeframe"
	"surveycli/internal/dataset"
)

const (
	colID       = "Respondent ID"
	colGender   = "What is your gender?"
	colAge      = "How old are you?"
	colPostcode = "What's your postcode?"
	colAware    = "Which providers are you aware of?"
	colOther    = "Other provider"
	colRec      = "How likely are you to recommend?"
	colDate     = "CompletedDate"
)

func testFrame() *codeframe.Codeframe {
	return &codeframe.Codeframe{
		Version:  1,
		Survey:   "Energy Brand Tracker",
		IDColumn: colID,
		Questions: []codeframe.Question{
			{Variable: "S1", Column: colGender, Text: "Gender", Type: codeframe.TypeSingle,
				Options: []codeframe.Option{
					{Label: "Male", Code: 1},
					{Label: "Female", Code: 2},
					{Label: "Prefer not to say", Code: 99},
				}},
			{Variable: "S2", Column: colAge, Text: "Age band", Type: codeframe.TypeSingle,
				Measure: codeframe.MeasureOrdinal,
				Options: []codeframe.Option{
					{Label: "18-24", Code: 2},
					{Label: "25-34", Code: 3},
					{Label: "65+", Code: 7},
				}},
			{Variable: "S3", Column: colPostcode, Text: "Postcode", Type: codeframe.TypeNumeric,
				Measure: codeframe.MeasureScale},
			{Variable: "Q1", Column: colAware, Text: "Provider awareness", Type: codeframe.TypeMulti,
				Options: []codeframe.Option{
					{Label: "Synergy", Code: 1},
					{Label: "Origin", Code: 4},
					{Label: "Other (please specify)", Code: 97, OtherColumn: colOther},
					{Label: "None of these", Code: 99},
				}},
			{Variable: "Q1_97_Oth", Column: colOther, Text: "Provider awareness - other", Type: codeframe.TypeText, Width: 100},
			{Variable: "Q4a", Column: colRec, Text: "Likelihood to recommend", Type: codeframe.TypeScale,
				Measure: codeframe.MeasureScale,
				Range:   &codeframe.Range{Min: 0, Max: 10},
				Options: []codeframe.Option{
					{Label: "0 - Not at all likely", Code: 0, Short: "Not at all likely"},
					{Label: "10 - Extremely likely", Code: 10, Short: "Extremely likely"},
				}},
			{Variable: "Wave", Text: "Fieldwork wave", Type: codeframe.TypeWave, Measure: codeframe.MeasureOrdinal},
			{Variable: "CompletedDate", Column: colDate, Text: "Completion timestamp", Type: codeframe.TypeTimestamp, Width: 20},
		},
		Rules: []codeframe.Rule{
			{ID: "missing_key_fields", Kind: codeframe.RuleRequirePresent,
				Columns: []string{colGender, colAge, colPostcode, colDate}},
			{ID: "under_18", Kind: codeframe.RuleRejectValue,
				Column: colAge, Values: []string{"Under 18"}},
			{ID: "none_but_rated", Kind: codeframe.RuleSkipViolation,
				When:        &codeframe.Condition{Column: colAware, Contains: "None of these"},
				AnsweredAny: []string{colRec}},
		},
	}
}

func rawColumns() []string {
	return []string{colID, colGender, colAge, colPostcode, colAware, colOther, colRec, colDate}
}

// respondent builds one raw row in rawColumns order; empty strings become
// missing cells.
func respondent(id, gender, age, postcode, aware, other, rec, date string) []dataset.Value {
	fields := []string{id, gender, age, postcode, aware, other, rec, date}
	row := make([]dataset.Value, len(fields))
	for i, f := range fields {
		if f == "" {
			row[i] = dataset.Missing()
		} else {
			row[i] = dataset.String(f)
		}
	}
	return row
}

func makeTable(t *testing.T, rows ...[]dataset.Value) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(rawColumns())
	require.NoError(t, err)
	for i, row := range rows {
		// Row 1 is the header in the workbook this table stands in for.
		require.NoError(t, tbl.AppendRow(i+2, row))
	}
	return tbl
}

func surveyStart(t *testing.T) time.Time {
	t.Helper()
	start, err := time.Parse("2006-01-02", "2025-08-04")
	require.NoError(t, err)
	return start
}

func makeState(t *testing.T, rows ...[]dataset.Value) *State {
	t.Helper()
	return NewState(testFrame(), Policy{}, surveyStart(t), makeTable(t, rows...))
}
