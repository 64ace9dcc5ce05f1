package clean

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveycli/internal/dataset"
	"surveycli/internal/errors"
)

func numCell(t *testing.T, tbl *dataset.Table, i int, col string) float64 {
	t.Helper()
	v, ok := tbl.Value(i, col)
	require.True(t, ok)
	require.False(t, v.IsMissing(), "column %s row %d should hold a value", col, i)
	return v.Num
}

func TestRecodeStage_SingleSelect(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Male", "18-24", "6000", "Synergy", "", "7", "2025-08-05 10:00:00"),
		respondent("R2", "Prefer not to say", "65+", "6100", "Origin", "", "9", "2025-08-06 11:30:00"),
	)

	require.NoError(t, (&RecodeStage{}).Run(context.Background(), state))

	assert.Equal(t, float64(1), numCell(t, state.Table, 0, colGender))
	assert.Equal(t, float64(2), numCell(t, state.Table, 0, colAge))
	assert.Equal(t, float64(99), numCell(t, state.Table, 1, colGender))
	assert.Equal(t, float64(7), numCell(t, state.Table, 1, colAge))
}

func TestRecodeStage_MissingStaysMissing(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Male", "18-24", "6000", "Synergy", "", "", "2025-08-05 10:00:00"),
	)

	require.NoError(t, (&RecodeStage{}).Run(context.Background(), state))

	v, ok := state.Table.Value(0, colRec)
	require.True(t, ok)
	assert.True(t, v.IsMissing())
}

func TestRecodeStage_UnmappedLabelFails(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Apache helicopter", "18-24", "6000", "Synergy", "", "7", "2025-08-05 10:00:00"),
	)

	err := (&RecodeStage{}).Run(context.Background(), state)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeMapping))
	assert.Contains(t, err.Error(), `"Apache helicopter"`)
	assert.Contains(t, err.Error(), "S1")

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "R1", pe.Context["respondent_id"])
	assert.Equal(t, 2, pe.Context["row"])
}

func TestRecodeStage_UnmappedLabelNullPolicy(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Apache helicopter", "18-24", "6000", "Synergy", "", "7", "2025-08-05 10:00:00"),
		respondent("R2", "Female", "25-34", "6100", "Origin", "", "banana", "2025-08-06 11:30:00"),
	)
	state.Policy.OnUnmappedLabel = PolicyNull

	require.NoError(t, (&RecodeStage{}).Run(context.Background(), state))

	v, ok := state.Table.Value(0, colGender)
	require.True(t, ok)
	assert.True(t, v.IsMissing())

	v, ok = state.Table.Value(1, colRec)
	require.True(t, ok)
	assert.True(t, v.IsMissing())

	assert.Equal(t, 2, state.Stats.UnmappedNulls)
	// Mapped cells in the same run are unaffected.
	assert.Equal(t, float64(2), numCell(t, state.Table, 1, colGender))
}

func TestRecodeStage_ScaleAnchorsAndDigits(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Male", "18-24", "6000", "Synergy", "", "0 - Not at all likely", "2025-08-05 10:00:00"),
		respondent("R2", "Female", "25-34", "6100", "Origin", "", "10 - Extremely likely", "2025-08-06 11:30:00"),
		respondent("R3", "Male", "25-34", "6200", "Origin", "", " 7 ", "2025-08-07 09:00:00"),
		respondent("R4", "Female", "65+", "6300", "Origin", "", "Extremely likely", "2025-08-07 10:00:00"),
		respondent("R5", "Male", "65+", "6400", "Synergy", "", "7.0", "2025-08-07 11:00:00"),
	)

	require.NoError(t, (&RecodeStage{}).Run(context.Background(), state))

	assert.Equal(t, float64(0), numCell(t, state.Table, 0, colRec))
	assert.Equal(t, float64(10), numCell(t, state.Table, 1, colRec))
	assert.Equal(t, float64(7), numCell(t, state.Table, 2, colRec))
	// Anchor phrase without its numeric prefix still resolves.
	assert.Equal(t, float64(10), numCell(t, state.Table, 3, colRec))
	// Spreadsheet float formatting of an integer response truncates.
	assert.Equal(t, float64(7), numCell(t, state.Table, 4, colRec))
}

func TestRecodeStage_ScaleOutOfRange(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Male", "18-24", "6000", "Synergy", "", "11", "2025-08-05 10:00:00"),
	)

	err := (&RecodeStage{}).Run(context.Background(), state)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeMapping))
	assert.Contains(t, err.Error(), "outside the declared range 0..10")
}

func TestRecodeStage_Numeric(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Male", "18-24", "6000", "Synergy", "", "7", "2025-08-05 10:00:00"),
	)

	require.NoError(t, (&RecodeStage{}).Run(context.Background(), state))
	assert.Equal(t, float64(6000), numCell(t, state.Table, 0, colPostcode))
}

func TestRecodeStage_NumericGarbageFails(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Male", "18-24", "WA 6000", "Synergy", "", "7", "2025-08-05 10:00:00"),
	)

	err := (&RecodeStage{}).Run(context.Background(), state)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeMapping))
	assert.Contains(t, err.Error(), "is not a number")
}

func TestRecodeStage_TextAndTimestampUntouched(t *testing.T) {
	state := makeState(t,
		respondent("R1", "Male", "18-24", "6000", "Other (please specify)", "Kleenheat", "7", "2025-08-05 10:00:00"),
	)

	require.NoError(t, (&RecodeStage{}).Run(context.Background(), state))

	v, ok := state.Table.Value(0, colOther)
	require.True(t, ok)
	assert.Equal(t, "Kleenheat", v.Str)

	v, ok = state.Table.Value(0, colDate)
	require.True(t, ok)
	assert.Equal(t, "2025-08-05 10:00:00", v.Str)
}
