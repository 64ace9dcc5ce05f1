package clean

import (
	"fmt"
	"time"

	"surveycli/internal/codeframe"
	"surveycli/internal/dataset"
)

// Policy values for the two conditions the source data cannot decide on its
// own. The zero value of either knob means fail.
const (
	PolicyFail   = "fail"
	PolicyReject = "reject"
	PolicyNull   = "null"
)

// Policy selects how the pipeline treats ambiguous rows and labels.
type Policy struct {
	// OnEmptyCase applies to rows whose key fields are present but whose
	// question fields are all unanswered: PolicyFail aborts the run,
	// PolicyReject drops the row to the QA workbook.
	OnEmptyCase string
	// OnUnmappedLabel applies to responses the codeframe defines no code
	// for: PolicyFail aborts the run, PolicyNull writes system-missing
	// and counts the occurrence.
	OnUnmappedLabel string
}

// State is the shared pipeline state threaded through the stages.
type State struct {
	Frame  *codeframe.Codeframe
	Policy Policy
	// Start is the first day of fieldwork, midnight UTC.
	Start time.Time

	// Table is the working table. Stages mutate or replace it.
	Table *dataset.Table
	// Rejected holds the raw rows the validate stage dropped.
	Rejected *dataset.Table
	// RejectReasons holds the violated rule IDs per Rejected row.
	RejectReasons [][]string

	Stats Stats
}

// Stats accumulates the run counters reported in the QA summary.
type Stats struct {
	RowsLoaded   int
	RowsRejected int
	RowsClean    int
	// RuleHits counts rejected rows per validation rule ID.
	RuleHits map[string]int
	// UnmappedNulls counts cells written as missing under PolicyNull.
	UnmappedNulls int
	// WaveCounts counts clean rows per derived wave.
	WaveCounts map[int]int
}

// NewState prepares the pipeline state for one run.
func NewState(frame *codeframe.Codeframe, policy Policy, start time.Time, table *dataset.Table) *State {
	return &State{
		Frame:  frame,
		Policy: policy,
		Start:  start,
		Table:  table,
		Stats: Stats{
			RowsLoaded: table.NumRows(),
			RuleHits:   make(map[string]int),
			WaveCounts: make(map[int]int),
		},
	}
}

// RespondentID identifies row i of t for error messages and QA artifacts:
// the declared ID column when it holds a value, otherwise the workbook row
// number.
func (s *State) RespondentID(t *dataset.Table, i int) string {
	if s.Frame.IDColumn != "" {
		if v, ok := t.Value(i, s.Frame.IDColumn); ok && !v.IsMissing() {
			return v.Display()
		}
	}
	return fmt.Sprintf("row %d", t.SourceRow(i))
}
