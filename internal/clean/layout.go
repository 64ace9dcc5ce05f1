package clean

import (
	"context"
	"fmt"

	"surveycli/internal/codeframe"
	"surveycli/internal/errors"
)

// LayoutStage renames raw workbook headers to their variable names and
// orders the final columns per the codeframe's declaration order. Columns
// the codeframe does not export, the raw multi-select source columns
// among them, are dropped here.
type LayoutStage struct{}

func (s *LayoutStage) ID() string   { return "layout" }
func (s *LayoutStage) Name() string { return "Apply final layout" }

func (s *LayoutStage) Run(ctx context.Context, state *State) error {
	t := state.Table
	for _, q := range state.Frame.Questions {
		if q.Column == "" || q.Column == q.Variable {
			continue
		}
		// Raw multi-select columns are replaced by their indicators.
		if q.Type == codeframe.TypeMulti {
			continue
		}
		if err := t.RenameColumn(q.Column, q.Variable); err != nil {
			return errors.NewCodeframeError(fmt.Sprintf("cannot rename %q to %s", q.Column, q.Variable), err)
		}
	}

	out, err := t.Select(state.Frame.OutputVariables())
	if err != nil {
		return errors.NewCodeframeError("final layout references variables the table does not hold", err)
	}

	state.Table = out
	state.Stats.RowsClean = out.NumRows()
	return nil
}
