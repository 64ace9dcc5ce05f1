package clean

import (
	"context"
	"fmt"
	"strings"

	"surveycli/internal/codeframe"
	"surveycli/internal/dataset"
	"surveycli/internal/errors"
)

// EncodeStage expands every multi-select question into one 0/1 indicator
// column per declared option. Indicators exist for every option whether or
// not anyone picked it, so the output shape depends only on the codeframe.
type EncodeStage struct{}

func (s *EncodeStage) ID() string   { return "encode" }
func (s *EncodeStage) Name() string { return "Encode multi-selects" }

func (s *EncodeStage) Run(ctx context.Context, state *State) error {
	for _, q := range state.Frame.Questions {
		if q.Type != codeframe.TypeMulti {
			continue
		}
		if err := s.encodeQuestion(q, state.Table); err != nil {
			return err
		}
	}
	return nil
}

func (s *EncodeStage) encodeQuestion(q codeframe.Question, t *dataset.Table) error {
	for _, o := range q.Options {
		if err := t.AddColumn(q.IndicatorName(o), dataset.Int(0)); err != nil {
			return errors.NewCodeframeError(
				fmt.Sprintf("cannot add indicator column for %s", q.Variable), err)
		}
	}

	for i := 0; i < t.NumRows(); i++ {
		raw, ok := t.Value(i, q.Column)
		if !ok {
			return errors.NewCodeframeError(
				fmt.Sprintf("question %s reads column %q which the table does not hold", q.Variable, q.Column), nil)
		}
		for _, o := range q.Options {
			if !s.selected(o, raw, t, i) {
				continue
			}
			if err := t.Set(i, q.IndicatorName(o), dataset.Int(1)); err != nil {
				return errors.NewCodeframeError(
					fmt.Sprintf("cannot set indicator for %s", q.Variable), err)
			}
		}
	}
	return nil
}

// selected reports whether one option was picked. Options are matched by
// substring containment because the raw cell holds a delimited list whose
// labels may themselves contain the delimiter. An "other specify" option is
// selected when its companion free-text column holds an answer.
func (s *EncodeStage) selected(o codeframe.Option, raw dataset.Value, t *dataset.Table, i int) bool {
	if o.OtherColumn != "" {
		v, ok := t.Value(i, o.OtherColumn)
		return ok && !v.IsMissing()
	}
	if raw.IsMissing() {
		return false
	}
	return strings.Contains(raw.Str, o.Label)
}
