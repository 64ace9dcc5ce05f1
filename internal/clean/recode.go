package clean

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"surveycli/internal/codeframe"
	"surveycli/internal/dataset"
	"surveycli/internal/errors"
	"surveycli/internal/infrastructure"
)

// RecodeStage replaces response labels with their integer codes: exact
// label lookup for single-selects, anchor lookup then integer parse for
// scales, plain number parse for numerics. Text, timestamp and multi-select
// columns pass through untouched; multis were already expanded to
// indicators.
type RecodeStage struct{}

func (s *RecodeStage) ID() string   { return "recode" }
func (s *RecodeStage) Name() string { return "Recode labels" }

func (s *RecodeStage) Run(ctx context.Context, state *State) error {
	for _, q := range state.Frame.Questions {
		var err error
		switch q.Type {
		case codeframe.TypeSingle:
			err = s.recodeSingle(ctx, state, q)
		case codeframe.TypeScale:
			err = s.recodeScale(ctx, state, q)
		case codeframe.TypeNumeric:
			err = s.recodeNumeric(ctx, state, q)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *RecodeStage) recodeSingle(ctx context.Context, state *State, q codeframe.Question) error {
	t := state.Table
	for i := 0; i < t.NumRows(); i++ {
		v, err := questionCell(q, t, i)
		if err != nil {
			return err
		}
		if v.IsMissing() {
			continue
		}
		code, ok := q.CodeFor(v.Str)
		if !ok {
			if err := s.unmapped(ctx, state, q, i, errors.NewMappingError(q.Variable, v.Str)); err != nil {
				return err
			}
			continue
		}
		if err := t.Set(i, q.Column, dataset.Int(code)); err != nil {
			return errors.NewCodeframeError(fmt.Sprintf("cannot recode %s", q.Variable), err)
		}
	}
	return nil
}

func (s *RecodeStage) recodeScale(ctx context.Context, state *State, q codeframe.Question) error {
	t := state.Table
	for i := 0; i < t.NumRows(); i++ {
		v, err := questionCell(q, t, i)
		if err != nil {
			return err
		}
		if v.IsMissing() {
			continue
		}

		code, ok := scaleCode(q, v.Str)
		if !ok {
			if err := s.unmapped(ctx, state, q, i, errors.NewMappingError(q.Variable, v.Str)); err != nil {
				return err
			}
			continue
		}
		if q.Range != nil && (code < q.Range.Min || code > q.Range.Max) {
			outOfRange := errors.NewPipelineError(errors.ErrTypeMapping,
				fmt.Sprintf("response %q to %s is outside the declared range %d..%d",
					v.Str, q.Variable, q.Range.Min, q.Range.Max), nil).
				WithContext("question", q.Variable).
				WithContext("label", v.Str)
			if err := s.unmapped(ctx, state, q, i, outOfRange); err != nil {
				return err
			}
			continue
		}
		if err := t.Set(i, q.Column, dataset.Int(code)); err != nil {
			return errors.NewCodeframeError(fmt.Sprintf("cannot recode %s", q.Variable), err)
		}
	}
	return nil
}

func (s *RecodeStage) recodeNumeric(ctx context.Context, state *State, q codeframe.Question) error {
	t := state.Table
	for i := 0; i < t.NumRows(); i++ {
		v, err := questionCell(q, t, i)
		if err != nil {
			return err
		}
		if v.IsMissing() {
			continue
		}
		f, convErr := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if convErr != nil {
			notNumeric := errors.NewPipelineError(errors.ErrTypeMapping,
				fmt.Sprintf("response %q to %s is not a number", v.Str, q.Variable), nil).
				WithContext("question", q.Variable).
				WithContext("label", v.Str)
			if err := s.unmapped(ctx, state, q, i, notNumeric); err != nil {
				return err
			}
			continue
		}
		if err := t.Set(i, q.Column, dataset.Number(f)); err != nil {
			return errors.NewCodeframeError(fmt.Sprintf("cannot recode %s", q.Variable), err)
		}
	}
	return nil
}

// scaleCode resolves a scale response to its code. Declared labels win,
// then anchor phrases ("Not at all likely" inside "0 - Not at all likely"),
// then a plain number, truncated the way surveys export "7.0" for 7.
func scaleCode(q codeframe.Question, raw string) (int, bool) {
	if code, ok := q.CodeFor(raw); ok {
		return code, true
	}
	for _, o := range q.Options {
		if o.Short != "" && strings.Contains(raw, o.Short) {
			return o.Code, true
		}
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// unmapped applies the unmapped-label policy: under PolicyNull the cell
// becomes missing and the occurrence is counted, otherwise the mapping
// error aborts the run with the row attached.
func (s *RecodeStage) unmapped(ctx context.Context, state *State, q codeframe.Question, i int, cause *errors.PipelineError) error {
	t := state.Table
	if state.Policy.OnUnmappedLabel == PolicyNull {
		state.Stats.UnmappedNulls++
		infrastructure.LoggerWithContext(ctx).WarnContext(ctx, "unmapped_label_nulled",
			slog.String("question", q.Variable),
			slog.String("respondent", state.RespondentID(t, i)),
			slog.Int("row", t.SourceRow(i)))
		if err := t.Set(i, q.Column, dataset.Missing()); err != nil {
			return errors.NewCodeframeError(fmt.Sprintf("cannot null %s", q.Variable), err)
		}
		return nil
	}
	return cause.
		WithContext("row", t.SourceRow(i)).
		WithContext("respondent_id", state.RespondentID(t, i))
}

func questionCell(q codeframe.Question, t *dataset.Table, i int) (dataset.Value, error) {
	v, ok := t.Value(i, q.Column)
	if !ok {
		return dataset.Value{}, errors.NewCodeframeError(
			fmt.Sprintf("question %s reads column %q which the table does not hold", q.Variable, q.Column), nil)
	}
	return v, nil
}
