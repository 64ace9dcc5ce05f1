package clean

import (
	"context"
	"fmt"
	"log/slog"

	"surveycli/internal/codeframe"
	"surveycli/internal/dataset"
	"surveycli/internal/errors"
	"surveycli/internal/infrastructure"
)

// emptyCaseRule is the reason recorded for rows dropped under the
// PolicyReject empty-case policy. It is not a codeframe rule ID.
const emptyCaseRule = "empty_case"

// ValidateStage applies the codeframe's validation rules to every row and
// splits the table into kept and rejected rows. Rejected rows keep their
// raw form for the QA workbook.
type ValidateStage struct{}

func (s *ValidateStage) ID() string   { return "validate" }
func (s *ValidateStage) Name() string { return "Validate respondents" }

func (s *ValidateStage) Run(ctx context.Context, state *State) error {
	logger := infrastructure.LoggerWithContext(ctx)
	t := state.Table

	questionCols := answerColumns(state.Frame)
	reasons := make([][]string, t.NumRows())
	ruleRespondents := make(map[string][]string)

	for i := 0; i < t.NumRows(); i++ {
		for _, rule := range state.Frame.Rules {
			violated, err := ruleViolated(rule, t, i)
			if err != nil {
				return err
			}
			if violated {
				reasons[i] = append(reasons[i], rule.ID)
				state.Stats.RuleHits[rule.ID]++
				ruleRespondents[rule.ID] = append(ruleRespondents[rule.ID], state.RespondentID(t, i))
			}
		}

		if len(reasons[i]) == 0 && allMissing(t, i, questionCols) {
			if state.Policy.OnEmptyCase == PolicyReject {
				reasons[i] = append(reasons[i], emptyCaseRule)
				state.Stats.RuleHits[emptyCaseRule]++
				ruleRespondents[emptyCaseRule] = append(ruleRespondents[emptyCaseRule], state.RespondentID(t, i))
				continue
			}
			return errors.NewFilterAmbiguityError(state.RespondentID(t, i),
				"every question field is unanswered").
				WithContext("row", t.SourceRow(i))
		}
	}

	kept, rejected := t.Filter(func(i int) bool { return len(reasons[i]) == 0 })

	rejectReasons := make([][]string, 0, rejected.NumRows())
	for i := range reasons {
		if len(reasons[i]) > 0 {
			rejectReasons = append(rejectReasons, reasons[i])
		}
	}

	state.Table = kept
	state.Rejected = rejected
	state.RejectReasons = rejectReasons
	state.Stats.RowsRejected = rejected.NumRows()
	state.Stats.RowsClean = kept.NumRows()

	for _, rule := range state.Frame.Rules {
		if hit := state.Stats.RuleHits[rule.ID]; hit > 0 {
			logger.InfoContext(ctx, "rule_rejects",
				slog.String("rule", rule.ID),
				slog.Int("count", hit),
				slog.Any("respondents", ruleRespondents[rule.ID]))
		}
	}
	if hit := state.Stats.RuleHits[emptyCaseRule]; hit > 0 {
		logger.InfoContext(ctx, "rule_rejects",
			slog.String("rule", emptyCaseRule),
			slog.Int("count", hit),
			slog.Any("respondents", ruleRespondents[emptyCaseRule]))
	}
	return nil
}

// ruleViolated evaluates one rule against row i.
func ruleViolated(rule codeframe.Rule, t *dataset.Table, i int) (bool, error) {
	switch rule.Kind {
	case codeframe.RuleRequirePresent:
		for _, col := range rule.Columns {
			v, err := cell(rule.ID, t, i, col)
			if err != nil {
				return false, err
			}
			if v.IsMissing() {
				return true, nil
			}
		}
		return false, nil

	case codeframe.RuleRejectValue:
		v, err := cell(rule.ID, t, i, rule.Column)
		if err != nil {
			return false, err
		}
		if v.IsMissing() {
			return false, nil
		}
		for _, bad := range rule.Values {
			if v.Str == bad {
				return true, nil
			}
		}
		return false, nil

	case codeframe.RuleSkipViolation:
		hold, err := conditionHolds(rule.ID, rule.When, t, i)
		if err != nil {
			return false, err
		}
		if !hold {
			return false, nil
		}
		answered := false
		for _, col := range rule.AnsweredAny {
			v, err := cell(rule.ID, t, i, col)
			if err != nil {
				return false, err
			}
			if !v.IsMissing() {
				answered = true
				break
			}
		}
		if !answered {
			return false, nil
		}
		if rule.Unless != nil {
			excused, err := conditionHolds(rule.ID, rule.Unless, t, i)
			if err != nil {
				return false, err
			}
			if excused {
				return false, nil
			}
		}
		return true, nil
	}
	return false, errors.NewCodeframeError(fmt.Sprintf("rule %q has unknown kind %q", rule.ID, rule.Kind), nil)
}

func conditionHolds(ruleID string, cond *codeframe.Condition, t *dataset.Table, i int) (bool, error) {
	if cond == nil {
		return false, nil
	}
	v, err := cell(ruleID, t, i, cond.Column)
	if err != nil {
		return false, err
	}
	return cond.Matches(v.Str, v.IsMissing()), nil
}

// cell reads one value, turning an unknown column into a codeframe error.
// The loader verifies rule columns up front, so this only fires for tables
// built outside the loader.
func cell(ruleID string, t *dataset.Table, i int, col string) (dataset.Value, error) {
	v, ok := t.Value(i, col)
	if !ok {
		return dataset.Value{}, errors.NewCodeframeError(
			fmt.Sprintf("rule %q reads column %q which the table does not hold", ruleID, col), nil)
	}
	return v, nil
}

// answerColumns returns the raw columns holding question answers: every
// question column except the respondent ID and the ones the require_present
// rules already demand. A row with all of these missing is an empty case.
func answerColumns(frame *codeframe.Codeframe) []string {
	key := make(map[string]bool)
	key[frame.IDColumn] = true
	for _, r := range frame.Rules {
		if r.Kind == codeframe.RuleRequirePresent {
			for _, c := range r.Columns {
				key[c] = true
			}
		}
	}

	var out []string
	seen := make(map[string]bool)
	add := func(col string) {
		if col == "" || key[col] || seen[col] {
			return
		}
		seen[col] = true
		out = append(out, col)
	}
	for _, q := range frame.Questions {
		if q.Type != codeframe.TypeTimestamp {
			add(q.Column)
		}
		for _, o := range q.Options {
			add(o.OtherColumn)
		}
	}
	return out
}

func allMissing(t *dataset.Table, i int, cols []string) bool {
	if len(cols) == 0 {
		return false
	}
	for _, col := range cols {
		if v, ok := t.Value(i, col); ok && !v.IsMissing() {
			return false
		}
	}
	return true
}
