package codeframe

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"surveycli/internal/errors"
)

// Load reads, parses and validates a codeframe document. Unknown YAML keys
// are rejected so a misspelled field fails loudly instead of silently
// changing the cleaning behavior.
func Load(path string) (*Codeframe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewCodeframeError("cannot read codeframe document", err).
			WithContext("file", path)
	}

	var cf Codeframe
	if err := yaml.UnmarshalStrict(data, &cf); err != nil {
		return nil, errors.NewCodeframeError("cannot parse codeframe document", err).
			WithContext("file", path)
	}

	if err := validator.New().Struct(&cf); err != nil {
		return nil, errors.NewCodeframeError("codeframe failed validation", err).
			WithContext("file", path)
	}
	if err := cf.Validate(); err != nil {
		return nil, errors.NewCodeframeError("codeframe failed validation", err).
			WithContext("file", path)
	}

	slog.Info("Codeframe loaded",
		slog.String("file", path),
		slog.String("survey", cf.Survey),
		slog.Int("questions", len(cf.Questions)),
		slog.Int("rules", len(cf.Rules)))

	return &cf, nil
}

// Validate applies the semantic checks the struct tags cannot express:
// uniqueness of variables, columns and codes, option rules per question
// type, and rule wiring against declared columns.
func (c *Codeframe) Validate() error {
	variables := make(map[string]bool)
	outputs := make(map[string]string)
	columns := make(map[string]string)
	waveCount, timestampCount := 0, 0

	recordOutput := func(name, variable string) error {
		if prev, dup := outputs[name]; dup {
			return fmt.Errorf("output variable %q produced by both %q and %q", name, prev, variable)
		}
		outputs[name] = variable
		return nil
	}

	for _, q := range c.Questions {
		if variables[q.Variable] {
			return fmt.Errorf("duplicate variable %q", q.Variable)
		}
		variables[q.Variable] = true

		if q.Type == TypeWave {
			waveCount++
			if q.Column != "" {
				return fmt.Errorf("wave variable %q is derived and must not name a raw column", q.Variable)
			}
		} else if q.Column == "" {
			return fmt.Errorf("question %q names no raw column", q.Variable)
		}
		if q.Type == TypeTimestamp {
			timestampCount++
		}

		if q.Column != "" {
			if prev, dup := columns[q.Column]; dup {
				return fmt.Errorf("questions %q and %q both read column %q", prev, q.Variable, q.Column)
			}
			columns[q.Column] = q.Variable
		}

		switch q.Type {
		case TypeSingle, TypeMulti:
			if len(q.Options) == 0 {
				return fmt.Errorf("question %q (%s) declares no options", q.Variable, q.Type)
			}
		case TypeScale:
			if q.Range == nil {
				return fmt.Errorf("scale question %q declares no range", q.Variable)
			}
			if q.Range.Min >= q.Range.Max {
				return fmt.Errorf("scale question %q has an empty range", q.Variable)
			}
		default:
			if len(q.Options) > 0 {
				return fmt.Errorf("question %q (%s) cannot declare options", q.Variable, q.Type)
			}
		}
		if q.Range != nil && q.Type != TypeScale {
			return fmt.Errorf("question %q (%s) cannot declare a range", q.Variable, q.Type)
		}
		if q.Width > 0 && q.Type != TypeText && q.Type != TypeTimestamp {
			return fmt.Errorf("question %q (%s) cannot set a display width", q.Variable, q.Type)
		}

		codes := make(map[int]bool)
		labels := make(map[string]bool)
		for _, o := range q.Options {
			if codes[o.Code] {
				return fmt.Errorf("question %q declares code %d twice", q.Variable, o.Code)
			}
			codes[o.Code] = true
			if labels[o.Label] {
				return fmt.Errorf("question %q declares label %q twice", q.Variable, o.Label)
			}
			labels[o.Label] = true

			if o.OtherColumn != "" && q.Type != TypeMulti {
				return fmt.Errorf("option %q of %q: other_column is only valid on multi-select options", o.Label, q.Variable)
			}
			if q.Type == TypeScale && (o.Code < q.Range.Min || o.Code > q.Range.Max) {
				return fmt.Errorf("scale question %q: anchor code %d outside range %d..%d",
					q.Variable, o.Code, q.Range.Min, q.Range.Max)
			}
		}

		if q.Type == TypeMulti {
			for _, o := range q.Options {
				if err := recordOutput(q.IndicatorName(o), q.Variable); err != nil {
					return err
				}
			}
		} else {
			if err := recordOutput(q.Variable, q.Variable); err != nil {
				return err
			}
		}
	}

	if waveCount > 1 {
		return fmt.Errorf("multiple wave variables declared")
	}
	if timestampCount > 1 {
		return fmt.Errorf("multiple timestamp questions declared")
	}
	if waveCount == 1 && timestampCount == 0 {
		return fmt.Errorf("wave variable declared without a timestamp question to derive it from")
	}

	return c.validateRules(columns)
}

// validateRules checks rule wiring. known maps every raw column a question
// reads; rules may also reference option companion columns.
func (c *Codeframe) validateRules(known map[string]string) error {
	for _, q := range c.Questions {
		for _, o := range q.Options {
			if o.OtherColumn != "" && known[o.OtherColumn] == "" {
				known[o.OtherColumn] = q.Variable
			}
		}
	}

	checkColumn := func(rule *Rule, col string) error {
		if _, ok := known[col]; !ok {
			return fmt.Errorf("rule %q references column %q which no question declares", rule.ID, col)
		}
		return nil
	}

	ids := make(map[string]bool)
	for i := range c.Rules {
		r := &c.Rules[i]
		if ids[r.ID] {
			return fmt.Errorf("duplicate rule id %q", r.ID)
		}
		ids[r.ID] = true

		switch r.Kind {
		case RuleRequirePresent:
			if len(r.Columns) == 0 {
				return fmt.Errorf("rule %q (require_present) lists no columns", r.ID)
			}
			for _, col := range r.Columns {
				if err := checkColumn(r, col); err != nil {
					return err
				}
			}
		case RuleRejectValue:
			if r.Column == "" || len(r.Values) == 0 {
				return fmt.Errorf("rule %q (reject_value) needs a column and values", r.ID)
			}
			if err := checkColumn(r, r.Column); err != nil {
				return err
			}
		case RuleSkipViolation:
			if r.When == nil || len(r.AnsweredAny) == 0 {
				return fmt.Errorf("rule %q (skip_violation) needs a when condition and answered_any columns", r.ID)
			}
			if err := r.When.validate(); err != nil {
				return fmt.Errorf("rule %q: %w", r.ID, err)
			}
			if err := checkColumn(r, r.When.Column); err != nil {
				return err
			}
			if r.Unless != nil {
				if err := r.Unless.validate(); err != nil {
					return fmt.Errorf("rule %q: %w", r.ID, err)
				}
				if err := checkColumn(r, r.Unless.Column); err != nil {
					return err
				}
			}
			for _, col := range r.AnsweredAny {
				if err := checkColumn(r, col); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
