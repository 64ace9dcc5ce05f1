package codeframe

import "fmt"

// QuestionType says how a question's raw column is cleaned.
type QuestionType string

const (
	// TypeSingle is a single-select: the label is replaced by its code.
	TypeSingle QuestionType = "single"
	// TypeMulti is a multi-select: one 0/1 indicator column per option.
	TypeMulti QuestionType = "multi"
	// TypeScale is a bounded integer scale whose endpoints may carry
	// anchor labels in the raw data ("0 - Not at all likely").
	TypeScale QuestionType = "scale"
	// TypeNumeric is a plain number (postcode).
	TypeNumeric QuestionType = "numeric"
	// TypeText is free text carried through as a string variable.
	TypeText QuestionType = "text"
	// TypeTimestamp is the completion timestamp, exported as text and
	// used to derive the wave.
	TypeTimestamp QuestionType = "timestamp"
	// TypeWave is the derived fieldwork-wave variable. It has no raw
	// column; the wave stage fills it.
	TypeWave QuestionType = "wave"
)

// Measure is the SPSS measurement level of an exported variable.
type Measure string

const (
	MeasureNominal Measure = "nominal"
	MeasureOrdinal Measure = "ordinal"
	MeasureScale   Measure = "scale"
)

// Codeframe is the parsed codeframe document.
type Codeframe struct {
	Version int    `yaml:"version" validate:"required,eq=1"`
	Survey  string `yaml:"survey"`
	// IDColumn names the raw column holding the respondent identifier.
	// Optional; rejects fall back to the workbook row number without it.
	IDColumn  string     `yaml:"id_column"`
	Questions []Question `yaml:"questions" validate:"required,min=1,dive"`
	Rules     []Rule     `yaml:"rules" validate:"dive"`
}

// Question declares one survey question.
type Question struct {
	// Variable is the exported variable name (S1, Q4a, ...).
	Variable string `yaml:"variable" validate:"required"`
	// Column is the raw workbook header this question reads. Empty only
	// for derived questions (wave).
	Column string `yaml:"column"`
	// Text is the variable label shown in SPSS.
	Text string       `yaml:"text"`
	Type QuestionType `yaml:"type" validate:"required,oneof=single multi scale numeric text timestamp wave"`
	// Measure defaults to nominal when empty.
	Measure Measure `yaml:"measure" validate:"omitempty,oneof=nominal ordinal scale"`
	// Width is the display width for text and timestamp variables.
	Width int `yaml:"width" validate:"min=0"`
	// Options carries the label→code map for single, multi and scale
	// questions, in display order.
	Options []Option `yaml:"options" validate:"dive"`
	// Range bounds a scale question.
	Range *Range `yaml:"range"`
}

// Option is one answer option of a coded question.
type Option struct {
	// Label is the exact raw response text.
	Label string `yaml:"label" validate:"required"`
	Code  int    `yaml:"code"`
	// Short overrides Label in exported value labels when the raw text
	// carries scale prefixes ("0 - Not at all likely").
	Short string `yaml:"short"`
	// OtherColumn marks a multi-select "other specify" option: the
	// indicator fires when the named free-text column is answered,
	// not when Label appears in the question column.
	OtherColumn string `yaml:"other_column"`
}

// Range bounds a scale question inclusively.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ValueLabel returns the text exported as the option's value label.
func (o Option) ValueLabel() string {
	if o.Short != "" {
		return o.Short
	}
	return o.Label
}

// EffectiveMeasure resolves the default measurement level.
func (q Question) EffectiveMeasure() Measure {
	if q.Measure == "" {
		return MeasureNominal
	}
	return q.Measure
}

// IndicatorName returns the exported variable name of one multi-select
// option: the question variable suffixed with the option code.
func (q Question) IndicatorName(o Option) string {
	return fmt.Sprintf("%s_%d", q.Variable, o.Code)
}

// CodeFor looks up the code for a raw label among the question's options.
func (q Question) CodeFor(label string) (int, bool) {
	for _, o := range q.Options {
		if o.Label == label {
			return o.Code, true
		}
	}
	return 0, false
}

// QuestionByVariable returns the question declaring the named variable.
func (c *Codeframe) QuestionByVariable(name string) (Question, bool) {
	for _, q := range c.Questions {
		if q.Variable == name {
			return q, true
		}
	}
	return Question{}, false
}

// WaveQuestion returns the derived wave question, if declared.
func (c *Codeframe) WaveQuestion() (Question, bool) {
	for _, q := range c.Questions {
		if q.Type == TypeWave {
			return q, true
		}
	}
	return Question{}, false
}

// TimestampQuestion returns the completion-timestamp question, if declared.
func (c *Codeframe) TimestampQuestion() (Question, bool) {
	for _, q := range c.Questions {
		if q.Type == TypeTimestamp {
			return q, true
		}
	}
	return Question{}, false
}

// RequiredColumns returns every raw workbook column the pipeline will read,
// in first-reference order: the respondent ID column, question columns,
// "other specify" companion columns and every column the validation rules
// inspect. The loader checks these up front so a renamed header fails at
// load, not mid-pipeline.
func (c *Codeframe) RequiredColumns() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(col string) {
		if col == "" || seen[col] {
			return
		}
		seen[col] = true
		out = append(out, col)
	}

	add(c.IDColumn)
	for _, q := range c.Questions {
		add(q.Column)
		for _, o := range q.Options {
			add(o.OtherColumn)
		}
	}
	for _, r := range c.Rules {
		for _, col := range r.Columns {
			add(col)
		}
		add(r.Column)
		if r.When != nil {
			add(r.When.Column)
		}
		if r.Unless != nil {
			add(r.Unless.Column)
		}
		for _, col := range r.AnsweredAny {
			add(col)
		}
	}
	return out
}

// OutputVariables returns the exported variable names in final layout
// order: declaration order, with multi-select questions expanded to their
// indicator variables.
func (c *Codeframe) OutputVariables() []string {
	var out []string
	for _, q := range c.Questions {
		if q.Type == TypeMulti {
			for _, o := range q.Options {
				out = append(out, q.IndicatorName(o))
			}
			continue
		}
		out = append(out, q.Variable)
	}
	return out
}
