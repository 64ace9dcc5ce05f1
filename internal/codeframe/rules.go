package codeframe

import (
	"fmt"
	"strings"
)

// RuleKind names a validation rule's behavior.
type RuleKind string

const (
	// RuleRequirePresent rejects a respondent when any listed column is
	// unanswered.
	RuleRequirePresent RuleKind = "require_present"
	// RuleRejectValue rejects a respondent when a column holds one of the
	// listed labels (screening answers such as "Under 18").
	RuleRejectValue RuleKind = "reject_value"
	// RuleSkipViolation rejects a respondent who answered questions the
	// routing should have skipped: when the `when` condition holds and any
	// `answered_any` column is answered, unless the `unless` condition
	// excuses it.
	RuleSkipViolation RuleKind = "skip_violation"
)

// Rule is one declarative validation rule. Which fields apply depends on
// Kind; Validate enforces the combinations.
type Rule struct {
	ID   string   `yaml:"id" validate:"required"`
	Kind RuleKind `yaml:"kind" validate:"required,oneof=require_present reject_value skip_violation"`

	// require_present
	Columns []string `yaml:"columns"`

	// reject_value
	Column string   `yaml:"column"`
	Values []string `yaml:"values"`

	// skip_violation
	When        *Condition `yaml:"when"`
	AnsweredAny []string   `yaml:"answered_any"`
	Unless      *Condition `yaml:"unless"`
}

// Condition is a single-column predicate with exactly one comparison set.
type Condition struct {
	Column    string   `yaml:"column" validate:"required"`
	Equals    string   `yaml:"equals"`
	NotEquals string   `yaml:"not_equals"`
	In        []string `yaml:"in"`
	Contains  string   `yaml:"contains"`
}

// Matches evaluates the condition against one cell. Missing cells follow
// survey semantics: they equal nothing, contain nothing, appear in no list,
// and differ from everything, so not_equals holds for an unanswered cell.
func (c *Condition) Matches(value string, missing bool) bool {
	switch {
	case c.Equals != "":
		return !missing && value == c.Equals
	case c.NotEquals != "":
		return missing || value != c.NotEquals
	case len(c.In) > 0:
		if missing {
			return false
		}
		for _, v := range c.In {
			if value == v {
				return true
			}
		}
		return false
	case c.Contains != "":
		return !missing && strings.Contains(value, c.Contains)
	}
	return false
}

// validate checks that exactly one comparison is set.
func (c *Condition) validate() error {
	n := 0
	if c.Equals != "" {
		n++
	}
	if c.NotEquals != "" {
		n++
	}
	if len(c.In) > 0 {
		n++
	}
	if c.Contains != "" {
		n++
	}
	if n != 1 {
		return fmt.Errorf("condition on %q must set exactly one of equals, not_equals, in, contains", c.Column)
	}
	return nil
}
