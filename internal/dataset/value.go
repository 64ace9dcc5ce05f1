package dataset

import "strconv"

// Kind discriminates what a cell currently holds.
type Kind int

const (
	// KindString is a raw or free-text cell.
	KindString Kind = iota
	// KindNumeric is a recoded cell holding a numeric code or count.
	KindNumeric
)

// Value is a single table cell. Cells start out as trimmed strings from the
// workbook and become numeric as the recoding stages rewrite them. Missing is
// explicit so that downstream stages never confuse an empty answer with the
// literal empty string.
type Value struct {
	Kind    Kind
	Str     string
	Num     float64
	Missing bool
}

// String returns a string-kind value. Whitespace-only input should be
// converted by the caller with Missing() instead.
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Number returns a numeric-kind value.
func Number(f float64) Value {
	return Value{Kind: KindNumeric, Num: f}
}

// Int returns a numeric-kind value from an integer code.
func Int(n int) Value {
	return Value{Kind: KindNumeric, Num: float64(n)}
}

// Missing returns the missing value.
func Missing() Value {
	return Value{Missing: true}
}

// IsMissing reports whether the cell holds no answer.
func (v Value) IsMissing() bool {
	return v.Missing
}

// Display renders the cell for CSV and QA output. Missing renders as the
// empty string; numeric codes render without a trailing ".0".
func (v Value) Display() string {
	if v.Missing {
		return ""
	}
	if v.Kind == KindNumeric {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}
