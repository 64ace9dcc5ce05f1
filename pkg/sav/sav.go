package sav

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SysMis is the system-missing value for numeric cells.
const SysMis = -math.MaxFloat64

// compression bias written to the header. The file is uncompressed but the
// field is conventionally 100 and some readers check it.
const compressionBias = 100.0

// maxStringWidth is the widest single-segment string variable the format
// allows.
const maxStringWidth = 255

// defaultProduct is the product string recorded in the file header.
const defaultProduct = "@(#) SPSS DATA FILE"

// magic opens every system file.
const magic = "$FL2"

// Dictionary record types.
const (
	recTypeVariable       int32 = 2
	recTypeValueLabels    int32 = 3
	recTypeValueLabelVars int32 = 4
	recTypeExtension      int32 = 7
	recTypeTerminator     int32 = 999
)

// Extension record subtypes.
const (
	extIntegerInfo     int32 = 3
	extFloatInfo       int32 = 4
	extVariableDisplay int32 = 11
	extLongNames       int32 = 13
	extEncoding        int32 = 20
)

// VarType is the storage type of a variable.
type VarType int

const (
	// Numeric variables hold IEEE doubles (all coded answers).
	Numeric VarType = iota
	// String variables hold fixed-width text (verbatims, timestamps).
	String
)

// Measure is the measurement level recorded for a variable.
type Measure int32

const (
	Nominal Measure = 1
	Ordinal Measure = 2
	Scale   Measure = 3
)

// Variable describes one column of the file.
type Variable struct {
	// Name is the long variable name, unique within the file, no spaces,
	// at most 64 bytes. The 8-byte short name is derived automatically.
	Name string
	// Label is the human-readable variable label. Optional.
	Label string
	Type  VarType
	// Width is the storage width in bytes for String variables, 1..255.
	// Ignored for Numeric.
	Width int
	// Measure defaults to Nominal when unset.
	Measure Measure
	// Display is the column display width. Defaults to 8 for Numeric and
	// the storage width for String.
	Display int
	// ValueLabels maps codes to labels. Numeric variables only.
	ValueLabels map[float64]string
}

// Cell is one case value.
type Cell struct {
	Missing bool
	Num     float64
	Str     string
}

// NumCell returns a numeric cell.
func NumCell(v float64) Cell {
	return Cell{Num: v}
}

// StrCell returns a string cell.
func StrCell(s string) Cell {
	return Cell{Str: s}
}

// MissingCell returns a missing cell. Numeric variables store it as the
// system-missing value, strings as all spaces.
func MissingCell() Cell {
	return Cell{Missing: true}
}

// Options configures the file header.
type Options struct {
	// FileLabel is the 64-byte file label. Longer labels are rejected.
	FileLabel string
	// Created is the creation stamp written to the header. Callers pass a
	// fixed anchor rather than the wall clock so reruns are byte-stable.
	Created time.Time
	// CaseCount is the exact number of cases that will be written.
	CaseCount int
	// Product overrides the header product string. Defaults to a plain
	// SPSS data file marker.
	Product string
}

// elements returns how many 8-byte data elements the variable occupies.
func (v *Variable) elements() int {
	if v.Type == Numeric {
		return 1
	}
	return (v.Width + 7) / 8
}

// effectiveMeasure resolves the zero value to Nominal.
func (v *Variable) effectiveMeasure() Measure {
	if v.Measure == 0 {
		return Nominal
	}
	return v.Measure
}

// effectiveDisplay resolves the default display width.
func (v *Variable) effectiveDisplay() int32 {
	if v.Display > 0 {
		return int32(v.Display)
	}
	if v.Type == Numeric {
		return 8
	}
	return int32(v.Width)
}

// alignment is right for numerics and left for strings, matching what
// statistical packages write by default.
func (v *Variable) alignment() int32 {
	if v.Type == Numeric {
		return 1
	}
	return 0
}

// printFormat encodes the print/write format word: format type in the third
// byte, width in the second, decimals in the first.
func (v *Variable) printFormat() int32 {
	const (
		fmtA = 1
		fmtF = 5
	)
	if v.Type == Numeric {
		return fmtF<<16 | 8<<8 | 0
	}
	return fmtA<<16 | int32(v.Width)<<8 | 0
}

// validateVariables checks the variable set before any bytes are written.
func validateVariables(vars []Variable) error {
	if len(vars) == 0 {
		return fmt.Errorf("no variables")
	}
	seen := make(map[string]bool, len(vars))
	for i := range vars {
		v := &vars[i]
		if v.Name == "" {
			return fmt.Errorf("variable %d has no name", i)
		}
		if len(v.Name) > 64 {
			return fmt.Errorf("variable name %q exceeds 64 bytes", v.Name)
		}
		if strings.ContainsAny(v.Name, " \t") {
			return fmt.Errorf("variable name %q contains whitespace", v.Name)
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate variable name %q", v.Name)
		}
		seen[v.Name] = true

		switch v.Type {
		case Numeric:
			if v.Width != 0 {
				return fmt.Errorf("numeric variable %q declares a storage width", v.Name)
			}
		case String:
			if v.Width < 1 || v.Width > maxStringWidth {
				return fmt.Errorf("string variable %q has width %d, want 1..%d",
					v.Name, v.Width, maxStringWidth)
			}
			if len(v.ValueLabels) > 0 {
				return fmt.Errorf("string variable %q cannot carry value labels", v.Name)
			}
		default:
			return fmt.Errorf("variable %q has unknown type %d", v.Name, v.Type)
		}

		if len(v.Label) > 255 {
			return fmt.Errorf("label of variable %q exceeds 255 bytes", v.Name)
		}
		for code, label := range v.ValueLabels {
			if label == "" {
				return fmt.Errorf("variable %q: empty label for code %v", v.Name, code)
			}
			if len(label) > 120 {
				return fmt.Errorf("variable %q: label for code %v exceeds 120 bytes", v.Name, code)
			}
		}
	}
	return nil
}
