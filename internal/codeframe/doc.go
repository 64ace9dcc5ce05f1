// Package codeframe models the codeframe document: the YAML file that
// declares every survey question, its raw workbook column, the label→code
// mappings, and the validation rules a respondent must pass.
//
// The codeframe is the single source of truth for the cleaned dataset's
// shape. Question declaration order is output order, multi-select questions
// expand to one indicator variable per declared option, and the exporter
// takes variable labels, value labels, measures and display widths from
// here. The document is read-only after Load.
package codeframe
