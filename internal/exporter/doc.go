// Package exporter turns a cleaned survey table into the deliverable files.
//
// This package contains four main components:
//
// SavExporter: Builds the SPSS variable dictionary from the codeframe
// (variable labels, value labels, measures, string widths) and writes the
// cleaned table to a .sav system file through pkg/sav. Label coverage is
// enforced before anything touches disk: every code present in a coded
// column must carry a value label, and no two codes of a variable may share
// one. The file is written to a temporary sibling and renamed into place so
// a failed run never leaves a corrupt artifact.
//
// QAExporter: Writes the reviewer workbook (xlsx) with a run summary sheet,
// the rejected rows with their rule hits, and a preview of the cleaned data.
//
// CSVWriter: Core CSV writing with headers and a UTF-8 BOM for Excel
// compatibility, plus a table re-export for downstream charting tools.
//
// CodebookExporter: Emits the variable/option listing as codebook.csv.
//
// Example usage:
//
//	savExporter := exporter.NewSavExporter(paths)
//	err := savExporter.Export("cleaned_data.sav", state.Table, frame, start, exporter.SavOptions{
//		FileLabel: "Brand tracker",
//	})
//
//	qaExporter := exporter.NewQAExporter(paths)
//	err = qaExporter.Export(ctx, "cleaned_data_check.xlsx", state)
package exporter
