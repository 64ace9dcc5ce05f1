// Package dataset provides the in-memory table model the cleaning pipeline
// operates on, plus the Excel loader that builds it from a raw survey export.
//
// # Architecture
//
// The package has two main components:
//
// 1. Table: an ordered-column table of Value cells with per-row provenance
// 2. Loader: reads a survey export workbook into a Table via excelize
//
// # Usage
//
// Loading a raw export:
//
//	table, err := dataset.ReadWorkbook("data/raw/responses.xlsx", dataset.LoadOptions{
//	    RequiredColumns: []string{"S1", "S2", "S3", "CompletedDate"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Cells are Values: a raw string, a numeric code, or missing. Stages rewrite
// cells in place and add, rename or reorder columns as the cleaning
// progresses.
//
// # Data Flow
//
//	Workbook → Loader → Table → cleaning stages → exporter
//
// # Error Handling
//
// The loader returns LOAD-type pipeline errors carrying the file, sheet and
// column that failed. Table mutations return plain errors; the stages wrap
// them with row context.
package dataset
