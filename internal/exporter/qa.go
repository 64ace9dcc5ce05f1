package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"surveycli/internal/clean"
	"surveycli/internal/config"
	"surveycli/internal/dataset"
	"surveycli/internal/errors"
	"surveycli/internal/infrastructure"
)

const (
	sheetSummary  = "Summary"
	sheetRejected = "Rejected"
	sheetCleaned  = "Cleaned"
)

// QAExporter writes the reviewer workbook: run summary, rejected rows with
// their reasons, and the cleaned table for eyeballing.
type QAExporter struct {
	paths *config.Paths
	// PreviewRows caps the Cleaned sheet; zero writes every row.
	PreviewRows int
}

// NewQAExporter creates a new QA workbook exporter
func NewQAExporter(paths *config.Paths) *QAExporter {
	return &QAExporter{paths: paths}
}

// Export writes the QA workbook to filePath, atomically. Bare filenames
// land in the QA directory.
func (e *QAExporter) Export(ctx context.Context, filePath string, state *clean.State) error {
	fullPath := filePath
	if !filepath.IsAbs(fullPath) {
		fullPath = e.paths.GetQAPath(fullPath)
	}

	infrastructure.LoggerWithContext(ctx).InfoContext(ctx, "writing_qa_workbook",
		slog.String("file_path", fullPath),
		slog.Int("rejected", state.Stats.RowsRejected),
		slog.Int("clean", state.Stats.RowsClean))

	f := excelize.NewFile()
	defer f.Close()

	if err := e.summarySheet(f, infrastructure.GetRunID(ctx), state); err != nil {
		return err
	}
	if err := e.rejectedSheet(f, state); err != nil {
		return err
	}
	if err := e.cleanedSheet(f, state.Table); err != nil {
		return err
	}

	err := writeFileAtomic(fullPath, func(w io.Writer) error {
		if _, err := f.WriteTo(w); err != nil {
			return errors.NewExportError("failed to write QA workbook", err)
		}
		return nil
	})
	if err != nil {
		if errors.IsType(err, errors.ErrTypeExport) {
			return err
		}
		return errors.NewExportError(fmt.Sprintf("failed to write %s", filepath.Base(fullPath)), err)
	}
	return nil
}

func (e *QAExporter) summarySheet(f *excelize.File, runID string, state *clean.State) error {
	f.SetSheetName(f.GetSheetName(0), sheetSummary)

	rows := [][]interface{}{
		{"Survey", state.Frame.Survey},
		{"Run ID", runID},
		{"Rows loaded", state.Stats.RowsLoaded},
		{"Rows rejected", state.Stats.RowsRejected},
		{"Rows clean", state.Stats.RowsClean},
		{"Unmapped labels nulled", state.Stats.UnmappedNulls},
	}

	if len(state.Stats.RuleHits) > 0 {
		rows = append(rows, nil, []interface{}{"Rejections by rule"})
		for _, id := range sortedKeys(state.Stats.RuleHits) {
			rows = append(rows, []interface{}{id, state.Stats.RuleHits[id]})
		}
	}

	if len(state.Stats.WaveCounts) > 0 {
		rows = append(rows, nil, []interface{}{"Respondents by wave"})
		waves := make([]int, 0, len(state.Stats.WaveCounts))
		for w := range state.Stats.WaveCounts {
			waves = append(waves, w)
		}
		sort.Ints(waves)
		for _, w := range waves {
			rows = append(rows, []interface{}{
				fmt.Sprintf("Wave %d", w),
				weekLabel(state.Start, w),
				state.Stats.WaveCounts[w],
			})
		}
	}

	for i, row := range rows {
		if err := setRow(f, sheetSummary, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (e *QAExporter) rejectedSheet(f *excelize.File, state *clean.State) error {
	if _, err := f.NewSheet(sheetRejected); err != nil {
		return errors.NewExportError("failed to create rejected sheet", err)
	}

	rej := state.Rejected
	if rej == nil {
		// Validation never ran, nothing to report.
		return nil
	}
	headers := append(append([]interface{}{}, anySlice(rej.Columns())...),
		"Rejection reasons", "Source row")
	if err := setRow(f, sheetRejected, 1, headers); err != nil {
		return err
	}

	for i := 0; i < rej.NumRows(); i++ {
		row := make([]interface{}, 0, len(headers))
		for _, col := range rej.Columns() {
			v, ok := rej.Value(i, col)
			if !ok {
				return errors.NewExportError(
					fmt.Sprintf("rejected column %q missing at row %d", col, i), nil)
			}
			row = append(row, cellValue(v))
		}
		row = append(row, strings.Join(state.RejectReasons[i], "; "), rej.SourceRow(i))
		if err := setRow(f, sheetRejected, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (e *QAExporter) cleanedSheet(f *excelize.File, t *dataset.Table) error {
	if _, err := f.NewSheet(sheetCleaned); err != nil {
		return errors.NewExportError("failed to create cleaned sheet", err)
	}

	if err := setRow(f, sheetCleaned, 1, anySlice(t.Columns())); err != nil {
		return err
	}
	limit := t.NumRows()
	if e.PreviewRows > 0 && e.PreviewRows < limit {
		limit = e.PreviewRows
	}
	for i := 0; i < limit; i++ {
		row := make([]interface{}, 0, t.NumColumns())
		for _, col := range t.Columns() {
			v, ok := t.Value(i, col)
			if !ok {
				return errors.NewExportError(
					fmt.Sprintf("cleaned column %q missing at row %d", col, i), nil)
			}
			row = append(row, cellValue(v))
		}
		if err := setRow(f, sheetCleaned, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes one 1-based sheet row; nil rows leave a blank line.
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for j, val := range values {
		if val == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(j+1, row)
		if err != nil {
			return errors.NewExportError("failed to address workbook cell", err)
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return errors.NewExportError(fmt.Sprintf("failed to set cell %s", cell), err)
		}
	}
	return nil
}

// cellValue maps a table cell to its native spreadsheet value so numbers
// stay numbers in the workbook. Missing cells stay empty.
func cellValue(v dataset.Value) interface{} {
	switch {
	case v.IsMissing():
		return nil
	case v.Kind == dataset.KindNumeric:
		return v.Num
	default:
		return v.Str
	}
}

func anySlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
