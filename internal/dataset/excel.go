package dataset

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"surveycli/internal/errors"
)

// LoadOptions controls how a survey export workbook is read.
type LoadOptions struct {
	// Sheet names the worksheet holding the responses. Empty means the
	// first sheet in the workbook.
	Sheet string
	// RequiredColumns must all exist after header normalization.
	RequiredColumns []string
}

// ReadWorkbook reads a raw survey export into a Table. The first row is the
// header row; every later row is one respondent. Whitespace-only cells load
// as missing, fully empty rows are skipped, and short rows are padded with
// missing cells.
func ReadWorkbook(path string, opts LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewLoadError("cannot open workbook", err).
			WithContext("file", path)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewLoadError("workbook has no worksheets", nil).
				WithContext("file", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewLoadError(fmt.Sprintf("cannot read worksheet %q", sheet), err).
			WithContext("file", path).
			WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.NewLoadError(fmt.Sprintf("worksheet %q is empty", sheet), nil).
			WithContext("file", path).
			WithContext("sheet", sheet)
	}

	headers := make([]string, 0, len(rows[0]))
	for j, raw := range rows[0] {
		name := NormalizeHeader(raw)
		if name == "" {
			return nil, errors.NewLoadError(fmt.Sprintf("header cell %d is empty", j+1), nil).
				WithContext("file", path).
				WithContext("sheet", sheet)
		}
		headers = append(headers, name)
	}

	table, err := New(headers)
	if err != nil {
		return nil, errors.NewLoadError("invalid header row", err).
			WithContext("file", path).
			WithContext("sheet", sheet)
	}

	for _, required := range opts.RequiredColumns {
		if !table.HasColumn(required) {
			return nil, errors.NewLoadError(fmt.Sprintf("missing required column %q", required), nil).
				WithContext("file", path).
				WithContext("sheet", sheet).
				WithContext("column", required)
		}
	}

	skipped := 0
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		srcRow := i + 1

		cells := make([]Value, len(headers))
		empty := true
		for j := range headers {
			var raw string
			if j < len(row) {
				raw = strings.TrimSpace(row[j])
			}
			if raw == "" {
				cells[j] = Missing()
			} else {
				cells[j] = String(raw)
				empty = false
			}
		}
		if empty {
			skipped++
			slog.Debug("Skipped empty row", slog.Int("row", srcRow))
			continue
		}

		if err := table.AppendRow(srcRow, cells); err != nil {
			return nil, errors.NewLoadError(fmt.Sprintf("cannot load row %d", srcRow), err).
				WithContext("file", path).
				WithContext("sheet", sheet)
		}
	}

	slog.Info("Workbook loaded",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("columns", table.NumColumns()),
		slog.Int("rows", table.NumRows()),
		slog.Int("empty_rows_skipped", skipped))

	return table, nil
}

// NormalizeHeader canonicalizes a header cell: trims outer whitespace,
// straightens curly quotes and collapses inner whitespace runs. Survey
// platform exports are inconsistent about all three.
func NormalizeHeader(s string) string {
	s = strings.NewReplacer(
		"‘", "'",
		"’", "'",
		"“", `"`,
		"”", `"`,
	).Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
