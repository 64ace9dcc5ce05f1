package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"surveycli/internal/codeframe"
	"surveycli/internal/config"
	"surveycli/internal/dataset"
	"surveycli/internal/errors"
	"surveycli/pkg/sav"
)

// SavExporter writes the cleaned table as an SPSS system file
type SavExporter struct {
	paths *config.Paths
}

// NewSavExporter creates a new SPSS file exporter
func NewSavExporter(paths *config.Paths) *SavExporter {
	return &SavExporter{paths: paths}
}

// SavOptions configures the SPSS export
type SavOptions struct {
	// FileLabel is embedded in the file header, 64 bytes at most.
	FileLabel string
	// Created stamps the file header. Leave zero to stamp the survey
	// start date, which keeps repeat runs byte-identical.
	Created time.Time
}

// Export builds the dictionary from the codeframe and writes table and
// dictionary to filePath. The file appears atomically: it is assembled in
// a temporary sibling and renamed into place only after a clean finish.
func (e *SavExporter) Export(filePath string, t *dataset.Table, frame *codeframe.Codeframe, start time.Time, opts SavOptions) error {
	vars, err := BuildVariables(t, frame, start)
	if err != nil {
		return err
	}

	created := opts.Created
	if created.IsZero() {
		created = start
	}

	fullPath := filePath
	if !filepath.IsAbs(fullPath) {
		fullPath = e.paths.GetOutputPath(fullPath)
	}

	slog.Info("Writing SPSS file",
		slog.String("file_path", fullPath),
		slog.Int("cases", t.NumRows()),
		slog.Int("variables", len(vars)))

	err = writeFileAtomic(fullPath, func(w io.Writer) error {
		sw, err := sav.NewWriter(w, vars, sav.Options{
			FileLabel: opts.FileLabel,
			Created:   created,
			CaseCount: t.NumRows(),
			Product:   fmt.Sprintf("@(#) SPSS DATA FILE - %s %s", config.AppName, config.AppVersion),
		})
		if err != nil {
			return errors.NewExportError("failed to start statistical file", err)
		}
		for i := 0; i < t.NumRows(); i++ {
			cells, err := rowCells(t, vars, i)
			if err != nil {
				return err
			}
			if err := sw.WriteCase(cells); err != nil {
				return errors.NewExportError(fmt.Sprintf("failed to write case %d", i), err)
			}
		}
		if err := sw.Close(); err != nil {
			return errors.NewExportError("failed to close statistical file", err)
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

// rowCells maps one table row onto the dictionary, cell by cell. A text
// value in a numeric slot means the recode stages were skipped or the
// codeframe disagrees with the data, so the export stops there.
func rowCells(t *dataset.Table, vars []sav.Variable, i int) ([]sav.Cell, error) {
	cells := make([]sav.Cell, len(vars))
	for j, v := range vars {
		val, ok := t.Value(i, v.Name)
		if !ok {
			return nil, errors.NewExportError(
				fmt.Sprintf("column %q missing from table during export", v.Name), nil)
		}
		switch {
		case val.IsMissing():
			cells[j] = sav.MissingCell()
		case v.Type == sav.Numeric:
			if val.Kind != dataset.KindNumeric {
				return nil, errors.NewExportError(
					fmt.Sprintf("variable %s: row %d holds text %q where a numeric code is required",
						v.Name, i, val.Str), nil)
			}
			cells[j] = sav.NumCell(val.Num)
		default:
			cells[j] = sav.StrCell(val.Display())
		}
	}
	return cells, nil
}
