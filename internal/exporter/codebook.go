package exporter

import (
	"sort"
	"strconv"

	"surveycli/internal/codeframe"
	"surveycli/internal/config"
)

// CodebookExporter emits the codeframe as a flat CSV listing: one row per
// exported variable and code, the shape analysts paste into survey
// documentation.
type CodebookExporter struct {
	csvWriter *CSVWriter
}

// NewCodebookExporter creates a new codebook exporter
func NewCodebookExporter(paths *config.Paths) *CodebookExporter {
	return &CodebookExporter{csvWriter: NewCSVWriter(paths)}
}

// Export writes the codebook CSV for a codeframe. Variables appear in
// export order; coded variables repeat one row per value label.
func (e *CodebookExporter) Export(filePath string, frame *codeframe.Codeframe) error {
	headers := []string{"Variable", "Label", "Type", "Measure", "Width", "Code", "Value label"}

	var records [][]string
	for _, q := range frame.Questions {
		switch q.Type {
		case codeframe.TypeMulti:
			for _, o := range q.Options {
				records = append(records, codeRows(
					q.IndicatorName(o),
					q.Text+" - "+o.ValueLabel(),
					"numeric", q.EffectiveMeasure(), 0, indicatorLabels)...)
			}
		case codeframe.TypeText, codeframe.TypeTimestamp:
			records = append(records, codeRows(
				q.Variable, q.Text, "string", codeframe.MeasureNominal, q.Width, nil)...)
		case codeframe.TypeWave:
			records = append(records, codeRows(
				q.Variable, q.Text, "numeric", q.EffectiveMeasure(), 0, nil)...)
		default:
			records = append(records, codeRows(
				q.Variable, q.Text, "numeric", q.EffectiveMeasure(), 0, optionLabels(q))...)
		}
	}

	return e.csvWriter.WriteSimpleCSV(filePath, headers, records)
}

func codeRows(name, label, typ string, measure codeframe.Measure, width int, labels map[float64]string) [][]string {
	w := ""
	if width > 0 {
		w = strconv.Itoa(width)
	}
	if len(labels) == 0 {
		return [][]string{{name, label, typ, string(measure), w, "", ""}}
	}

	codes := make([]float64, 0, len(labels))
	for code := range labels {
		codes = append(codes, code)
	}
	sort.Float64s(codes)

	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, []string{
			name, label, typ, string(measure), w,
			strconv.Itoa(int(code)), labels[code],
		})
	}
	return rows
}
