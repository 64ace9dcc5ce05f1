package exporter

import (
	"fmt"
	"sort"
	"time"

	"surveycli/internal/codeframe"
	"surveycli/internal/dataset"
	"surveycli/internal/errors"
	"surveycli/pkg/sav"
)

// columnSource ties an output column back to its codeframe declaration.
// indicator is set when the column is one expanded multi-select option.
type columnSource struct {
	question  codeframe.Question
	indicator *codeframe.Option
}

// indicatorLabels is the fixed value-label set of every multi-select
// indicator column.
var indicatorLabels = map[float64]string{
	0: "Not selected",
	1: "Selected",
}

// BuildVariables derives the SPSS dictionary for a cleaned table: one
// sav.Variable per column, in column order, with labels, value labels,
// measures and string widths taken from the codeframe. Wave columns get
// generated "Week commencing ..." labels for the waves actually present.
//
// Label coverage is verified here: a code observed in a labeled column
// without a value label, or two codes of one variable sharing a label, is
// an export error naming the variable and code.
func BuildVariables(t *dataset.Table, frame *codeframe.Codeframe, start time.Time) ([]sav.Variable, error) {
	sources := columnSources(frame)

	vars := make([]sav.Variable, 0, t.NumColumns())
	for _, col := range t.Columns() {
		src, ok := sources[col]
		if !ok {
			return nil, errors.NewExportError(
				fmt.Sprintf("column %q has no codeframe declaration", col), nil)
		}
		v, err := buildVariable(t, col, src, start)
		if err != nil {
			return nil, err
		}
		if err := checkLabelCoverage(t, col, v); err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// columnSources maps every exportable column name to its declaration.
// Multi-selects contribute one entry per indicator; their companion text
// columns are declared as text questions of their own.
func columnSources(frame *codeframe.Codeframe) map[string]columnSource {
	sources := make(map[string]columnSource)
	for _, q := range frame.Questions {
		if q.Type == codeframe.TypeMulti {
			for i := range q.Options {
				o := q.Options[i]
				sources[q.IndicatorName(o)] = columnSource{question: q, indicator: &o}
			}
			continue
		}
		sources[q.Variable] = columnSource{question: q}
	}
	return sources
}

func buildVariable(t *dataset.Table, col string, src columnSource, start time.Time) (sav.Variable, error) {
	q := src.question

	if src.indicator != nil {
		return sav.Variable{
			Name:        col,
			Label:       fmt.Sprintf("%s - %s", q.Text, src.indicator.ValueLabel()),
			Type:        sav.Numeric,
			Measure:     savMeasure(q.EffectiveMeasure()),
			ValueLabels: indicatorLabels,
		}, nil
	}

	switch q.Type {
	case codeframe.TypeSingle, codeframe.TypeScale:
		return sav.Variable{
			Name:        col,
			Label:       q.Text,
			Type:        sav.Numeric,
			Measure:     savMeasure(q.EffectiveMeasure()),
			ValueLabels: optionLabels(q),
		}, nil
	case codeframe.TypeNumeric:
		return sav.Variable{
			Name:    col,
			Label:   q.Text,
			Type:    sav.Numeric,
			Measure: savMeasure(q.EffectiveMeasure()),
		}, nil
	case codeframe.TypeWave:
		return sav.Variable{
			Name:        col,
			Label:       q.Text,
			Type:        sav.Numeric,
			Measure:     savMeasure(q.EffectiveMeasure()),
			ValueLabels: waveLabels(t, col, start),
		}, nil
	case codeframe.TypeText, codeframe.TypeTimestamp:
		width, err := stringWidth(t, col, q.Width)
		if err != nil {
			return sav.Variable{}, err
		}
		return sav.Variable{
			Name:  col,
			Label: q.Text,
			Type:  sav.String,
			Width: width,
		}, nil
	default:
		return sav.Variable{}, errors.NewExportError(
			fmt.Sprintf("question %s has unexportable type %q", q.Variable, q.Type), nil)
	}
}

// optionLabels collects the declared value labels of a coded question.
// Returns nil when the question declares no options, which marks the
// variable as uncoded and exempts it from coverage checks.
func optionLabels(q codeframe.Question) map[float64]string {
	if len(q.Options) == 0 {
		return nil
	}
	labels := make(map[float64]string, len(q.Options))
	for _, o := range q.Options {
		labels[float64(o.Code)] = o.ValueLabel()
	}
	return labels
}

// waveLabels generates one "Week commencing 4th August" style label per
// wave present in the column, anchored on the survey start date.
func waveLabels(t *dataset.Table, col string, start time.Time) map[float64]string {
	labels := make(map[float64]string)
	for i := 0; i < t.NumRows(); i++ {
		v, ok := t.Value(i, col)
		if !ok || v.IsMissing() {
			continue
		}
		wave := int(v.Num)
		if wave < 1 {
			continue
		}
		labels[float64(wave)] = weekLabel(start, wave)
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

// weekLabel names the week a wave covers, e.g. "Week commencing 4th August".
func weekLabel(start time.Time, wave int) string {
	monday := start.AddDate(0, 0, (wave-1)*7)
	day := monday.Day()
	return fmt.Sprintf("Week commencing %d%s %s", day, ordinalSuffix(day), monday.Month())
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// stringWidth resolves the byte width of a string variable. A declared
// width wins; otherwise the widest observed value sets it, floored at one
// byte so empty text columns still get a valid slot.
func stringWidth(t *dataset.Table, col string, declared int) (int, error) {
	if declared > 0 {
		return declared, nil
	}
	width := 1
	for i := 0; i < t.NumRows(); i++ {
		v, ok := t.Value(i, col)
		if !ok || v.IsMissing() {
			continue
		}
		if len(v.Str) > width {
			width = len(v.Str)
		}
	}
	if width > 255 {
		return 0, errors.NewExportError(
			fmt.Sprintf("column %q holds a %d byte value, above the 255 byte string limit", col, width), nil)
	}
	return width, nil
}

// checkLabelCoverage enforces the dictionary contract on one variable:
// labels are injective, and when a variable carries labels at all, every
// code present in the data is among them.
func checkLabelCoverage(t *dataset.Table, col string, v sav.Variable) error {
	if len(v.ValueLabels) == 0 {
		return nil
	}

	codes := make([]float64, 0, len(v.ValueLabels))
	for code := range v.ValueLabels {
		codes = append(codes, code)
	}
	sort.Float64s(codes)

	byLabel := make(map[string]float64, len(codes))
	for _, code := range codes {
		label := v.ValueLabels[code]
		if prev, dup := byLabel[label]; dup {
			return errors.NewExportError(
				fmt.Sprintf("variable %s: codes %g and %g share the value label %q", v.Name, prev, code, label), nil)
		}
		byLabel[label] = code
	}

	for i := 0; i < t.NumRows(); i++ {
		cell, ok := t.Value(i, col)
		if !ok || cell.IsMissing() || cell.Kind != dataset.KindNumeric {
			continue
		}
		if _, labeled := v.ValueLabels[cell.Num]; !labeled {
			return errors.NewExportError(
				fmt.Sprintf("variable %s: code %g present in data but has no value label", v.Name, cell.Num), nil)
		}
	}
	return nil
}

func savMeasure(m codeframe.Measure) sav.Measure {
	switch m {
	case codeframe.MeasureOrdinal:
		return sav.Ordinal
	case codeframe.MeasureScale:
		return sav.Scale
	default:
		return sav.Nominal
	}
}
