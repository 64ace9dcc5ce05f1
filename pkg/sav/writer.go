package sav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// Writer emits a system file to an io.Writer. The complete dictionary is
// written by NewWriter, so the case count must be known up front; the
// header field cannot be patched afterwards on a plain stream.
type Writer struct {
	bw        *binWriter
	vars      []Variable
	shorts    []string
	caseCount int
	written   int
	closed    bool
}

// NewWriter validates the variable set, writes the dictionary and returns a
// Writer ready to receive exactly opts.CaseCount cases.
func NewWriter(w io.Writer, vars []Variable, opts Options) (*Writer, error) {
	if err := validateVariables(vars); err != nil {
		return nil, err
	}
	if opts.CaseCount < 0 {
		return nil, fmt.Errorf("case count must not be negative, got %d", opts.CaseCount)
	}
	if len(opts.FileLabel) > 64 {
		return nil, fmt.Errorf("file label exceeds 64 bytes: %q", opts.FileLabel)
	}
	shorts, err := shortNames(vars)
	if err != nil {
		return nil, err
	}

	wr := &Writer{
		bw:        &binWriter{w: w},
		vars:      append([]Variable(nil), vars...),
		shorts:    shorts,
		caseCount: opts.CaseCount,
	}
	wr.writeHeader(opts)
	wr.writeVariableRecords()
	wr.writeValueLabelRecords()
	wr.writeIntegerInfoRecord()
	wr.writeFloatInfoRecord()
	wr.writeVariableDisplayRecord()
	wr.writeLongNamesRecord()
	wr.writeEncodingRecord()
	wr.writeDictionaryTerminator()
	if wr.bw.err != nil {
		return nil, fmt.Errorf("write dictionary: %w", wr.bw.err)
	}
	return wr, nil
}

// WriteCase appends one case. Cells must match the variable set in count and
// type; a missing cell becomes the system-missing value for numerics and an
// all-spaces field for strings.
func (w *Writer) WriteCase(cells []Cell) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	if len(cells) != len(w.vars) {
		return fmt.Errorf("case holds %d cells, dictionary declares %d variables", len(cells), len(w.vars))
	}
	if w.written >= w.caseCount {
		return fmt.Errorf("case exceeds the declared count of %d", w.caseCount)
	}
	for i := range w.vars {
		v := &w.vars[i]
		cell := cells[i]
		if v.Type == Numeric {
			if cell.Missing {
				w.bw.f64(SysMis)
			} else {
				w.bw.f64(cell.Num)
			}
			continue
		}
		s := cell.Str
		if cell.Missing {
			s = ""
		}
		if len(s) > v.Width {
			return fmt.Errorf("value for %q is %d bytes, width is %d", v.Name, len(s), v.Width)
		}
		w.bw.str(s, v.elements()*8)
	}
	if w.bw.err != nil {
		return fmt.Errorf("write case %d: %w", w.written+1, w.bw.err)
	}
	w.written++
	return nil
}

// Close verifies that the number of cases written matches the count declared
// in the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.bw.err != nil {
		return w.bw.err
	}
	if w.written != w.caseCount {
		return fmt.Errorf("wrote %d cases, header declares %d", w.written, w.caseCount)
	}
	return nil
}

func (w *Writer) writeHeader(opts Options) {
	product := opts.Product
	if product == "" {
		product = defaultProduct
	}
	w.bw.raw([]byte(magic))
	w.bw.str(product, 60)
	w.bw.i32(2) // layout code
	w.bw.i32(int32(w.totalElements()))
	w.bw.i32(0) // no compression
	w.bw.i32(0) // no weight variable
	w.bw.i32(int32(w.caseCount))
	w.bw.f64(compressionBias)
	w.bw.str(opts.Created.Format("02 Jan 06"), 9)
	w.bw.str(opts.Created.Format("15:04:05"), 8)
	w.bw.str(opts.FileLabel, 64)
	w.bw.raw([]byte{0, 0, 0})
}

func (w *Writer) writeVariableRecords() {
	for i := range w.vars {
		v := &w.vars[i]
		w.writeVariableRecord(v, w.shorts[i])
		for seg := 1; seg < v.elements(); seg++ {
			w.writeContinuationRecord()
		}
	}
}

func (w *Writer) writeVariableRecord(v *Variable, short string) {
	w.bw.i32(recTypeVariable)
	if v.Type == Numeric {
		w.bw.i32(0)
	} else {
		w.bw.i32(int32(v.Width))
	}
	if v.Label != "" {
		w.bw.i32(1)
	} else {
		w.bw.i32(0)
	}
	w.bw.i32(0) // no user-missing values; absent answers carry the system-missing value
	w.bw.i32(v.printFormat())
	w.bw.i32(v.printFormat())
	w.bw.str(short, 8)
	if v.Label != "" {
		label := []byte(v.Label)
		w.bw.i32(int32(len(label)))
		w.bw.raw(label)
		w.bw.pad(len(label), 4)
	}
}

// Continuation records claim the extra 8-byte elements of a long string.
func (w *Writer) writeContinuationRecord() {
	w.bw.i32(recTypeVariable)
	w.bw.i32(-1)
	w.bw.i32(0)
	w.bw.i32(0)
	w.bw.i32(0)
	w.bw.i32(0)
	w.bw.str("", 8)
}

// Value labels come out as a type-3 record holding the code/label pairs,
// immediately followed by a type-4 record naming the variable it applies to
// via its 1-based first element index. Codes are sorted so identical input
// always produces identical bytes.
func (w *Writer) writeValueLabelRecords() {
	indexes := w.firstElementIndexes()
	for i := range w.vars {
		v := &w.vars[i]
		if len(v.ValueLabels) == 0 {
			continue
		}
		codes := make([]float64, 0, len(v.ValueLabels))
		for code := range v.ValueLabels {
			codes = append(codes, code)
		}
		sort.Float64s(codes)

		w.bw.i32(recTypeValueLabels)
		w.bw.i32(int32(len(codes)))
		for _, code := range codes {
			label := v.ValueLabels[code]
			w.bw.f64(code)
			w.bw.raw([]byte{byte(len(label))})
			w.bw.raw([]byte(label))
			w.bw.pad(1+len(label), 8)
		}

		w.bw.i32(recTypeValueLabelVars)
		w.bw.i32(1)
		w.bw.i32(int32(indexes[i]))
	}
}

func (w *Writer) writeExtensionHeader(subtype, size, count int32) {
	w.bw.i32(recTypeExtension)
	w.bw.i32(subtype)
	w.bw.i32(size)
	w.bw.i32(count)
}

func (w *Writer) writeIntegerInfoRecord() {
	w.writeExtensionHeader(extIntegerInfo, 4, 8)
	w.bw.i32(1)     // version major
	w.bw.i32(0)     // version minor
	w.bw.i32(0)     // version revision
	w.bw.i32(-1)    // machine code
	w.bw.i32(1)     // IEEE 754 floating point
	w.bw.i32(1)     // compression code
	w.bw.i32(2)     // little endian
	w.bw.i32(65001) // character code: UTF-8
}

func (w *Writer) writeFloatInfoRecord() {
	w.writeExtensionHeader(extFloatInfo, 8, 3)
	w.bw.f64(SysMis)
	w.bw.f64(math.MaxFloat64)
	w.bw.f64(-math.MaxFloat64)
}

func (w *Writer) writeVariableDisplayRecord() {
	w.writeExtensionHeader(extVariableDisplay, 4, int32(3*len(w.vars)))
	for i := range w.vars {
		v := &w.vars[i]
		w.bw.i32(int32(v.effectiveMeasure()))
		w.bw.i32(v.effectiveDisplay())
		w.bw.i32(v.alignment())
	}
}

func (w *Writer) writeLongNamesRecord() {
	pairs := make([]string, len(w.vars))
	for i := range w.vars {
		pairs[i] = w.shorts[i] + "=" + w.vars[i].Name
	}
	payload := []byte(strings.Join(pairs, "\t"))
	w.writeExtensionHeader(extLongNames, 1, int32(len(payload)))
	w.bw.raw(payload)
}

func (w *Writer) writeEncodingRecord() {
	payload := []byte("UTF-8")
	w.writeExtensionHeader(extEncoding, 1, int32(len(payload)))
	w.bw.raw(payload)
}

func (w *Writer) writeDictionaryTerminator() {
	w.bw.i32(recTypeTerminator)
	w.bw.i32(0)
}

func (w *Writer) totalElements() int {
	n := 0
	for i := range w.vars {
		n += w.vars[i].elements()
	}
	return n
}

// firstElementIndexes returns the 1-based case element index at which each
// variable starts. Long strings occupy several elements, so index and
// variable position diverge once one appears.
func (w *Writer) firstElementIndexes() []int {
	indexes := make([]int, len(w.vars))
	next := 1
	for i := range w.vars {
		indexes[i] = next
		next += w.vars[i].elements()
	}
	return indexes
}

// binWriter wraps an io.Writer with little-endian primitives and a sticky
// error so record writing code stays linear.
type binWriter struct {
	w   io.Writer
	err error
	buf [8]byte
}

func (b *binWriter) raw(p []byte) {
	if b.err != nil {
		return
	}
	_, b.err = b.w.Write(p)
}

func (b *binWriter) i32(v int32) {
	binary.LittleEndian.PutUint32(b.buf[:4], uint32(v))
	b.raw(b.buf[:4])
}

func (b *binWriter) f64(v float64) {
	binary.LittleEndian.PutUint64(b.buf[:8], math.Float64bits(v))
	b.raw(b.buf[:8])
}

// str writes s truncated or space-padded to exactly width bytes.
func (b *binWriter) str(s string, width int) {
	p := make([]byte, width)
	for i := range p {
		p[i] = ' '
	}
	copy(p, s)
	b.raw(p)
}

// pad writes the space bytes needed to round n up to a multiple of m.
func (b *binWriter) pad(n, m int) {
	rem := n % m
	if rem == 0 {
		return
	}
	b.str("", m-rem)
}
