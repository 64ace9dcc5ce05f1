package sav

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// savReader walks the produced bytes so tests can assert on decoded records
// instead of raw offsets.
type savReader struct {
	t    *testing.T
	data []byte
	pos  int
}

func (r *savReader) bytes(n int) []byte {
	r.t.Helper()
	if r.pos+n > len(r.data) {
		r.t.Fatalf("read %d bytes at offset %d, file is %d bytes", n, r.pos, len(r.data))
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p
}

func (r *savReader) i32() int32 {
	return int32(binary.LittleEndian.Uint32(r.bytes(4)))
}

func (r *savReader) f64() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(r.bytes(8)))
}

func (r *savReader) str(n int) string {
	return strings.TrimRight(string(r.bytes(n)), " ")
}

type parsedVar struct {
	typ      int32
	hasLabel int32
	nMissing int32
	print    int32
	write    int32
	name     string
	label    string
}

type parsedLabelSet struct {
	labels  map[float64]string
	indexes []int32
}

type parsedFile struct {
	product     string
	layout      int32
	caseSize    int32
	compression int32
	weight      int32
	caseCount   int32
	bias        float64
	created     string
	fileLabel   string
	vars        []parsedVar
	labelSets   []parsedLabelSet
	ext         map[int32][]byte
	caseData    []byte
}

func parseFile(t *testing.T, raw []byte) *parsedFile {
	t.Helper()
	r := &savReader{t: t, data: raw}
	p := &parsedFile{ext: make(map[int32][]byte)}

	require.Equal(t, magic, string(r.bytes(4)))
	p.product = r.str(60)
	p.layout = r.i32()
	p.caseSize = r.i32()
	p.compression = r.i32()
	p.weight = r.i32()
	p.caseCount = r.i32()
	p.bias = r.f64()
	p.created = r.str(9) + " " + r.str(8)
	p.fileLabel = r.str(64)
	r.bytes(3)

	for {
		switch typ := r.i32(); typ {
		case recTypeVariable:
			v := parsedVar{typ: r.i32()}
			v.hasLabel = r.i32()
			v.nMissing = r.i32()
			v.print = r.i32()
			v.write = r.i32()
			v.name = r.str(8)
			if v.hasLabel == 1 {
				n := int(r.i32())
				v.label = string(r.bytes(n))
				if rem := n % 4; rem != 0 {
					r.bytes(4 - rem)
				}
			}
			p.vars = append(p.vars, v)
		case recTypeValueLabels:
			set := parsedLabelSet{labels: make(map[float64]string)}
			n := int(r.i32())
			for i := 0; i < n; i++ {
				code := r.f64()
				ln := int(r.bytes(1)[0])
				set.labels[code] = string(r.bytes(ln))
				if rem := (1 + ln) % 8; rem != 0 {
					r.bytes(8 - rem)
				}
			}
			require.Equal(t, recTypeValueLabelVars, r.i32(), "value labels must be followed by the variable record")
			nv := int(r.i32())
			for i := 0; i < nv; i++ {
				set.indexes = append(set.indexes, r.i32())
			}
			p.labelSets = append(p.labelSets, set)
		case recTypeExtension:
			sub := r.i32()
			size := r.i32()
			count := r.i32()
			p.ext[sub] = r.bytes(int(size * count))
		case recTypeTerminator:
			require.Equal(t, int32(0), r.i32())
			p.caseData = r.data[r.pos:]
			return p
		default:
			t.Fatalf("unexpected record type %d at offset %d", typ, r.pos-4)
		}
	}
}

func numElement(t *testing.T, data []byte, i int) float64 {
	t.Helper()
	require.GreaterOrEqual(t, len(data), (i+1)*8)
	return math.Float64frombits(binary.LittleEndian.Uint64(data[i*8 : (i+1)*8]))
}

func strElements(t *testing.T, data []byte, i, elements int) string {
	t.Helper()
	require.GreaterOrEqual(t, len(data), (i+elements)*8)
	return string(data[i*8 : (i+elements)*8])
}

func testVariables() []Variable {
	return []Variable{
		{Name: "S1", Label: "Gender", Type: Numeric, Measure: Nominal,
			ValueLabels: map[float64]string{1: "Male", 2: "Female", 3: "Non-binary/Other", 99: "Prefer not to say"}},
		{Name: "Q4a", Label: "Likelihood to recommend", Type: Numeric, Measure: Scale,
			ValueLabels: map[float64]string{0: "Not at all likely", 10: "Extremely likely"}},
		{Name: "Q4b", Label: "Reason for score", Type: String, Width: 20},
		{Name: "CompletedDate", Label: "Completion timestamp", Type: String, Width: 20},
	}
}

func testOptions(cases int) Options {
	return Options{
		FileLabel: "Brand tracker wave data",
		Created:   time.Date(2025, time.August, 4, 9, 30, 0, 0, time.UTC),
		CaseCount: cases,
	}
}

func TestNewWriter_Header(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testVariables(), testOptions(2))
	require.NoError(t, err)
	require.NoError(t, w.WriteCase(make([]Cell, 4)))
	require.NoError(t, w.WriteCase(make([]Cell, 4)))
	require.NoError(t, w.Close())

	p := parseFile(t, buf.Bytes())
	assert.Equal(t, defaultProduct, p.product)
	assert.Equal(t, int32(2), p.layout)
	// S1 and Q4a take one element each, the two width-20 strings three each.
	assert.Equal(t, int32(8), p.caseSize)
	assert.Equal(t, int32(0), p.compression)
	assert.Equal(t, int32(0), p.weight)
	assert.Equal(t, int32(2), p.caseCount)
	assert.Equal(t, compressionBias, p.bias)
	assert.Equal(t, "04 Aug 25 09:30:00", p.created)
	assert.Equal(t, "Brand tracker wave data", p.fileLabel)
}

func TestNewWriter_VariableRecords(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testVariables(), testOptions(0))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	p := parseFile(t, buf.Bytes())
	require.Len(t, p.vars, 8, "each width-20 string needs two continuation records")

	s1 := p.vars[0]
	assert.Equal(t, int32(0), s1.typ)
	assert.Equal(t, "S1", s1.name)
	assert.Equal(t, "Gender", s1.label)
	assert.Equal(t, int32(0), s1.nMissing)
	assert.Equal(t, int32(5<<16|8<<8), s1.print, "numerics print as F8.0")
	assert.Equal(t, s1.print, s1.write)

	q4b := p.vars[2]
	assert.Equal(t, int32(20), q4b.typ)
	assert.Equal(t, "Q4B", q4b.name)
	assert.Equal(t, "Reason for score", q4b.label)
	assert.Equal(t, int32(1<<16|20<<8), q4b.print, "strings print as A<width>")

	for _, i := range []int{3, 4, 6, 7} {
		assert.Equal(t, int32(-1), p.vars[i].typ, "record %d should be a continuation", i)
		assert.Empty(t, p.vars[i].label)
	}

	assert.Equal(t, "COMPLETE", p.vars[5].name, "long names truncate to eight bytes")
}

func TestNewWriter_ValueLabels(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testVariables(), testOptions(0))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	p := parseFile(t, buf.Bytes())
	require.Len(t, p.labelSets, 2)

	s1 := p.labelSets[0]
	assert.Equal(t, map[float64]string{
		1:  "Male",
		2:  "Female",
		3:  "Non-binary/Other",
		99: "Prefer not to say",
	}, s1.labels)
	assert.Equal(t, []int32{1}, s1.indexes)

	q4a := p.labelSets[1]
	assert.Equal(t, map[float64]string{0: "Not at all likely", 10: "Extremely likely"}, q4a.labels)
	assert.Equal(t, []int32{2}, q4a.indexes)
}

func TestNewWriter_ExtensionRecords(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testVariables(), testOptions(0))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	p := parseFile(t, buf.Bytes())

	integers := p.ext[extIntegerInfo]
	require.Len(t, integers, 32)
	want := []int32{1, 0, 0, -1, 1, 1, 2, 65001}
	for i, v := range want {
		assert.Equal(t, v, int32(binary.LittleEndian.Uint32(integers[i*4:])), "integer info field %d", i)
	}

	floats := p.ext[extFloatInfo]
	require.Len(t, floats, 24)
	assert.Equal(t, SysMis, numElement(t, floats, 0))
	assert.Equal(t, math.MaxFloat64, numElement(t, floats, 1))
	assert.Equal(t, -math.MaxFloat64, numElement(t, floats, 2))

	display := p.ext[extVariableDisplay]
	require.Len(t, display, 4*3*4)
	triple := func(i int) [3]int32 {
		var out [3]int32
		for j := range out {
			out[j] = int32(binary.LittleEndian.Uint32(display[(i*3+j)*4:]))
		}
		return out
	}
	assert.Equal(t, [3]int32{1, 8, 1}, triple(0), "S1 nominal, width 8, right aligned")
	assert.Equal(t, [3]int32{3, 8, 1}, triple(1), "Q4a scale")
	assert.Equal(t, [3]int32{1, 20, 0}, triple(2), "Q4b left aligned at storage width")

	assert.Equal(t, "S1=S1\tQ4A=Q4a\tQ4B=Q4b\tCOMPLETE=CompletedDate", string(p.ext[extLongNames]))
	assert.Equal(t, "UTF-8", string(p.ext[extEncoding]))
}

func TestWriter_CaseData(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testVariables(), testOptions(2))
	require.NoError(t, err)

	require.NoError(t, w.WriteCase([]Cell{
		NumCell(1), MissingCell(), StrCell("Great value"), StrCell("2025-08-04 09:30:00"),
	}))
	require.NoError(t, w.WriteCase([]Cell{
		NumCell(2), NumCell(10), MissingCell(), StrCell("2025-08-05 14:00:00"),
	}))
	require.NoError(t, w.Close())

	p := parseFile(t, buf.Bytes())
	require.Len(t, p.caseData, 2*8*8)

	assert.Equal(t, float64(1), numElement(t, p.caseData, 0))
	assert.Equal(t, SysMis, numElement(t, p.caseData, 1), "missing numeric stores the system-missing value")
	assert.Equal(t, "Great value"+strings.Repeat(" ", 13), strElements(t, p.caseData, 2, 3))
	assert.Equal(t, "2025-08-04 09:30:00"+strings.Repeat(" ", 5), strElements(t, p.caseData, 5, 3))

	second := p.caseData[8*8:]
	assert.Equal(t, float64(10), numElement(t, second, 1))
	assert.Equal(t, strings.Repeat(" ", 24), strElements(t, second, 2, 3), "missing string stores spaces")
}

func TestWriter_Deterministic(t *testing.T) {
	write := func() []byte {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, testVariables(), testOptions(1))
		require.NoError(t, err)
		require.NoError(t, w.WriteCase([]Cell{NumCell(3), NumCell(7), StrCell("ok"), StrCell("2025-08-04 09:30:00")}))
		require.NoError(t, w.Close())
		return buf.Bytes()
	}

	first := write()
	for i := 0; i < 5; i++ {
		require.True(t, bytes.Equal(first, write()), "identical input must produce identical bytes")
	}
}

func TestWriter_CaseCountEnforced(t *testing.T) {
	t.Run("too few cases", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, testVariables(), testOptions(2))
		require.NoError(t, err)
		require.NoError(t, w.WriteCase(make([]Cell, 4)))

		err = w.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wrote 1 cases, header declares 2")
	})

	t.Run("too many cases", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, testVariables(), testOptions(1))
		require.NoError(t, err)
		require.NoError(t, w.WriteCase(make([]Cell, 4)))

		err = w.WriteCase(make([]Cell, 4))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared count")
	})

	t.Run("write after close", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, testVariables(), testOptions(0))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.Error(t, w.WriteCase(make([]Cell, 4)))
	})
}

func TestWriter_WriteCaseErrors(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testVariables(), testOptions(1))
	require.NoError(t, err)

	err = w.WriteCase(make([]Cell, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 cells")

	err = w.WriteCase([]Cell{NumCell(1), NumCell(2), StrCell(strings.Repeat("x", 21)), StrCell("ok")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width is 20")
}

func TestNewWriter_Validation(t *testing.T) {
	tests := []struct {
		name    string
		vars    []Variable
		opts    Options
		wantErr string
	}{
		{
			name:    "no variables",
			vars:    nil,
			wantErr: "no variables",
		},
		{
			name: "duplicate name",
			vars: []Variable{
				{Name: "Q1", Type: Numeric},
				{Name: "Q1", Type: Numeric},
			},
			wantErr: "duplicate variable name",
		},
		{
			name:    "name with whitespace",
			vars:    []Variable{{Name: "Q 1", Type: Numeric}},
			wantErr: "whitespace",
		},
		{
			name:    "numeric with width",
			vars:    []Variable{{Name: "Q1", Type: Numeric, Width: 8}},
			wantErr: "storage width",
		},
		{
			name:    "string without width",
			vars:    []Variable{{Name: "Q1", Type: String}},
			wantErr: "want 1..255",
		},
		{
			name:    "string too wide",
			vars:    []Variable{{Name: "Q1", Type: String, Width: 256}},
			wantErr: "want 1..255",
		},
		{
			name: "string with value labels",
			vars: []Variable{{Name: "Q1", Type: String, Width: 10,
				ValueLabels: map[float64]string{1: "Yes"}}},
			wantErr: "cannot carry value labels",
		},
		{
			name: "empty value label",
			vars: []Variable{{Name: "Q1", Type: Numeric,
				ValueLabels: map[float64]string{1: ""}}},
			wantErr: "empty label",
		},
		{
			name:    "file label too long",
			vars:    []Variable{{Name: "Q1", Type: Numeric}},
			opts:    Options{FileLabel: strings.Repeat("x", 65)},
			wantErr: "file label exceeds 64 bytes",
		},
		{
			name:    "negative case count",
			vars:    []Variable{{Name: "Q1", Type: Numeric}},
			opts:    Options{CaseCount: -1},
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := NewWriter(&buf, tt.vars, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
