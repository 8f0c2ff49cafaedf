package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// Series is a single named column indexed by date key.
type Series struct {
	Name   string
	Dates  []string
	Values []float64
}

// Len returns the number of points in the series.
func (s Series) Len() int { return len(s.Dates) }

// Frame is a wide table indexed by date key. Rows are kept in ascending
// date order; cells with no value hold NaN.
type Frame struct {
	cols  []string
	index []string
	rows  map[string][]float64
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{rows: map[string][]float64{}}
}

// Empty reports whether the frame has no columns yet.
func (f *Frame) Empty() bool { return len(f.cols) == 0 }

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.index) }

// Columns returns the column names in join order.
func (f *Frame) Columns() []string { return append([]string(nil), f.cols...) }

// Index returns the date keys in ascending order.
func (f *Frame) Index() []string { return append([]string(nil), f.index...) }

// Row returns the values of the row at date, aligned with Columns.
func (f *Frame) Row(date string) ([]float64, bool) {
	r, ok := f.rows[date]
	return r, ok
}

// Value returns the cell at date in the first column named col.
func (f *Frame) Value(date, col string) (float64, bool) {
	r, ok := f.rows[date]
	if !ok {
		return 0, false
	}
	for i, c := range f.cols {
		if c == col {
			return r[i], true
		}
	}
	return 0, false
}

// OuterJoin appends s as a new column. The result keeps every date seen in
// either side; cells missing on one side are NaN. A column whose name is
// already present is appended again rather than merged.
func (f *Frame) OuterJoin(s Series) {
	n := len(f.cols)
	f.cols = append(f.cols, s.Name)
	for d, r := range f.rows {
		f.rows[d] = append(r, math.NaN())
	}
	added := false
	for i, d := range s.Dates {
		r, ok := f.rows[d]
		if !ok {
			r = make([]float64, n+1)
			for j := range r {
				r[j] = math.NaN()
			}
			f.rows[d] = r
			f.index = append(f.index, d)
			added = true
		}
		r[n] = s.Values[i]
	}
	if added {
		sort.Strings(f.index)
	}
}

// Head returns a frame holding the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > len(f.index) {
		n = len(f.index)
	}
	h := &Frame{
		cols:  f.Columns(),
		index: append([]string(nil), f.index[:n]...),
		rows:  make(map[string][]float64, n),
	}
	for _, d := range h.index {
		h.rows[d] = append([]float64(nil), f.rows[d]...)
	}
	return h
}

// Records renders the frame as CSV records, header first.
func (f *Frame) Records() [][]string {
	out := make([][]string, 0, len(f.index)+1)
	out = append(out, append([]string{"Date"}, f.cols...))
	for _, d := range f.index {
		rec := make([]string, 0, len(f.cols)+1)
		rec = append(rec, d)
		for _, v := range f.rows[d] {
			rec = append(rec, formatFloat(v))
		}
		out = append(out, rec)
	}
	return out
}

// WriteCSV writes the frame with a leading Date column. NaN cells are empty.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(f.Records()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// EncodeLabels renders a 0/1 series as a two-column CSV of integers.
func EncodeLabels(s Series) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Date", s.Name}); err != nil {
		return nil, err
	}
	for i, d := range s.Dates {
		if err := w.Write([]string{d, strconv.Itoa(int(s.Values[i]))}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}
	return buf.Bytes(), nil
}
