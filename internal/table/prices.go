// Package table holds the date-indexed tables the pipeline reads and writes
// and their CSV encodings.
package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"SP500Returns/internal/model"
)

// PriceHeader is the column layout of a per-ticker cache file.
var PriceHeader = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// EncodePrices renders bars as a price CSV.
func EncodePrices(bars []model.OHLCV) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(PriceHeader); err != nil {
		return nil, err
	}
	for _, b := range bars {
		rec := []string{
			b.Date(),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.AdjClose),
			formatFloat(b.Volume),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode prices: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePrices parses a price CSV. Columns are located by header name, so
// extra or reordered columns are tolerated. Empty or unparsable numbers
// decode as NaN.
func DecodePrices(data []byte) ([]model.OHLCV, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("decode prices: empty file")
	}

	idx := map[string]int{}
	for i, name := range records[0] {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Date", "Open", "Close"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("decode prices: missing %q column", required)
		}
	}

	cell := func(rec []string, name string) float64 {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return math.NaN()
		}
		return parseFloat(rec[i])
	}

	bars := make([]model.OHLCV, 0, len(records)-1)
	for line, rec := range records[1:] {
		if idx["Date"] >= len(rec) {
			return nil, fmt.Errorf("decode prices: line %d: missing date", line+2)
		}
		raw := strings.TrimSpace(rec[idx["Date"]])
		if len(raw) > len(model.DateLayout) {
			raw = raw[:len(model.DateLayout)]
		}
		t, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("decode prices: line %d: %w", line+2, err)
		}
		bars = append(bars, model.OHLCV{
			Time:     t,
			Open:     cell(rec, "Open"),
			High:     cell(rec, "High"),
			Low:      cell(rec, "Low"),
			Close:    cell(rec, "Close"),
			AdjClose: cell(rec, "Adj Close"),
			Volume:   cell(rec, "Volume"),
		})
	}
	return bars, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
