package calculator

import (
	"SP500Returns/internal/model"
	"SP500Returns/internal/table"
)

// Return is the intraday move of a bar: close minus open.
func Return(b model.OHLCV) float64 {
	return b.Close - b.Open
}

// ReturnSeries computes the daily return of every bar under the given column name.
func ReturnSeries(name string, bars []model.OHLCV) table.Series {
	s := table.Series{
		Name:   name,
		Dates:  make([]string, len(bars)),
		Values: make([]float64, len(bars)),
	}
	for i, b := range bars {
		s.Dates[i] = b.Date()
		s.Values[i] = Return(b)
	}
	return s
}

// UpDown maps a return to a binary label. Only a strictly positive return
// is an up day; zero, negative and NaN are 0.
func UpDown(ret float64) int {
	if ret > 0 {
		return 1
	}
	return 0
}

// LabelSeries computes the up/down label of every bar under the given column name.
func LabelSeries(name string, bars []model.OHLCV) table.Series {
	s := ReturnSeries(name, bars)
	for i, r := range s.Values {
		s.Values[i] = float64(UpDown(r))
	}
	return s
}
