package model

import "time"

// DateLayout is the date key used in every cached table.
const DateLayout = "2006-01-02"

// OHLCV represents a single daily price bar.
type OHLCV struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// Date returns the bar's date key.
func (b OHLCV) Date() string {
	return b.Time.Format(DateLayout)
}

// DateRange is an inclusive span of trading days to request from a provider.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// HistoryStart is the first day of every full-history download.
var HistoryStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultRange returns [2000-01-01, today] relative to now.
func DefaultRange(now time.Time) DateRange {
	y, m, d := now.Date()
	return DateRange{
		Start: HistoryStart,
		End:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
