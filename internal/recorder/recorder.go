package recorder

import "time"

// RunEvent summarizes one pipeline stage execution.
type RunEvent struct {
	Stage    string // "tickers", "prices", "returns", "index"
	Tickers  int
	Fetched  int
	Skipped  int
	Rows     int
	Duration time.Duration
	Err      string
}

// FetchEvent records a single per-symbol cache decision.
type FetchEvent struct {
	Symbol   string
	Provider string
	Bars     int
	Skipped  bool // cache already held the symbol
}

// Recorder persists pipeline history for later inspection.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordFetch(evt *FetchEvent) error
	Close() error
}
