package collector

import (
	"context"
	"fmt"
	"sync"

	"SP500Returns/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars map[string][]model.OHLCV
	Err  map[string]error

	mu    sync.Mutex
	calls map[string]int
}

// NewMockFetcher creates a MockFetcher serving the given bars per symbol.
func NewMockFetcher(bars map[string][]model.OHLCV) *MockFetcher {
	return &MockFetcher{Bars: bars, Err: map[string]error{}, calls: map[string]int{}}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyHistory(_ context.Context, symbol string, rng model.DateRange) ([]model.OHLCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[symbol]++

	if err, ok := m.Err[symbol]; ok {
		return nil, err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no data for %s", symbol)
	}
	first, last := rng.Start.Format(model.DateLayout), rng.End.Format(model.DateLayout)
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if d := b.Date(); d < first || d > last {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Calls returns how many times symbol was requested.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// TotalCalls returns the number of requests across all symbols.
func (m *MockFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}
