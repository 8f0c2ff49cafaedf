package collector

import (
	"context"

	"SP500Returns/internal/model"
)

// Fetcher defines the interface for downloading daily price history.
type Fetcher interface {
	FetchDailyHistory(ctx context.Context, symbol string, rng model.DateRange) ([]model.OHLCV, error)
	Name() string
}
