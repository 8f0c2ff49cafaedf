// Package pipeline runs the four dataset stages: list tickers, fetch
// prices into the cache, join per-ticker returns and label the index.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"SP500Returns/internal/cache"
	"SP500Returns/internal/collector"
	"SP500Returns/internal/model"
	"SP500Returns/internal/recorder"
	"SP500Returns/internal/table"
	"SP500Returns/internal/tickers"
)

// Stage names as recorded in the run ledger.
const (
	StageTickers = "tickers"
	StagePrices  = "prices"
	StageReturns = "returns"
	StageIndex   = "index"
)

// HeadRows is how many joined rows are shown after CompileReturns.
const HeadRows = 5

// Printer renders the head of the joined table.
type Printer interface {
	PrintHead(f *table.Frame)
}

// Pipeline wires the stages to their collaborators. Every stage runs
// synchronously and stops at the first error; anything already cached stays.
type Pipeline struct {
	Lister   *tickers.Lister
	List     tickers.ListStore
	Fetcher  collector.Fetcher
	Cache    cache.Store
	Recorder recorder.Recorder
	Printer  Printer
	Range    model.DateRange
	// Window, when set, resolves the download range each time a stage
	// starts and takes precedence over Range.
	Window      func() model.DateRange
	IndexSymbol string
	// JoinedOutput opens the destination of the joined table; it is
	// called once per CompileReturns run.
	JoinedOutput func() (io.WriteCloser, error)
}

// Report is the outcome of a single stage.
type Report struct {
	Stage    string
	Tickers  int
	Fetched  int
	Skipped  int
	Rows     int
	Duration time.Duration
}

func (p *Pipeline) window() model.DateRange {
	if p.Window != nil {
		return p.Window()
	}
	return p.Range
}

// SaveTickers scrapes the constituents page and persists the list.
func (p *Pipeline) SaveTickers(ctx context.Context) ([]string, error) {
	start := time.Now()
	symbols, err := p.Lister.SaveSP500Tickers(ctx, p.List)
	p.record(Report{Stage: StageTickers, Tickers: len(symbols), Duration: time.Since(start)}, err)
	return symbols, err
}

// loadTickers returns a fresh scrape when reload is set, otherwise the persisted list.
func (p *Pipeline) loadTickers(ctx context.Context, reload bool) ([]string, error) {
	if reload {
		return p.SaveTickers(ctx)
	}
	return p.List.Load()
}

// FetchPrices downloads the full history of every ticker not yet cached.
func (p *Pipeline) FetchPrices(ctx context.Context, reload bool) (Report, error) {
	start := time.Now()
	symbols, err := p.loadTickers(ctx, reload)
	if err != nil {
		rep := Report{Stage: StagePrices, Duration: time.Since(start)}
		p.record(rep, err)
		return rep, err
	}

	rep, err := FetchAll(ctx, p.Fetcher, p.Cache, p.Recorder, symbols, p.window())
	rep.Duration = time.Since(start)
	p.record(rep, err)
	return rep, err
}

// FetchAll walks symbols in order, fetching and caching each one that is
// absent from store. The first failure aborts the walk.
func FetchAll(ctx context.Context, f collector.Fetcher, store cache.Store, rec recorder.Recorder, symbols []string, rng model.DateRange) (Report, error) {
	rep := Report{Stage: StagePrices, Tickers: len(symbols)}
	for _, sym := range symbols {
		log.Printf("[INFO] %s", sym)
		if store.Has(sym) {
			log.Printf("[INFO] already have %s", sym)
			rep.Skipped++
			recordFetch(rec, &recorder.FetchEvent{Symbol: sym, Provider: f.Name(), Skipped: true})
			continue
		}
		bars, err := f.FetchDailyHistory(ctx, sym, rng)
		if err != nil {
			return rep, fmt.Errorf("fetch %s: %w", sym, err)
		}
		data, err := table.EncodePrices(bars)
		if err != nil {
			return rep, fmt.Errorf("encode %s: %w", sym, err)
		}
		if err := store.Put(sym, data); err != nil {
			return rep, fmt.Errorf("cache %s: %w", sym, err)
		}
		rep.Fetched++
		recordFetch(rec, &recorder.FetchEvent{Symbol: sym, Provider: f.Name(), Bars: len(bars)})
	}
	return rep, nil
}

func (p *Pipeline) record(rep Report, err error) {
	if p.Recorder == nil {
		return
	}
	evt := &recorder.RunEvent{
		Stage:    rep.Stage,
		Tickers:  rep.Tickers,
		Fetched:  rep.Fetched,
		Skipped:  rep.Skipped,
		Rows:     rep.Rows,
		Duration: rep.Duration,
	}
	if err != nil {
		evt.Err = err.Error()
	}
	if rerr := p.Recorder.RecordRun(evt); rerr != nil {
		log.Printf("[ERROR] record %s run: %v", rep.Stage, rerr)
	}
}

func recordFetch(rec recorder.Recorder, evt *recorder.FetchEvent) {
	if rec == nil {
		return
	}
	if err := rec.RecordFetch(evt); err != nil {
		log.Printf("[ERROR] record fetch %s: %v", evt.Symbol, err)
	}
}
