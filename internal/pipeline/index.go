package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"SP500Returns/internal/calculator"
	"SP500Returns/internal/table"
)

// LabelColumn is the label column name for an index symbol.
func LabelColumn(symbol string) string {
	return symbol + "UpDown"
}

// LabelIndex downloads the index history, labels each day up (1) or not
// (0) and caches the labels unless an entry already exists. The download
// always happens, cached or not.
func (p *Pipeline) LabelIndex(ctx context.Context) (table.Series, error) {
	labels, _, err := p.labelStage(ctx)
	return labels, err
}

func (p *Pipeline) labelStage(ctx context.Context) (table.Series, Report, error) {
	start := time.Now()
	rep := Report{Stage: StageIndex, Tickers: 1}

	labels, err := p.labelIndex(ctx, &rep)
	rep.Duration = time.Since(start)
	p.record(rep, err)
	return labels, rep, err
}

func (p *Pipeline) labelIndex(ctx context.Context, rep *Report) (table.Series, error) {
	sym := p.IndexSymbol
	rng := p.window()
	bars, err := p.Fetcher.FetchDailyHistory(ctx, sym, rng)
	if err != nil {
		return table.Series{}, fmt.Errorf("fetch %s: %w", sym, err)
	}
	rep.Fetched = 1

	labels := calculator.LabelSeries(LabelColumn(sym), bars)
	rep.Rows = labels.Len()

	if p.Cache.Has(sym) {
		log.Printf("[INFO] already have %s", sym)
		rep.Skipped = 1
		return labels, nil
	}
	data, err := table.EncodeLabels(labels)
	if err != nil {
		return table.Series{}, err
	}
	if err := p.Cache.Put(sym, data); err != nil {
		return table.Series{}, fmt.Errorf("cache %s: %w", sym, err)
	}
	return labels, nil
}

// RunAll executes every stage in order and stops at the first failure.
// The ticker list is re-scraped only when reload is set.
func (p *Pipeline) RunAll(ctx context.Context, reload bool) ([]Report, error) {
	var reports []Report

	rep, err := p.FetchPrices(ctx, reload)
	reports = append(reports, rep)
	if err != nil {
		return reports, err
	}

	_, rep, err = p.compileStage(ctx)
	reports = append(reports, rep)
	if err != nil {
		return reports, err
	}

	_, rep, err = p.labelStage(ctx)
	reports = append(reports, rep)
	return reports, err
}
