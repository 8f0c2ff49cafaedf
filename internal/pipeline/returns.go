package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"SP500Returns/internal/cache"
	"SP500Returns/internal/calculator"
	"SP500Returns/internal/table"
)

// CompileReturns joins the cached return series of every listed ticker and
// writes the wide table. The output is regenerated on every call.
func (p *Pipeline) CompileReturns(ctx context.Context) (*table.Frame, error) {
	frame, _, err := p.compileStage(ctx)
	return frame, err
}

func (p *Pipeline) compileStage(ctx context.Context) (*table.Frame, Report, error) {
	start := time.Now()
	rep := Report{Stage: StageReturns}

	frame, err := p.compileReturns(ctx, &rep)
	rep.Duration = time.Since(start)
	p.record(rep, err)
	return frame, rep, err
}

func (p *Pipeline) compileReturns(ctx context.Context, rep *Report) (*table.Frame, error) {
	symbols, err := p.List.Load()
	if err != nil {
		return nil, err
	}
	rep.Tickers = len(symbols)

	frame, err := JoinReturns(ctx, p.Cache, symbols)
	if err != nil {
		return nil, err
	}
	rep.Rows = frame.Len()

	if p.Printer != nil {
		p.Printer.PrintHead(frame.Head(HeadRows))
	}

	if p.JoinedOutput == nil {
		return frame, nil
	}
	w, err := p.JoinedOutput()
	if err != nil {
		return nil, fmt.Errorf("open joined output: %w", err)
	}
	if err := frame.WriteCSV(w); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close joined output: %w", err)
	}
	log.Printf("[INFO] joined %d tickers over %d dates", len(frame.Columns()), frame.Len())
	return frame, nil
}

// JoinReturns outer-joins the return series of symbols in list order. Every
// symbol must be cached.
func JoinReturns(ctx context.Context, store cache.Store, symbols []string) (*table.Frame, error) {
	frame := table.NewFrame()
	seen := make(map[string]bool, len(symbols))
	for i, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := store.Get(sym)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", sym, err)
		}
		bars, err := table.DecodePrices(data)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", sym, err)
		}
		if seen[sym] {
			log.Printf("[WARN] duplicate ticker %s produces a duplicate column", sym)
		}
		seen[sym] = true
		frame.OuterJoin(calculator.ReturnSeries(sym, bars))
		if (i+1)%100 == 0 {
			log.Printf("[INFO] joined %d/%d", i+1, len(symbols))
		}
	}
	return frame, nil
}
