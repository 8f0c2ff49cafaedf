package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SP500Returns/internal/cache"
	"SP500Returns/internal/collector"
	"SP500Returns/internal/model"
	"SP500Returns/internal/pipeline"
	"SP500Returns/internal/recorder"
	"SP500Returns/internal/table"
	"SP500Returns/internal/tickers"
)

type fakeRecorder struct {
	mu      sync.Mutex
	runs    []recorder.RunEvent
	fetches []recorder.FetchEvent
}

func (r *fakeRecorder) RecordRun(evt *recorder.RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *evt)
	return nil
}

func (r *fakeRecorder) RecordFetch(evt *recorder.FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, *evt)
	return nil
}

func (r *fakeRecorder) Close() error { return nil }

type headCapture struct{ frames []*table.Frame }

func (h *headCapture) PrintHead(f *table.Frame) { h.frames = append(h.frames, f) }

type bufCloser struct{ bytes.Buffer }

func (b *bufCloser) Close() error { return nil }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(t time.Time, open, close float64) model.OHLCV {
	return model.OHLCV{Time: t, Open: open, High: math.Max(open, close), Low: math.Min(open, close), Close: close, AdjClose: close, Volume: 1000}
}

type harness struct {
	p       *pipeline.Pipeline
	fetcher *collector.MockFetcher
	store   *cache.MemStore
	list    *tickers.MemListStore
	rec     *fakeRecorder
	heads   *headCapture
	out     *bufCloser
}

func newHarness(t *testing.T, bars map[string][]model.OHLCV) *harness {
	t.Helper()
	h := &harness{
		fetcher: collector.NewMockFetcher(bars),
		store:   cache.NewMemStore(),
		list:    &tickers.MemListStore{},
		rec:     &fakeRecorder{},
		heads:   &headCapture{},
		out:     &bufCloser{},
	}
	h.p = &pipeline.Pipeline{
		List:        h.list,
		Fetcher:     h.fetcher,
		Cache:       h.store,
		Recorder:    h.rec,
		Printer:     h.heads,
		Range:       model.DefaultRange(day(2021, 6, 30)),
		IndexSymbol: "SPY",
		JoinedOutput: func() (io.WriteCloser, error) {
			h.out.Reset()
			return h.out, nil
		},
	}
	return h
}

func sampleBars() map[string][]model.OHLCV {
	return map[string][]model.OHLCV{
		"BRK-B": {bar(day(2020, 1, 1), 10, 12), bar(day(2020, 1, 2), 12, 11)},
		"AAPL":  {bar(day(2020, 1, 2), 100, 101), bar(day(2020, 1, 3), 101, 101.5)},
		"SPY": {
			bar(day(2020, 1, 2), 100, 99),
			bar(day(2020, 1, 3), 100, 100),
			bar(day(2020, 1, 6), 100, 100.01),
		},
	}
}

func TestFetchPrices_MissingTickerList(t *testing.T) {
	h := newHarness(t, sampleBars())
	_, err := h.p.FetchPrices(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Zero(t, h.fetcher.TotalCalls())
}

func TestFetchPrices_SecondRunMakesNoCalls(t *testing.T) {
	h := newHarness(t, sampleBars())
	require.NoError(t, h.list.Save([]string{"BRK-B", "AAPL"}))

	rep, err := h.p.FetchPrices(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Fetched)
	assert.Equal(t, 0, rep.Skipped)
	assert.Equal(t, 2, h.fetcher.TotalCalls())

	rep, err = h.p.FetchPrices(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Fetched)
	assert.Equal(t, 2, rep.Skipped)
	assert.Equal(t, 2, h.fetcher.TotalCalls(), "cached tickers must not be fetched again")

	data, err := h.store.Get("BRK-B")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Date,Open,High,Low,Close,Adj Close,Volume\n"))
}

func TestFetchPrices_StopsAtFirstError(t *testing.T) {
	bars := sampleBars()
	bars["MSFT"] = []model.OHLCV{bar(day(2020, 1, 2), 1, 2)}
	h := newHarness(t, bars)
	h.fetcher.Err["AAPL"] = errors.New("provider down")
	require.NoError(t, h.list.Save([]string{"BRK-B", "AAPL", "MSFT"}))

	rep, err := h.p.FetchPrices(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAPL")
	assert.Equal(t, 1, rep.Fetched)

	assert.True(t, h.store.Has("BRK-B"), "partial progress stays cached")
	assert.False(t, h.store.Has("AAPL"))
	assert.Zero(t, h.fetcher.Calls("MSFT"), "tickers after the failure are not attempted")

	require.Len(t, h.rec.runs, 1)
	assert.Equal(t, pipeline.StagePrices, h.rec.runs[0].Stage)
	assert.Contains(t, h.rec.runs[0].Err, "provider down")
}

func TestFetchPrices_ReloadScrapesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<table id="constituents"><tr><th>Symbol</th></tr><tr><td>BRK.B</td></tr><tr><td>AAPL</td></tr></table>`))
	}))
	defer srv.Close()

	h := newHarness(t, sampleBars())
	h.p.Lister = tickers.NewLister(srv.URL, "")

	rep, err := h.p.FetchPrices(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Fetched)

	list, err := h.list.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"BRK-B", "AAPL"}, list)
	assert.Equal(t, 1, h.fetcher.Calls("BRK-B"))
}

func TestCompileReturns_JoinsInListOrder(t *testing.T) {
	h := newHarness(t, sampleBars())
	require.NoError(t, h.list.Save([]string{"BRK-B", "AAPL"}))
	_, err := h.p.FetchPrices(context.Background(), false)
	require.NoError(t, err)

	frame, err := h.p.CompileReturns(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"BRK-B", "AAPL"}, frame.Columns())
	assert.Equal(t, 3, frame.Len())

	v, ok := frame.Value("2020-01-01", "BRK-B")
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 1e-9)

	v, _ = frame.Value("2020-01-01", "AAPL")
	assert.True(t, math.IsNaN(v))

	assert.Equal(t,
		"Date,BRK-B,AAPL\n2020-01-01,2,\n2020-01-02,-1,1\n2020-01-03,,0.5\n",
		h.out.String())

	require.Len(t, h.heads.frames, 1)
	assert.Equal(t, 3, h.heads.frames[0].Len())
}

func TestCompileReturns_RegeneratedEachRun(t *testing.T) {
	h := newHarness(t, sampleBars())
	require.NoError(t, h.list.Save([]string{"AAPL"}))
	_, err := h.p.FetchPrices(context.Background(), false)
	require.NoError(t, err)

	_, err = h.p.CompileReturns(context.Background())
	require.NoError(t, err)
	first := h.out.String()

	_, err = h.p.CompileReturns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, h.out.String())
}

func TestCompileReturns_MissingCacheEntry(t *testing.T) {
	h := newHarness(t, sampleBars())
	require.NoError(t, h.list.Save([]string{"AAPL"}))

	_, err := h.p.CompileReturns(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cache.ErrNotCached))
}

func TestJoinReturns_DuplicateTickerDuplicatesColumn(t *testing.T) {
	store := cache.NewMemStore()
	data, err := table.EncodePrices([]model.OHLCV{bar(day(2020, 1, 1), 10, 12)})
	require.NoError(t, err)
	require.NoError(t, store.Put("AAPL", data))

	frame, err := pipeline.JoinReturns(context.Background(), store, []string{"AAPL", "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "AAPL"}, frame.Columns())
}

func TestLabelIndex_WritesLabels(t *testing.T) {
	h := newHarness(t, sampleBars())

	labels, err := h.p.LabelIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SPYUpDown", labels.Name)
	assert.Equal(t, []float64{0, 0, 1}, labels.Values)

	data, err := h.store.Get("SPY")
	require.NoError(t, err)
	assert.Equal(t, "Date,SPYUpDown\n2020-01-02,0\n2020-01-03,0\n2020-01-06,1\n", string(data))
}

func TestLabelIndex_AlwaysFetchesButNeverOverwrites(t *testing.T) {
	h := newHarness(t, sampleBars())
	require.NoError(t, h.store.Put("SPY", []byte("Date,SPYUpDown\n")))

	_, err := h.p.LabelIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, h.fetcher.Calls("SPY"))

	data, err := h.store.Get("SPY")
	require.NoError(t, err)
	assert.Equal(t, "Date,SPYUpDown\n", string(data))

	require.Len(t, h.rec.runs, 1)
	assert.Equal(t, 1, h.rec.runs[0].Skipped)
}

func TestLabelIndex_FetchError(t *testing.T) {
	h := newHarness(t, sampleBars())
	h.fetcher.Err["SPY"] = errors.New("timeout")

	_, err := h.p.LabelIndex(context.Background())
	require.Error(t, err)
	assert.False(t, h.store.Has("SPY"))
}

func TestRunAll(t *testing.T) {
	h := newHarness(t, sampleBars())
	require.NoError(t, h.list.Save([]string{"BRK-B", "AAPL"}))

	reports, err := h.p.RunAll(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, pipeline.StagePrices, reports[0].Stage)
	assert.Equal(t, pipeline.StageReturns, reports[1].Stage)
	assert.Equal(t, 3, reports[1].Rows)
	assert.Equal(t, pipeline.StageIndex, reports[2].Stage)
	assert.Equal(t, 3, reports[2].Rows)

	assert.Len(t, h.rec.runs, 3)
	assert.Len(t, h.rec.fetches, 2)
	assert.True(t, h.store.Has("SPY"))
}

func TestRunAll_StopsOnFetchFailure(t *testing.T) {
	h := newHarness(t, sampleBars())
	h.fetcher.Err["AAPL"] = errors.New("provider down")
	require.NoError(t, h.list.Save([]string{"BRK-B", "AAPL"}))

	reports, err := h.p.RunAll(context.Background(), false)
	require.Error(t, err)
	assert.Len(t, reports, 1)
	assert.Zero(t, h.out.Len())
	assert.Zero(t, h.fetcher.Calls("SPY"))
}
