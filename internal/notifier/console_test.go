package notifier_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SP500Returns/internal/notifier"
	"SP500Returns/internal/pipeline"
	"SP500Returns/internal/recorder"
	"SP500Returns/internal/table"
)

func TestConsole_PrintHead(t *testing.T) {
	f := table.NewFrame()
	f.OuterJoin(table.Series{Name: "BRK-B", Dates: []string{"2020-01-01", "2020-01-02"}, Values: []float64{2, -1}})
	f.OuterJoin(table.Series{Name: "AAPL", Dates: []string{"2020-01-02"}, Values: []float64{0.75}})

	var buf bytes.Buffer
	notifier.NewConsoleWriter(&buf).PrintHead(f)
	out := buf.String()

	assert.Contains(t, out, "2020-01-01")
	assert.Contains(t, out, "0.75")
	assert.Contains(t, out, "[2 rows x 2 columns]")
}

func TestConsole_PrintReports(t *testing.T) {
	var buf bytes.Buffer
	notifier.NewConsoleWriter(&buf).PrintReports([]pipeline.Report{
		{Stage: pipeline.StagePrices, Tickers: 503, Fetched: 2, Skipped: 501},
	})
	assert.Contains(t, buf.String(), "501")
}

func TestConsole_PrintHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	notifier.NewConsoleWriter(&buf).PrintHistory(nil)
	assert.Equal(t, "no runs recorded\n", buf.String())

	buf.Reset()
	notifier.NewConsoleWriter(&buf).PrintHistory([]recorder.RunEvent{{Stage: "index", Rows: 5000}})
	assert.Contains(t, buf.String(), "5000")
}

func TestFormatRunSummary(t *testing.T) {
	reports := []pipeline.Report{
		{Stage: pipeline.StagePrices, Tickers: 503, Fetched: 3, Skipped: 500},
		{Stage: pipeline.StageReturns, Tickers: 503, Rows: 6100},
		{Stage: pipeline.StageIndex, Tickers: 1, Fetched: 1, Skipped: 1, Rows: 6100},
	}
	msg := notifier.FormatRunSummary(reports, nil)
	assert.Contains(t, msg, "✅")
	assert.Contains(t, msg, "503 tickers, 3 fetched, 500 cached")
	assert.Contains(t, msg, "503 tickers x 6100 dates")
	assert.Contains(t, msg, "already cached")

	msg = notifier.FormatRunSummary(reports[:1], errors.New("fetch <AAPL>: boom"))
	assert.Contains(t, msg, "❌")
	assert.Contains(t, msg, "fetch &lt;AAPL&gt;: boom")
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottok/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := notifier.NewTelegramNotifier("tok", "42", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
}

func TestTelegramNotifier_SendWithRetryHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tn := notifier.NewTelegramNotifier("tok", "42", "")
	tn.APIBase = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := tn.SendWithRetry(ctx, "hello", 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTelegramNotifier_NoRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tn := notifier.NewTelegramNotifier("tok", "42", "")
	tn.APIBase = srv.URL
	err := tn.SendWithRetry(context.Background(), "hello", 0)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
