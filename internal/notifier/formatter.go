package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"SP500Returns/internal/pipeline"
)

// FormatRunSummary formats the outcome of a pipeline run into a Telegram message.
func FormatRunSummary(reports []pipeline.Report, runErr error) string {
	var b strings.Builder

	status := "✅"
	if runErr != nil {
		status = "❌"
	}
	b.WriteString(fmt.Sprintf("%s <b>SP500 dataset run</b> | %s\n\n", status, time.Now().Format("2006-01-02 15:04")))

	for _, r := range reports {
		switch r.Stage {
		case pipeline.StagePrices:
			b.WriteString(fmt.Sprintf("prices: %d tickers, %d fetched, %d cached\n", r.Tickers, r.Fetched, r.Skipped))
		case pipeline.StageReturns:
			b.WriteString(fmt.Sprintf("returns: %d tickers x %d dates\n", r.Tickers, r.Rows))
		case pipeline.StageIndex:
			cached := ""
			if r.Skipped > 0 {
				cached = " (already cached)"
			}
			b.WriteString(fmt.Sprintf("index: %d labels%s\n", r.Rows, cached))
		default:
			b.WriteString(fmt.Sprintf("%s: %d tickers\n", r.Stage, r.Tickers))
		}
	}

	if runErr != nil {
		b.WriteString(fmt.Sprintf("\nerror: %s\n", html.EscapeString(runErr.Error())))
	}
	return b.String()
}
