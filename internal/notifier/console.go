package notifier

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"SP500Returns/internal/pipeline"
	"SP500Returns/internal/recorder"
	"SP500Returns/internal/table"
)

// Console renders tables to a terminal writer.
type Console struct {
	out io.Writer
}

// NewConsole creates a console printer that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a console printer for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintHead prints the first rows of the joined return table.
func (c *Console) PrintHead(f *table.Frame) {
	recs := f.Records()
	tw := tablewriter.NewWriter(c.out)
	tw.Header(toAny(recs[0])...)
	for _, rec := range recs[1:] {
		if err := tw.Append(toAny(rec)...); err != nil {
			log.Printf("[WARN] render head row: %v", err)
		}
	}
	if err := tw.Render(); err != nil {
		log.Printf("[WARN] render head: %v", err)
	}
	fmt.Fprintf(c.out, "[%d rows x %d columns]\n", f.Len(), len(f.Columns()))
}

// PrintReports prints one line per stage outcome.
func (c *Console) PrintReports(reports []pipeline.Report) {
	tw := tablewriter.NewWriter(c.out)
	tw.Header("Stage", "Tickers", "Fetched", "Skipped", "Rows", "Took")
	for _, r := range reports {
		tw.Append(
			r.Stage,
			fmt.Sprintf("%d", r.Tickers),
			fmt.Sprintf("%d", r.Fetched),
			fmt.Sprintf("%d", r.Skipped),
			fmt.Sprintf("%d", r.Rows),
			r.Duration.Round(time.Millisecond).String(),
		)
	}
	tw.Render()
}

// PrintHistory prints recorded stage runs, newest first.
func (c *Console) PrintHistory(runs []recorder.RunEvent) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no runs recorded")
		return
	}
	tw := tablewriter.NewWriter(c.out)
	tw.Header("Stage", "Tickers", "Fetched", "Skipped", "Rows", "Took", "Error")
	for _, r := range runs {
		tw.Append(
			r.Stage,
			fmt.Sprintf("%d", r.Tickers),
			fmt.Sprintf("%d", r.Fetched),
			fmt.Sprintf("%d", r.Skipped),
			fmt.Sprintf("%d", r.Rows),
			r.Duration.String(),
			r.Err,
		)
	}
	tw.Render()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
