// Package renderer formats backtest reports as markdown.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/backtest"
)

// RunMarkdown renders a single run report to a markdown string.
func RunMarkdown(r *backtest.RunReport) string {
	var sb strings.Builder
	writeRun(&sb, r)
	return sb.String()
}

func writeRun(w io.Writer, r *backtest.RunReport) {
	fmt.Fprintf(w, "# Backtest %q\n\n", r.Title)
	fmt.Fprintf(w, "*%s to %s, base currency %s*\n\n", r.Range.From, r.Range.To, r.Base)

	// Summary
	fmt.Fprintln(w, "| | |")
	fmt.Fprintln(w, "|:---|---:|")
	fmt.Fprintf(w, "| Initial value | %s |\n", r.InitialValue)
	fmt.Fprintf(w, "| Final value | %s |\n", r.FinalValue)
	fmt.Fprintf(w, "| ROI | %s |\n", r.ROI.SignedString())
	if !r.CAGR.Equal(0) {
		fmt.Fprintf(w, "| CAGR | %s |\n", r.CAGR.SignedString())
	}
	fmt.Fprintln(w, "")

	// Final positions
	fmt.Fprintln(w, "## Positions")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "| Asset | Quantity | Value |")
	fmt.Fprintln(w, "|:---|---:|---:|")
	for _, pos := range r.Positions {
		fmt.Fprintf(w, "| %s | %s | %s |\n", pos.Key, pos.Quantity, pos.Value)
	}
	fmt.Fprintln(w, "")

	// Order log
	fmt.Fprintln(w, "## Orders")
	fmt.Fprintln(w, "")
	if len(r.Orders) == 0 {
		fmt.Fprintln(w, "No orders were opened.")
		fmt.Fprintln(w, "")
		return
	}
	fmt.Fprintln(w, "| Opened | Closed | Order | Trigger | Status | Note |")
	fmt.Fprintln(w, "|:---|:---|:---|---:|:---|:---|")
	for _, o := range r.Orders {
		closed := "-"
		if !o.CloseTime.IsZero() {
			closed = o.CloseTime.String()
		}
		trigger := "-"
		if o.Trigger != 0 {
			trigger = fmt.Sprintf("%v", o.Trigger)
		}
		fmt.Fprintf(w, "| %s | %s | %s %s %v %s | %s | %s | %s |\n",
			o.OpenTime, closed, o.Kind, o.Side, o.Quantity, o.Symbol, trigger, o.Status, o.Message)
	}
	fmt.Fprintln(w, "")
}

// HistoryMarkdown renders the run's total value per day as a markdown table.
func HistoryMarkdown(r *backtest.RunReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Value history of %q\n\n", r.Title)
	fmt.Fprintln(&sb, "| Date | Total value |")
	fmt.Fprintln(&sb, "|:---|---:|")
	for on, total := range r.Totals.Values() {
		fmt.Fprintf(&sb, "| %s | %.2f |\n", on, total)
	}
	fmt.Fprintln(&sb, "")
	return sb.String()
}
