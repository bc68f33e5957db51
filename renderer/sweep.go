package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/backtest"
)

// SweepMarkdown renders the outcome of a parameter sweep as one markdown
// table, one row per job. Failed jobs render their error instead of figures.
func SweepMarkdown(results []backtest.JobResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Sweep (%d runs)\n\n", len(results))
	fmt.Fprintln(&sb, "| Run | Final value | ROI | CAGR |")
	fmt.Fprintln(&sb, "|:---|---:|---:|---:|")
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(&sb, "| %s | failed: %v | | |\n", res.Name, res.Err)
			continue
		}
		r := res.Report
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", res.Name, r.FinalValue, r.ROI.SignedString(), r.CAGR.SignedString())
	}
	fmt.Fprintln(&sb, "")

	if best := bestResult(results); best != nil {
		fmt.Fprintf(&sb, "Best run: %q with ROI %s.\n", best.Name, best.Report.ROI.SignedString())
	}
	return sb.String()
}

// bestResult returns the successful result with the highest ROI, nil when
// every job failed.
func bestResult(results []backtest.JobResult) *backtest.JobResult {
	var best *backtest.JobResult
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		if best == nil || results[i].Report.ROI > best.Report.ROI {
			best = &results[i]
		}
	}
	return best
}
