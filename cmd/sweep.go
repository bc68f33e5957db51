package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
)

// sweepCmd holds the flags for the 'sweep' subcommand.
type sweepCmd struct {
	config  string
	workers int
}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "run a parameter grid of backtests in parallel" }
func (*sweepCmd) Usage() string {
	return `bt sweep -c <sweep.yaml> [-w <workers>]

  Expands the configured parameter grid into independent backtests, runs
  them in parallel and prints the comparison table. A failing run reports
  its error without aborting the rest of the sweep.
`
}

func (c *sweepCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "c", "sweep.yaml", "Sweep configuration file")
	f.IntVar(&c.workers, "w", runtime.NumCPU(), "Number of parallel workers")
}

func (c *sweepCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := backtest.LoadSweepConfig(c.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	jobs, err := cfg.Jobs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error expanding grid: %v\n", err)
		return subcommands.ExitUsageError
	}
	market, err := DecodeStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading market data: %v\n", err)
		return subcommands.ExitFailure
	}

	workers := c.workers
	if cfg.Workers > 0 && c.workers == runtime.NumCPU() {
		workers = cfg.Workers
	}
	results := backtest.RunSweep(market, jobs, workers)
	md := renderer.SweepMarkdown(results)
	printMarkdown(md)
	saveReport(md)

	for _, res := range results {
		if res.Err != nil {
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
