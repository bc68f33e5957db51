package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
)

// runCmd holds the flags for the 'run' subcommand.
type runCmd struct {
	config  string
	history bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a single backtest from a YAML configuration" }
func (*runCmd) Usage() string {
	return `bt run -c <config.yaml> [-history]

  Replays the configured strategy against the local market data store and
  prints the run report.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "c", "backtest.yaml", "Run configuration file")
	f.BoolVar(&c.history, "history", false, "also print the day-by-day total value")
}

func (c *runCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, status := executeRun(c.config)
	if status != subcommands.ExitSuccess {
		return status
	}
	md := renderer.RunMarkdown(report)
	printMarkdown(md)
	if c.history {
		printMarkdown(renderer.HistoryMarkdown(report))
	}
	saveReport(md)
	return subcommands.ExitSuccess
}

// executeRun loads a run configuration, replays it against the local store
// and returns its report. Shared with the 'assist' subcommand.
func executeRun(config string) (*backtest.RunReport, subcommands.ExitStatus) {
	cfg, err := backtest.LoadRunConfig(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	market, err := DecodeStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading market data: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	p, err := cfg.NewPortfolio(market)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating portfolio: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	s, err := cfg.NewStrategyFor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating strategy: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	if err := p.Run(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error running backtest: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	report, err := backtest.NewRunReport(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return report, subcommands.ExitSuccess
}
