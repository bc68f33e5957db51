package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/backtest"
	"github.com/google/subcommands"
)

// fetchCmd holds the flags for the 'fetch' subcommand.
type fetchCmd struct {
	adapter string
	from    string
	to      string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch daily bars for symbols into the local store" }
func (*fetchCmd) Usage() string {
	return `bt fetch -a <adapter> [-from <date>] [-to <date>] <symbol>...

  Fetches daily OHLC bars from a market data adapter and merges them into
  the local JSONL store. Known bars are kept; a conflicting bar for an
  already-known day is an error.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.adapter, "a", "", "Adapter to fetch from, one of "+strings.Join(backtest.FetcherNames(), ", "))
	f.StringVar(&c.from, "from", "", "First date to fetch (ISO-8601)")
	f.StringVar(&c.to, "to", backtest.Today().String(), "Last date to fetch (ISO-8601)")
}

func (c *fetchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required")
		return subcommands.ExitUsageError
	}
	fetcher, err := backtest.NewFetcher(c.adapter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	var r backtest.Range
	if c.from != "" {
		if r.From, err = backtest.ParseDate(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -from: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.to != "" {
		if r.To, err = backtest.ParseDate(c.to); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -to: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	store, err := DecodeStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading market data: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, symbol := range f.Args() {
		bars, err := fetcher.Fetch(symbol, r)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching %q: %v\n", symbol, err)
			return subcommands.ExitFailure
		}
		if err := store.MergeBars(bars); err != nil {
			fmt.Fprintf(os.Stderr, "Error merging %q: %v\n", symbol, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("fetched %d bars for %q\n", len(bars), symbol)
	}

	if err := EncodeStore(store); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing market data: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
