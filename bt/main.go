package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command tree for shell completion. It must be
// kept in sync with cmd.Commands.
func completion() *complete.Command {
	yaml := predict.Files("*.yaml")
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"data-path": predict.Dirs("*"),
		},
		Sub: map[string]*complete.Command{
			"fetch": {
				Flags: map[string]complete.Predictor{
					"a":    predict.Set(backtest.FetcherNames()),
					"from": predict.Something,
					"to":   predict.Something,
				},
			},
			"run": {
				Flags: map[string]complete.Predictor{
					"c":       yaml,
					"history": predict.Nothing,
				},
			},
			"sweep": {
				Flags: map[string]complete.Predictor{
					"c": yaml,
					"w": predict.Something,
				},
			},
			"assist": {
				Flags: map[string]complete.Predictor{
					"c": yaml,
				},
			},
			"report": {},
			"topic": {
				Args: predict.Something,
			},
		},
	}
}

func main() {
	// Handles shell completion requests and exits, a no-op otherwise.
	completion().Complete("bt")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
