package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type reportCmd struct{}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "show the latest run or sweep report again" }
func (*reportCmd) Usage() string {
	return `bt report

  Renders the report of the latest 'run' or 'sweep' again, without
  replaying the simulation.
`
}

func (*reportCmd) SetFlags(_ *flag.FlagSet) {}

func (c *reportCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	raw, err := os.ReadFile(lastReportFile())
	if err != nil {
		fmt.Fprintln(os.Stderr, "No saved report; run 'bt run' or 'bt sweep' first.")
		return subcommands.ExitFailure
	}
	printMarkdown(string(raw))
	return subcommands.ExitSuccess
}
