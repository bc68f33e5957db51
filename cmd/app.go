// Package cmd implements the CLI application to fetch market data and run
// backtests.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/backtest"
	"github.com/google/subcommands"
)

// Commands lists the subcommands of the application.
// A main package registers them all and Executes the user-selected one.
var Commands = []subcommands.Command{
	&fetchCmd{},
	&runCmd{},
	&sweepCmd{},
	&reportCmd{},
	&assistCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dataPath = flag.String("data-path", ".marketdata", "Path to the market data folder (JSONL files, one per symbol)")

// DecodeStore reads the market data from the app data folder.
func DecodeStore() (*backtest.MarketData, error) {
	m, err := backtest.DecodeMarketData(*dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, market data folder does not exist, starting empty")
		return backtest.NewMarketData(), nil
	}
	return m, err
}

// EncodeStore writes the market data back into the app data folder.
func EncodeStore(m *backtest.MarketData) error {
	return backtest.EncodeMarketData(*dataPath, m)
}

// lastReportFile is where run and sweep keep their latest rendered report,
// for the 'report' subcommand to show again.
func lastReportFile() string { return filepath.Join(*dataPath, "last-report.md") }

// saveReport stores the markdown of the latest run or sweep. Failing to save
// is only a warning: the report was already printed.
func saveReport(md string) {
	if err := os.MkdirAll(*dataPath, 0755); err != nil {
		log.Println("warning, cannot save report:", err)
		return
	}
	if err := os.WriteFile(lastReportFile(), []byte(md), 0644); err != nil {
		log.Println("warning, cannot save report:", err)
	}
}

// printMarkdown renders markdown for the terminal and prints it. It falls
// back to the raw markdown when the terminal renderer fails.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning, cannot render markdown:", err)
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
