package backtest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// This file contains code to persist market data in a folder, in a way that
// is still human-readable and git-friendly: one JSONL file per symbol, one
// bar per line, in chronological order.
//
// Duplicate dates for a symbol are rejected while decoding: data-integrity
// errors must surface at ingestion, not at simulation time.

const marketDataFilesGlob = "*.jsonl"

// marketDataFile returns the store file name for a symbol. Path separators
// in symbols like "BTC-USD" never occur; EODHD's "AAPL.US" notation is kept
// as-is, the extension is appended.
func marketDataFile(symbol string) string { return symbol + ".jsonl" }

// DecodeMarketData reads every symbol file of a market data folder.
func DecodeMarketData(dir string) (*MarketData, error) {
	files, err := filepath.Glob(filepath.Join(dir, marketDataFilesGlob))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		if _, serr := os.Stat(dir); errors.Is(serr, fs.ErrNotExist) {
			return nil, fmt.Errorf("market data folder %q: %w", dir, fs.ErrNotExist)
		}
	}
	m := NewMarketData()
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		err = m.decodeBars(file, f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// decodeBars parses a single JSONL file of bars. filename is for error
// messages only.
func (m *MarketData) decodeBars(filename string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		txt := strings.TrimSpace(scanner.Text())
		if txt == "" {
			continue
		}
		var b Bar
		if err := json.Unmarshal([]byte(txt), &b); err != nil {
			return fmt.Errorf("format error in %q line %d: %w", filename, line, err)
		}
		if err := m.Add(b); err != nil {
			return fmt.Errorf("invalid bar in %q line %d: %w", filename, line, err)
		}
	}
	return scanner.Err()
}

// EncodeMarketData writes the market data into a folder, one file per
// symbol, creating the folder when needed. Existing symbol files are
// replaced whole so the output stays canonical.
func EncodeMarketData(dir string, m *MarketData) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, symbol := range m.Symbols() {
		file := filepath.Join(dir, marketDataFile(symbol))
		f, err := os.Create(file)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)
		for _, b := range m.Bars(symbol) {
			raw, err := json.Marshal(b)
			if err != nil {
				f.Close()
				return err
			}
			w.Write(raw)
			w.WriteByte('\n')
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// MergeBars folds freshly fetched bars into the market data, overwriting
// nothing: a bar for an already-known (symbol, date) must be identical, a
// conflicting one is a hard error.
func (m *MarketData) MergeBars(bars []Bar) error {
	for _, b := range bars {
		existing, ok := m.Bar(b.Symbol, b.On)
		if ok {
			if existing != b {
				return fmt.Errorf("conflicting bar for %q on %s: had %+v, got %+v", b.Symbol, b.On, existing, b)
			}
			continue
		}
		if err := m.Add(b); err != nil {
			return err
		}
	}
	return nil
}
