package backtest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarketData_EncodeDecodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := newFallingMarket(t)
	if err := m.Add(Bar{Symbol: "OTHER", On: day(0), Open: 1, High: 2, Low: 0.5, Close: 1.5}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := EncodeMarketData(dir, m); err != nil {
		t.Fatalf("EncodeMarketData() failed: %v", err)
	}
	// One file per symbol.
	for _, name := range []string{"ACME.jsonl", "OTHER.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected store file %q: %v", name, err)
		}
	}

	got, err := DecodeMarketData(dir)
	if err != nil {
		t.Fatalf("DecodeMarketData() failed: %v", err)
	}
	if len(got.Symbols()) != 2 {
		t.Fatalf("decoded %v, want 2 symbols", got.Symbols())
	}
	want := m.Bars("ACME")
	bars := got.Bars("ACME")
	if len(bars) != len(want) {
		t.Fatalf("decoded %d bars, want %d", len(bars), len(want))
	}
	for i := range want {
		if bars[i] != want[i] {
			t.Errorf("bar %d = %+v, want %+v", i, bars[i], want[i])
		}
	}
}

func TestDecodeMarketData_MissingFolder(t *testing.T) {
	_, err := DecodeMarketData(filepath.Join(t.TempDir(), "no-such-folder"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("DecodeMarketData() error = %v, want fs.ErrNotExist", err)
	}
}

func TestDecodeMarketData_EmptyFolder(t *testing.T) {
	m, err := DecodeMarketData(t.TempDir())
	if err != nil {
		t.Fatalf("DecodeMarketData() of an empty folder failed: %v", err)
	}
	if len(m.Symbols()) != 0 {
		t.Errorf("Symbols() = %v, want none", m.Symbols())
	}
}

func TestDecodeMarketData_Corrupt(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "ACME.jsonl"), []byte(content), 0644); err != nil {
			t.Fatalf("writing store file: %v", err)
		}
		return dir
	}
	good := `{"symbol":"ACME","on":"2025-01-01","open":10,"high":11,"low":9,"close":10.5}`

	t.Run("broken json", func(t *testing.T) {
		_, err := DecodeMarketData(write(t, good+"\n{not json\n"))
		if err == nil || !strings.Contains(err.Error(), "line 2") {
			t.Errorf("error = %v, want a format error pointing at line 2", err)
		}
	})
	t.Run("duplicate date", func(t *testing.T) {
		_, err := DecodeMarketData(write(t, good+"\n"+good+"\n"))
		if err == nil || !strings.Contains(err.Error(), "duplicate bar") {
			t.Errorf("error = %v, want a duplicate bar error", err)
		}
	})
	t.Run("blank lines tolerated", func(t *testing.T) {
		m, err := DecodeMarketData(write(t, "\n"+good+"\n\n"))
		if err != nil {
			t.Fatalf("DecodeMarketData() failed: %v", err)
		}
		if len(m.Bars("ACME")) != 1 {
			t.Errorf("decoded %d bars, want 1", len(m.Bars("ACME")))
		}
	})
}

func TestMarketData_MergeBars(t *testing.T) {
	m := NewMarketData()
	a := Bar{Symbol: "ACME", On: day(0), Open: 10, High: 11, Low: 9, Close: 10.5}
	b := Bar{Symbol: "ACME", On: day(1), Open: 10.5, High: 12, Low: 10, Close: 11}
	if err := m.MergeBars([]Bar{a}); err != nil {
		t.Fatalf("MergeBars() failed: %v", err)
	}
	// Refetching the same day with identical data is fine.
	if err := m.MergeBars([]Bar{a, b}); err != nil {
		t.Fatalf("MergeBars() with an identical duplicate failed: %v", err)
	}
	if len(m.Bars("ACME")) != 2 {
		t.Fatalf("merged %d bars, want 2", len(m.Bars("ACME")))
	}
	// A conflicting revision of a known day is rejected.
	conflict := a
	conflict.Close = 999
	if err := m.MergeBars([]Bar{conflict}); err == nil {
		t.Error("MergeBars() with a conflicting bar should fail")
	}
}
