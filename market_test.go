package backtest

import (
	"testing"
	"time"
)

func TestBar_Validate(t *testing.T) {
	good := Bar{Symbol: "ACME", On: day(0), Open: 10, High: 11, Low: 9, Close: 10.5}
	testCases := []struct {
		name    string
		mutate  func(b *Bar)
		wantErr bool
	}{
		{"valid", func(*Bar) {}, false},
		{"empty symbol", func(b *Bar) { b.Symbol = "" }, true},
		{"zero date", func(b *Bar) { b.On = Date{} }, true},
		{"non-positive open", func(b *Bar) { b.Open = 0 }, true},
		{"negative close", func(b *Bar) { b.Close = -1 }, true},
		{"low above high", func(b *Bar) { b.Low, b.High = 11, 9 }, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := good
			tc.mutate(&b)
			if err := b.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBar_Value(t *testing.T) {
	b := Bar{Symbol: "ACME", On: day(0), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}
	testCases := []struct {
		col  Column
		want float64
	}{
		{Open, 1}, {High, 2}, {Low, 0.5}, {Close, 1.5}, {Volume, 100},
	}
	for _, tc := range testCases {
		got, err := b.Value(tc.col)
		if err != nil {
			t.Errorf("Value(%q) failed: %v", tc.col, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Value(%q) = %v, want %v", tc.col, got, tc.want)
		}
	}
	if _, err := b.Value("vwap"); err == nil {
		t.Error("Value() with an unknown column should fail")
	}
}

func TestMarketData_AddRejectsDuplicates(t *testing.T) {
	m := NewMarketData()
	b := Bar{Symbol: "ACME", On: day(0), Open: 10, High: 11, Low: 9, Close: 10.5}
	if err := m.Add(b); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	b.Close = 999 // conflicting bar, same symbol and day
	if err := m.Add(b); err == nil {
		t.Error("Add() of a second bar for the same day should fail")
	}
}

func TestMarketData_Lookups(t *testing.T) {
	m := newTrendingMarket(t)
	if !m.Has("ACME") {
		t.Error("Has(ACME) = false, want true")
	}
	if m.Has("NOPE") {
		t.Error("Has(NOPE) = true, want false")
	}
	bar, ok := m.Bar("ACME", day(3))
	if !ok {
		t.Fatal("Bar(ACME, day 3) not found")
	}
	if bar.Open != 17 || bar.Close != 18 {
		t.Errorf("Bar(day 3) = open %v close %v, want 17 and 18", bar.Open, bar.Close)
	}
	if _, ok := m.Bar("ACME", day(99)); ok {
		t.Error("Bar() outside the data should not be found")
	}
	price, err := m.Price("ACME", Close, day(3))
	if err != nil {
		t.Fatalf("Price() failed: %v", err)
	}
	if price != 18 {
		t.Errorf("Price(close, day 3) = %v, want 18", price)
	}
	if _, err := m.Price("ACME", Close, day(99)); err == nil {
		t.Error("Price() outside the data should fail")
	}
}

func TestMarketData_DatesUnion(t *testing.T) {
	m := NewMarketData()
	add := func(symbol string, on Date) {
		t.Helper()
		if err := m.Add(Bar{Symbol: symbol, On: on, Open: 1, High: 1, Low: 1, Close: 1}); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}
	add("A", NewDate(2025, time.January, 1))
	add("A", NewDate(2025, time.January, 3))
	add("B", NewDate(2025, time.January, 2))
	add("B", NewDate(2025, time.January, 3))

	var got []Date
	for on := range m.Dates("A", "B", "unknown") {
		got = append(got, on)
	}
	want := []Date{
		NewDate(2025, time.January, 1),
		NewDate(2025, time.January, 2),
		NewDate(2025, time.January, 3),
	}
	if len(got) != len(want) {
		t.Fatalf("Dates() yielded %d dates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Dates()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	symbols := m.Symbols()
	if len(symbols) != 2 || symbols[0] != "A" || symbols[1] != "B" {
		t.Errorf("Symbols() = %v, want [A B]", symbols)
	}
}

func TestMarketData_Bars(t *testing.T) {
	m := newFallingMarket(t)
	bars := m.Bars("ACME")
	if len(bars) != 10 {
		t.Fatalf("Bars() returned %d bars, want 10", len(bars))
	}
	for i, b := range bars {
		if b.On != day(i) {
			t.Errorf("bar %d is on %s, want %s", i, b.On, day(i))
		}
	}
	if bars[0].Close != 25 || bars[9].Close != 11.84 {
		t.Errorf("closes = %v..%v, want 25..11.84", bars[0].Close, bars[9].Close)
	}
	if got := m.Bars("NOPE"); got != nil {
		t.Errorf("Bars(NOPE) = %v, want nil", got)
	}
}
