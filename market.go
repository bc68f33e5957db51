package backtest

import (
	"fmt"
	"iter"
	"sort"
)

// Column names a value series of a quote (one OHLC field).
type Column string

const (
	Open   Column = "open"
	High   Column = "high"
	Low    Column = "low"
	Close  Column = "close"
	Volume Column = "volume"
)

// Bar is one row of market data at a single timestamp for a symbol.
type Bar struct {
	Symbol string  `json:"symbol"`
	On     Date    `json:"on"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
}

// Value returns the bar's value for the given column.
func (b Bar) Value(col Column) (float64, error) {
	switch col {
	case Open:
		return b.Open, nil
	case High:
		return b.High, nil
	case Low:
		return b.Low, nil
	case Close:
		return b.Close, nil
	case Volume:
		return b.Volume, nil
	default:
		return 0, fmt.Errorf("unknown column %q", col)
	}
}

// Validate checks the bar for internal consistency.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar has an empty symbol")
	}
	if b.On.IsZero() {
		return fmt.Errorf("bar for %q has a zero date", b.Symbol)
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar for %q on %s has non-positive prices", b.Symbol, b.On)
	}
	if b.Low > b.High {
		return fmt.Errorf("bar for %q on %s has low %v above high %v", b.Symbol, b.On, b.Low, b.High)
	}
	return nil
}

// Quote holds the historical bars of a single symbol, one value series per column.
type Quote struct {
	symbol string
	open   History[float64]
	high   History[float64]
	low    History[float64]
	close  History[float64]
	volume History[float64]
}

// Symbol returns the quoted symbol.
func (q *Quote) Symbol() string { return q.symbol }

// Closes returns the close series of the quote.
func (q *Quote) Closes() *History[float64] { return &q.close }

// Bar returns the bar at 'on', or false when the symbol has no data that day.
func (q *Quote) Bar(on Date) (Bar, bool) {
	o, ok := q.open.Get(on)
	if !ok {
		return Bar{}, false
	}
	h, _ := q.high.Get(on)
	l, _ := q.low.Get(on)
	c, _ := q.close.Get(on)
	v, _ := q.volume.Get(on)
	return Bar{Symbol: q.symbol, On: on, Open: o, High: h, Low: l, Close: c, Volume: v}, true
}

// MarketData holds market data for a set of symbols.
//
// It is an already-materialized, read-only view during a simulation: the core
// never performs I/O, adapters fill it beforehand.
type MarketData struct {
	quotes map[string]*Quote
}

// NewMarketData returns a new empty market data collection.
func NewMarketData() *MarketData {
	return &MarketData{quotes: make(map[string]*Quote)}
}

// Has returns true if the symbol has any data.
func (m *MarketData) Has(symbol string) bool {
	_, ok := m.quotes[symbol]
	return ok
}

// Quote returns the quote for a symbol, or nil if unknown.
func (m *MarketData) Quote(symbol string) *Quote { return m.quotes[symbol] }

// Symbols returns all known symbols in alphabetical order.
func (m *MarketData) Symbols() []string {
	symbols := make([]string, 0, len(m.quotes))
	for s := range m.quotes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Add appends a bar to the collection.
//
// A second bar for the same symbol and date is a hard error: simulation
// results must not be computed on corrupt input.
func (m *MarketData) Add(b Bar) error {
	if err := b.Validate(); err != nil {
		return err
	}
	q, ok := m.quotes[b.Symbol]
	if !ok {
		q = &Quote{symbol: b.Symbol}
		m.quotes[b.Symbol] = q
	}
	if _, dup := q.open.Get(b.On); dup {
		return fmt.Errorf("duplicate bar for %q on %s", b.Symbol, b.On)
	}
	q.open.Append(b.On, b.Open)
	q.high.Append(b.On, b.High)
	q.low.Append(b.On, b.Low)
	q.close.Append(b.On, b.Close)
	q.volume.Append(b.On, b.Volume)
	return nil
}

// Bar returns the bar for symbol at 'on', or false when there is no data.
func (m *MarketData) Bar(symbol string, on Date) (Bar, bool) {
	q, ok := m.quotes[symbol]
	if !ok {
		return Bar{}, false
	}
	return q.Bar(on)
}

// Price returns the value of the given column for symbol at 'on'.
//
// A missing price is fatal rather than silently defaulted.
func (m *MarketData) Price(symbol string, col Column, on Date) (float64, error) {
	bar, ok := m.Bar(symbol, on)
	if !ok {
		return 0, fmt.Errorf("no data for %q on %s", symbol, on)
	}
	return bar.Value(col)
}

// Dates returns an iterator over the union of dates present for the given
// symbols, unique and sorted. Unknown symbols contribute nothing.
func (m *MarketData) Dates(symbols ...string) iter.Seq[Date] {
	series := make([][]Date, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := m.quotes[s]; ok {
			series = append(series, q.open.days)
		}
	}
	return iterate(series...)
}

// Bars returns all bars of a symbol in chronological order.
func (m *MarketData) Bars(symbol string) []Bar {
	q, ok := m.quotes[symbol]
	if !ok {
		return nil
	}
	bars := make([]Bar, 0, q.open.Len())
	for on := range q.open.Values() {
		b, _ := q.Bar(on)
		bars = append(bars, b)
	}
	return bars
}
