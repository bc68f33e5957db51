package backtest

import (
	"math"
	"testing"
)

// newPathMarket builds bars from a close path: each bar opens at the previous
// close, with low and high half a point beyond the body.
func newPathMarket(t *testing.T, closes []float64) *MarketData {
	t.Helper()
	open := make([]float64, len(closes))
	high := make([]float64, len(closes))
	low := make([]float64, len(closes))
	for i, c := range closes {
		o := c
		if i > 0 {
			o = closes[i-1]
		}
		open[i] = o
		low[i] = math.Min(o, c) - 0.5
		high[i] = math.Max(o, c) + 0.5
	}
	return newTestMarket(t, "ACME", open, high, low, closes)
}

func TestSMACross(t *testing.T) {
	// Flat, then up, then down: the 2-bar average crosses above the 3-bar
	// average on bar 3 and back below on bar 5.
	market := newPathMarket(t, []float64{10, 10, 10, 12, 12, 8, 8, 8})
	p, err := NewPortfolio("sma cross", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	if err := p.Run(&SMACross{Symbol: "ACME", Fast: 2, Slow: 3}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	closed := p.ClosedOrders()
	if len(closed) != 2 {
		t.Fatalf("ClosedOrders() returned %d orders, want a buy and a sell", len(closed))
	}
	buy, sell := closed[0], closed[1]
	if buy.Side() != Buy || buy.OpenTime() != day(3) || buy.CloseTime() != day(4) {
		t.Errorf("buy = %v opened %s filled %s, want buy opened %s filled %s",
			buy, buy.OpenTime(), buy.CloseTime(), day(3), day(4))
	}
	if sell.Side() != Sell || sell.OpenTime() != day(5) || sell.CloseTime() != day(6) {
		t.Errorf("sell = %v opened %s filled %s, want sell opened %s filled %s",
			sell, sell.OpenTime(), sell.CloseTime(), day(5), day(6))
	}

	// Entry spends 1000 at open(4)=12, exit returns the shares at open(6)=8.
	wantCash := 1000.0 / 12.0 * 8.0
	cash, err := p.Quantity("USD")
	if err != nil {
		t.Fatalf("Quantity(USD) failed: %v", err)
	}
	if math.Abs(cash-wantCash) > 1e-9 {
		t.Errorf("cash after round trip = %v, want %v", cash, wantCash)
	}
}

func TestSMACross_InitValidation(t *testing.T) {
	market := newTrendingMarket(t)
	p, err := NewPortfolio("sma", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	testCases := []struct {
		name string
		s    *SMACross
	}{
		{"fast not below slow", &SMACross{Symbol: "ACME", Fast: 5, Slow: 5}},
		{"zero fast", &SMACross{Symbol: "ACME", Fast: 0, Slow: 5}},
		{"unknown symbol", &SMACross{Symbol: "NOPE", Fast: 2, Slow: 5}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.s.Init(p, market); err == nil {
				t.Error("Init() should fail")
			}
		})
	}
}

func TestMACDStrategy_RidesTheTrend(t *testing.T) {
	// On a market rising every bar the moving average convergence divergence
	// line keeps climbing, so the histogram is positive from the first bar
	// with enough data and never flips: one entry, no exit.
	market := newTrendingMarket(t)
	p, err := NewPortfolio("macd", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	if err := p.Run(&MACDStrategy{Symbol: "ACME", Fast: 3, Slow: 5, Signal: 2}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	closed := p.ClosedOrders()
	if len(closed) != 1 {
		t.Fatalf("ClosedOrders() returned %d orders, want 1 buy", len(closed))
	}
	buy := closed[0]
	if buy.Side() != Buy || buy.Status() != Filled {
		t.Fatalf("order = %v status %v, want a filled buy", buy, buy.Status())
	}
	// The signal line needs slow+signal-2 = 5 closes, available on bar 4; the
	// buy fills on bar 5 at its open of 19.
	if buy.OpenTime() != day(4) || buy.CloseTime() != day(5) {
		t.Errorf("buy opened %s filled %s, want %s and %s", buy.OpenTime(), buy.CloseTime(), day(4), day(5))
	}
	shares, err := p.Quantity("ACME")
	if err != nil {
		t.Fatalf("Quantity(ACME) failed: %v", err)
	}
	if math.Abs(shares-1000.0/19.0) > 1e-9 {
		t.Errorf("shares = %v, want %v", shares, 1000.0/19.0)
	}
}

func TestMACDStrategy_InitValidation(t *testing.T) {
	market := newTrendingMarket(t)
	p, err := NewPortfolio("macd", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	testCases := []struct {
		name string
		s    *MACDStrategy
	}{
		{"fast not below slow", &MACDStrategy{Symbol: "ACME", Fast: 5, Slow: 5, Signal: 2}},
		{"zero signal", &MACDStrategy{Symbol: "ACME", Fast: 3, Slow: 5, Signal: 0}},
		{"unknown symbol", &MACDStrategy{Symbol: "NOPE", Fast: 3, Slow: 5, Signal: 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.s.Init(p, market); err == nil {
				t.Error("Init() should fail")
			}
		})
	}
}

func TestRSIStrategy_BuysTheDip(t *testing.T) {
	// A market falling every single bar drives the index to its floor, which
	// is at or below any buy threshold.
	market := newFallingMarket(t)
	p, err := NewPortfolio("rsi", market, "USD", map[string]float64{"USD": 25, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	if err := p.Run(&RSIStrategy{Symbol: "ACME", Period: 3, Low: 30, High: 70}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	closed := p.ClosedOrders()
	if len(closed) != 1 {
		t.Fatalf("ClosedOrders() returned %d orders, want 1 buy", len(closed))
	}
	buy := closed[0]
	if buy.Side() != Buy || buy.Status() != Filled {
		t.Fatalf("order = %v status %v, want a filled buy", buy, buy.Status())
	}
	// First signal comes once period+1 closes exist, on bar 3; the buy fills
	// on bar 4 at its open of 21.2.
	if buy.OpenTime() != day(3) || buy.CloseTime() != day(4) {
		t.Errorf("buy opened %s filled %s, want %s and %s", buy.OpenTime(), buy.CloseTime(), day(3), day(4))
	}
	shares, err := p.Quantity("ACME")
	if err != nil {
		t.Fatalf("Quantity(ACME) failed: %v", err)
	}
	if math.Abs(shares-25.0/21.2) > 1e-9 {
		t.Errorf("shares = %v, want %v", shares, 25.0/21.2)
	}
}

func TestRSIStrategy_InitValidation(t *testing.T) {
	market := newTrendingMarket(t)
	p, err := NewPortfolio("rsi", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	testCases := []struct {
		name string
		s    *RSIStrategy
	}{
		{"period too small", &RSIStrategy{Symbol: "ACME", Period: 1, Low: 30, High: 70}},
		{"low above high", &RSIStrategy{Symbol: "ACME", Period: 14, Low: 70, High: 30}},
		{"high out of range", &RSIStrategy{Symbol: "ACME", Period: 14, Low: 30, High: 100}},
		{"unknown symbol", &RSIStrategy{Symbol: "NOPE", Period: 14, Low: 30, High: 70}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.s.Init(p, market); err == nil {
				t.Error("Init() should fail")
			}
		})
	}
}

func TestTrailingStop(t *testing.T) {
	// Rise from 10 to 13, then drop to 10: the stop ratchets up behind the
	// rise and the drop trades through it.
	market := newPathMarket(t, []float64{10, 10, 11, 12, 13, 13, 10, 10})
	p, err := NewPortfolio("trailing", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	if err := p.Run(&TrailingStop{Symbol: "ACME", Trail: 0.1}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	var fills, cancels []*Order
	for _, o := range p.ClosedOrders() {
		switch o.Status() {
		case Filled:
			fills = append(fills, o)
		case Canceled:
			cancels = append(cancels, o)
		}
	}

	// The entry buy, the final stop, and the re-entry buy fill; each
	// ratchet cancels the previous stop.
	if len(fills) != 3 {
		t.Fatalf("got %d fills, want 3: %v", len(fills), fills)
	}
	if len(cancels) != 3 {
		t.Fatalf("got %d cancels, want 3: %v", len(cancels), cancels)
	}
	for _, o := range cancels {
		if o.Kind() != Stop || o.Side() != Sell {
			t.Errorf("canceled order %v is not a stop sell", o)
		}
	}

	stop := fills[1]
	if stop.Kind() != Stop {
		t.Fatalf("second fill %v is not the stop", stop)
	}
	// High-water close is 13, so the last stop sits at 13*0.9 = 11.7 and
	// fills there when bar 6 trades down to 9.5.
	if math.Abs(stop.Trigger()-11.7) > 1e-9 {
		t.Errorf("stop trigger = %v, want 11.7", stop.Trigger())
	}
	if stop.CloseTime() != day(6) {
		t.Errorf("stop filled on %s, want %s", stop.CloseTime(), day(6))
	}

	// Entry: 1000 at open(1)=10 buys 100 shares; the stop returns
	// 100*11.7 = 1170, reinvested at open(7)=10 for 117 shares.
	shares, err := p.Quantity("ACME")
	if err != nil {
		t.Fatalf("Quantity(ACME) failed: %v", err)
	}
	if math.Abs(shares-117) > 1e-9 {
		t.Errorf("shares after re-entry = %v, want 117", shares)
	}
	checkTotal(t, p, day(7), 1170) // 117 shares at the closing 10
}

func TestTrailingStop_InitValidation(t *testing.T) {
	market := newTrendingMarket(t)
	p, err := NewPortfolio("trailing", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	testCases := []struct {
		name string
		s    *TrailingStop
	}{
		{"zero trail", &TrailingStop{Symbol: "ACME", Trail: 0}},
		{"full trail", &TrailingStop{Symbol: "ACME", Trail: 1}},
		{"unknown symbol", &TrailingStop{Symbol: "NOPE", Trail: 0.1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.s.Init(p, market); err == nil {
				t.Error("Init() should fail")
			}
		})
	}
}

func TestBuyAndHold_InitValidation(t *testing.T) {
	market := newTrendingMarket(t)
	p, err := NewPortfolio("bh", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	if err := (&BuyAndHold{Symbol: "NOPE"}).Init(p, market); err == nil {
		t.Error("Init() with an unknown symbol should fail")
	}
}
