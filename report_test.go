package backtest

import (
	"testing"
)

func TestNewRunReport(t *testing.T) {
	market := newTrendingMarket(t)
	p, err := NewPortfolio("report", market, "USD", map[string]float64{"USD": 1000, "ACME": 0})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	if err := p.Run(&BuyAndHold{Symbol: "ACME"}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	r, err := NewRunReport(p)
	if err != nil {
		t.Fatalf("NewRunReport() failed: %v", err)
	}

	if r.Title != "report" || r.Base != "USD" {
		t.Errorf("report header = %q/%q", r.Title, r.Base)
	}
	if r.Range.From != day(0) || r.Range.To != day(19) {
		t.Errorf("report range = %v, want %s..%s", r.Range, day(0), day(19))
	}
	if got := r.InitialValue.String(); got != "$1,000.00" {
		t.Errorf("InitialValue = %q, want $1,000.00", got)
	}
	final, err := p.FinalValue()
	if err != nil {
		t.Fatalf("FinalValue() failed: %v", err)
	}
	if !r.FinalValue.Equal(M(final, "USD")) {
		t.Errorf("FinalValue = %s, want %s", r.FinalValue, M(final, "USD"))
	}
	// 2266.67/1000 - 1.
	if !r.ROI.Equal(PercentOf(final/1000 - 1)) {
		t.Errorf("ROI = %s, want %s", r.ROI, PercentOf(final/1000-1))
	}
	if r.CAGR == 0 {
		t.Error("CAGR should be set for a multi-day run")
	}

	// Positions list the base currency first, then every symbol.
	if len(r.Positions) != 2 {
		t.Fatalf("report has %d positions, want 2", len(r.Positions))
	}
	if r.Positions[0].Key != "USD" || r.Positions[1].Key != "ACME" {
		t.Errorf("position keys = %q, %q, want USD then ACME", r.Positions[0].Key, r.Positions[1].Key)
	}
	if !r.Positions[0].Value.IsZero() {
		t.Errorf("cash position = %s, want zero after the all-in entry", r.Positions[0].Value)
	}

	if len(r.Orders) != 1 {
		t.Fatalf("report has %d orders, want 1", len(r.Orders))
	}
	o := r.Orders[0]
	if o.Status != Filled || o.Side != Buy || o.Kind != Market {
		t.Errorf("order record = %+v, want a filled market buy", o)
	}

	if r.Totals.Len() != 20 {
		t.Errorf("totals history has %d rows, want 20", r.Totals.Len())
	}
	if _, v := r.Totals.First(); v != 1000 {
		t.Errorf("first total = %v, want 1000", v)
	}
}

func TestNewRunReport_NotRun(t *testing.T) {
	market := newTrendingMarket(t)
	p, err := NewPortfolio("fresh", market, "USD", map[string]float64{"USD": 1000})
	if err != nil {
		t.Fatalf("NewPortfolio() failed: %v", err)
	}
	if _, err := NewRunReport(p); err == nil {
		t.Error("NewRunReport() of a fresh portfolio should fail")
	}
}
