package backtest

import (
	"fmt"
)

// Position is one holding line of a finished run.
type Position struct {
	Key      string   // base currency or symbol
	Quantity Quantity // units held at the end of the run
	Value    Money    // mark value at the last completed time
}

// OrderRecord is one order line of a finished run.
type OrderRecord struct {
	Symbol    string
	Side      Side
	Kind      Kind
	Trigger   float64
	Quantity  float64
	Status    Status
	OpenTime  Date
	CloseTime Date // zero while the order is still open
	Message   string
}

// RunReport summarizes a completed simulation for rendering and assistance.
type RunReport struct {
	Title string
	Base  string
	Range Range // first to last completed time

	InitialValue Money
	FinalValue   Money
	ROI          Percent
	CAGR         Percent // zero when the run spans a single day

	Positions []Position    // base currency first, then symbols
	Orders    []OrderRecord // closed orders first, then still-open ones
	Totals    History[float64]
}

// NewRunReport builds the report of a portfolio whose run has completed.
func NewRunReport(p *Portfolio) (*RunReport, error) {
	first, ok := p.FirstCompletedTime()
	if !ok {
		return nil, fmt.Errorf("portfolio %q has not processed any bar", p.Title())
	}
	last, _ := p.LastCompletedTime()

	initial, err := p.InitialValue()
	if err != nil {
		return nil, err
	}
	final, err := p.FinalValue()
	if err != nil {
		return nil, err
	}
	roi, err := p.ROI()
	if err != nil {
		return nil, err
	}
	r := &RunReport{
		Title:        p.Title(),
		Base:         p.Base(),
		Range:        NewRange(first, last),
		InitialValue: M(initial, p.Base()),
		FinalValue:   M(final, p.Base()),
		ROI:          PercentOf(roi),
	}
	if cagr, err := p.CAGR(); err == nil {
		r.CAGR = PercentOf(cagr)
	}

	for _, key := range p.Keys() {
		q, err := p.Quantity(key)
		if err != nil {
			return nil, err
		}
		h, err := p.ValueHistory(key)
		if err != nil {
			return nil, err
		}
		v, ok := h.Get(last)
		if !ok {
			return nil, fmt.Errorf("portfolio %q has no value for %q on %s", p.Title(), key, last)
		}
		r.Positions = append(r.Positions, Position{
			Key:      key,
			Quantity: Q(q),
			Value:    M(v, p.Base()),
		})
	}

	for _, o := range p.ClosedOrders() {
		r.Orders = append(r.Orders, newOrderRecord(o))
	}
	for _, o := range p.OpenOrders() {
		r.Orders = append(r.Orders, newOrderRecord(o))
	}

	// total value per processed day, for history tables.
	if h, err := p.ValueHistory(p.Base()); err == nil {
		for on := range h.Values() {
			total, err := p.TotalValue(on)
			if err != nil {
				return nil, err
			}
			r.Totals.Append(on, total)
		}
	}
	return r, nil
}

func newOrderRecord(o *Order) OrderRecord {
	return OrderRecord{
		Symbol:    o.Symbol(),
		Side:      o.Side(),
		Kind:      o.Kind(),
		Trigger:   o.Trigger(),
		Quantity:  o.Quantity(),
		Status:    o.Status(),
		OpenTime:  o.OpenTime(),
		CloseTime: o.CloseTime(),
		Message:   o.Message(),
	}
}
