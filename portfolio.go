package backtest

import (
	"fmt"
	"iter"
	"math"
	"sort"
)

// Portfolio is the simulated account: current holdings, pending orders and
// the recorded value history.
//
// The key set of holdings is fixed at construction (base currency plus every
// traded symbol); only the values change over the simulation. A Portfolio is
// owned by exactly one simulation run: it holds no global state, so
// independent runs need no locking.
type Portfolio struct {
	title  string
	base   string // base currency code, e.g. "USD"
	market *MarketData
	mark   Column // reference column for mark-to-market, close by default
	bounds Range  // optional simulation time bounds

	quantities map[string]float64 // fixed key set: base + symbols
	keys       []string           // stable ordering of quantities' keys, base first

	open   []*Order // open orders, oldest in front
	closed []*Order // filled and canceled orders, in settlement order

	values  map[string]*History[float64] // per holding key, its mark value over time
	last    Date                         // last completed simulation time
	first   Date                         // first completed simulation time
	started bool
}

// NewPortfolio constructs a portfolio simulating against the given market
// data. initial maps the base currency and every traded symbol to its
// starting quantity; symbols absent from initial cannot be traded later.
func NewPortfolio(title string, market *MarketData, base string, initial map[string]float64) (*Portfolio, error) {
	if market == nil {
		return nil, fmt.Errorf("portfolio %q requires market data", title)
	}
	if base == "" {
		return nil, fmt.Errorf("portfolio %q requires a base currency", title)
	}
	if _, ok := initial[base]; !ok {
		return nil, fmt.Errorf("portfolio %q initial holdings must include the base currency %q", title, base)
	}
	p := &Portfolio{
		title:      title,
		base:       base,
		market:     market,
		mark:       Close,
		quantities: make(map[string]float64, len(initial)),
		values:     make(map[string]*History[float64], len(initial)),
	}
	for key, q := range initial {
		if q < 0 {
			return nil, fmt.Errorf("portfolio %q initial holding for %q is negative: %v", title, key, q)
		}
		if key != base && !market.Has(key) {
			return nil, fmt.Errorf("portfolio %q tracks %q but market data has no bars for it", title, key)
		}
		p.quantities[key] = q
		p.values[key] = &History[float64]{}
	}
	// stable ordering: base currency first, then symbols alphabetically.
	for key := range initial {
		if key != base {
			p.keys = append(p.keys, key)
		}
	}
	sort.Strings(p.keys)
	p.keys = append([]string{base}, p.keys...)
	return p, nil
}

// SetBounds restricts the simulation to timestamps within r.
// Must be called before the first RunTo.
func (p *Portfolio) SetBounds(r Range) error {
	if p.started {
		return fmt.Errorf("portfolio %q already started, cannot change bounds", p.title)
	}
	p.bounds = r
	return nil
}

// SetMark overrides the reference column used for mark-to-market valuation.
// Must be called before the first RunTo.
func (p *Portfolio) SetMark(col Column) error {
	if p.started {
		return fmt.Errorf("portfolio %q already started, cannot change mark column", p.title)
	}
	p.mark = col
	return nil
}

// Title returns the portfolio's title.
func (p *Portfolio) Title() string { return p.title }

// Base returns the base currency code.
func (p *Portfolio) Base() string { return p.base }

// Keys returns the fixed set of holding keys, base currency first.
func (p *Portfolio) Keys() []string { return append([]string(nil), p.keys...) }

// symbols returns the traded symbols (every key but the base currency).
func (p *Portfolio) symbols() []string { return p.keys[1:] }

// Quantity returns the current holding for a key (base currency or symbol).
func (p *Portfolio) Quantity(key string) (float64, error) {
	q, ok := p.quantities[key]
	if !ok {
		return 0, fmt.Errorf("portfolio %q does not track %q", p.title, key)
	}
	return q, nil
}

// TradableQuantity returns the holding for a key minus the quantity already
// committed to open orders, preventing double-commitment of the same cash or
// units across two concurrently open orders.
func (p *Portfolio) TradableQuantity(key string) (float64, error) {
	q, err := p.Quantity(key)
	if err != nil {
		return 0, err
	}
	for _, o := range p.open {
		switch {
		case o.side == Buy && key == p.base:
			q -= o.quantity // cash to spend
		case o.side == Sell && key == o.symbol:
			q -= o.quantity // units to dispose
		}
	}
	return q, nil
}

// OpenOrder appends an order to the open-orders list.
//
// At most one order may be open per symbol at a time; a committed quantity
// beyond the tradable one is a strategy contract violation surfaced as an
// error, never silently clamped.
func (p *Portfolio) OpenOrder(o *Order) error {
	if o.status != StatusOpen {
		return fmt.Errorf("cannot open a %s order", o.status)
	}
	if _, ok := p.quantities[o.symbol]; !ok || o.symbol == p.base {
		return fmt.Errorf("portfolio %q does not trade %q", p.title, o.symbol)
	}
	for _, pending := range p.open {
		if pending.symbol == o.symbol {
			return fmt.Errorf("portfolio %q already has an open order for %q", p.title, o.symbol)
		}
	}
	committed := o.symbol
	if o.side == Buy {
		committed = p.base
	}
	tradable, err := p.TradableQuantity(committed)
	if err != nil {
		return err
	}
	if o.quantity > tradable {
		return fmt.Errorf("portfolio %q cannot commit %v %q to %v: only %v tradable", p.title, o.quantity, committed, o, tradable)
	}
	p.open = append(p.open, o)
	return nil
}

// CancelOrder cancels a currently open order at the given time.
func (p *Portfolio) CancelOrder(o *Order, on Date) error {
	for i, pending := range p.open {
		if pending == o {
			if err := o.Cancel(on); err != nil {
				return err
			}
			p.open = append(p.open[:i], p.open[i+1:]...)
			p.closed = append(p.closed, o)
			return nil
		}
	}
	return fmt.Errorf("portfolio %q has no such open order: %v", p.title, o)
}

// OpenOrders returns the currently open orders, oldest in front.
func (p *Portfolio) OpenOrders() []*Order { return append([]*Order(nil), p.open...) }

// ClosedOrders returns the filled and canceled orders in settlement order.
func (p *Portfolio) ClosedOrders() []*Order { return append([]*Order(nil), p.closed...) }

// LastCompletedTime returns the last processed simulation time, if any.
func (p *Portfolio) LastCompletedTime() (Date, bool) { return p.last, p.started }

// FirstCompletedTime returns the first processed simulation time, if any.
func (p *Portfolio) FirstCompletedTime() (Date, bool) { return p.first, p.started }

// RemainingTimes returns the not-yet-processed simulation timestamps in
// order. The sequence is recomputed on each call, not a cached iterator.
func (p *Portfolio) RemainingTimes() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for t := range p.market.Dates(p.symbols()...) {
			if p.started && !t.After(p.last) {
				continue
			}
			if !p.bounds.Contains(t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Run advances the simulation through every remaining timestamp.
// A nil strategy settles pending orders and records values only.
func (p *Portfolio) Run(s Strategy) error {
	if s != nil {
		if err := s.Init(p, p.market); err != nil {
			return fmt.Errorf("initializing strategy for %q: %w", p.title, err)
		}
	}
	return p.runTo(s, Date{}, true)
}

// RunTo advances the simulation up to and including target.
//
// Calling it again with a non-advancing target is a no-op: only new
// timestamps ever append rows to the value history.
func (p *Portfolio) RunTo(s Strategy, target Date) error {
	return p.runTo(s, target, false)
}

func (p *Portfolio) runTo(s Strategy, target Date, all bool) error {
	if !all && p.started && !target.After(p.last) {
		return nil
	}
	for t := range p.RemainingTimes() {
		if !all && t.After(target) {
			break
		}
		if err := p.settle(t); err != nil {
			return err
		}
		if s != nil {
			if err := s.NextStep(t); err != nil {
				return fmt.Errorf("strategy failed on %s: %w", t, err)
			}
		}
		if err := p.record(t); err != nil {
			return err
		}
		if !p.started {
			p.first = t
			p.started = true
		}
		p.last = t
	}
	return nil
}

// settle evaluates every open order against the bar at t, updating holdings
// for each match. The engine only settles orders; it never creates or
// cancels them.
func (p *Portfolio) settle(t Date) error {
	// Orders open as of this bar. The strategy callback runs strictly after
	// settlement, so an order opened at t is first examined at the next bar:
	// no look-ahead, no same-bar fills.
	pending := append([]*Order(nil), p.open...)
	for _, o := range pending {
		bar, ok := p.market.Bar(o.symbol, t)
		if !ok {
			continue
		}
		if !o.Matches(bar) {
			continue
		}
		price, err := o.FillPrice(bar)
		if err != nil {
			return err
		}
		if price <= 0 {
			return fmt.Errorf("fill price for %v on %s is not positive: %v", o, t, price)
		}
		switch o.side {
		case Buy:
			cost := o.quantity // cash to spend
			if p.quantities[p.base] < cost {
				return fmt.Errorf("portfolio %q cannot settle %v on %s: %v %s held, %v needed", p.title, o, t, p.quantities[p.base], p.base, cost)
			}
			p.quantities[p.base] -= cost
			p.quantities[o.symbol] += cost / price
		case Sell:
			units := o.quantity
			if p.quantities[o.symbol] < units {
				return fmt.Errorf("portfolio %q cannot settle %v on %s: %v %q held, %v needed", p.title, o, t, p.quantities[o.symbol], o.symbol, units)
			}
			p.quantities[o.symbol] -= units
			p.quantities[p.base] += units * price
		}
		if err := o.Fill(t); err != nil {
			return err
		}
		p.removeOpen(o)
		p.closed = append(p.closed, o)
	}
	return nil
}

func (p *Portfolio) removeOpen(o *Order) {
	for i, pending := range p.open {
		if pending == o {
			p.open = append(p.open[:i], p.open[i+1:]...)
			return
		}
	}
}

// record appends the mark value of every holding at t to the value history.
func (p *Portfolio) record(t Date) error {
	for _, key := range p.keys {
		q := p.quantities[key]
		var v float64
		switch {
		case key == p.base:
			v = q
		case q == 0:
			v = 0
		default:
			price, err := p.market.Price(key, p.mark, t)
			if err != nil {
				return fmt.Errorf("marking portfolio %q: %w", p.title, err)
			}
			v = q * price
		}
		p.values[key].Append(t, v)
	}
	return nil
}

// ValueHistory returns the recorded mark values of a single holding key.
func (p *Portfolio) ValueHistory(key string) (*History[float64], error) {
	h, ok := p.values[key]
	if !ok {
		return nil, fmt.Errorf("portfolio %q does not track %q", p.title, key)
	}
	return h, nil
}

// TotalValue returns the total mark-to-market value recorded at t.
func (p *Portfolio) TotalValue(on Date) (float64, error) {
	var total float64
	for _, key := range p.keys {
		v, ok := p.values[key].Get(on)
		if !ok {
			return 0, fmt.Errorf("portfolio %q has no value recorded on %s", p.title, on)
		}
		total += v
	}
	return total, nil
}

// InitialValue returns the total value at the first completed time.
func (p *Portfolio) InitialValue() (float64, error) {
	if !p.started {
		return 0, fmt.Errorf("portfolio %q has not run yet", p.title)
	}
	return p.TotalValue(p.first)
}

// FinalValue returns the total value at the last completed time.
func (p *Portfolio) FinalValue() (float64, error) {
	if !p.started {
		return 0, fmt.Errorf("portfolio %q has not run yet", p.title)
	}
	return p.TotalValue(p.last)
}

// ROI returns the return on investment over the simulated range:
// final/initial - 1.
func (p *Portfolio) ROI() (float64, error) {
	initial, err := p.InitialValue()
	if err != nil {
		return 0, err
	}
	if initial == 0 {
		return 0, fmt.Errorf("portfolio %q started with zero value", p.title)
	}
	final, err := p.FinalValue()
	if err != nil {
		return 0, err
	}
	return final/initial - 1, nil
}

// CAGR returns the compound annual growth rate over the simulated range:
// (final/initial)^(365.25/days) - 1.
func (p *Portfolio) CAGR() (float64, error) {
	initial, err := p.InitialValue()
	if err != nil {
		return 0, err
	}
	if initial == 0 {
		return 0, fmt.Errorf("portfolio %q started with zero value", p.title)
	}
	final, err := p.FinalValue()
	if err != nil {
		return 0, err
	}
	days := p.last.Sub(p.first)
	if days <= 0 {
		return 0, fmt.Errorf("portfolio %q needs more than one day of history for a growth rate", p.title)
	}
	return math.Pow(final/initial, 365.25/float64(days)) - 1, nil
}
