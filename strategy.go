package backtest

import (
	"fmt"

	"github.com/thrasher-corp/gct-ta/indicators"
)

// Strategy decides, at each simulated time step, whether to open or cancel
// orders. The engine invokes NextStep once per bar, strictly after settling
// that bar's pending orders: a strategy never reacts to a fill before it
// occurs, and orders it opens cannot fill on the same bar.
type Strategy interface {
	// Init gives the strategy its collaborators before the first step.
	Init(p *Portfolio, market *MarketData) error
	// NextStep may open or cancel orders for future bars.
	NextStep(on Date) error
}

// BuyAndHold spends all available cash on a market buy at the first step and
// never trades again.
type BuyAndHold struct {
	Symbol string

	p *Portfolio
}

func (s *BuyAndHold) Init(p *Portfolio, market *MarketData) error {
	if !market.Has(s.Symbol) {
		return fmt.Errorf("buy and hold: no market data for %q", s.Symbol)
	}
	s.p = p
	return nil
}

func (s *BuyAndHold) NextStep(on Date) error {
	cash, err := s.p.TradableQuantity(s.p.Base())
	if err != nil {
		return err
	}
	if cash <= 0 {
		return nil // all in already, or cash committed to the pending buy
	}
	o, err := NewMarketOrder(s.Symbol, Buy, cash, on)
	if err != nil {
		return err
	}
	o.SetMessage("buy and hold entry")
	return s.p.OpenOrder(o)
}

// SMACross trades a fast/slow simple-moving-average crossover: it buys with
// all cash when the fast average closes above the slow one, and sells the
// whole position when it closes below.
type SMACross struct {
	Symbol string
	Fast   int
	Slow   int

	p      *Portfolio
	closes *History[float64]
	wasUp  bool
	primed bool
}

func (s *SMACross) Init(p *Portfolio, market *MarketData) error {
	if s.Fast <= 0 || s.Slow <= s.Fast {
		return fmt.Errorf("sma cross: want 0 < fast < slow, got fast=%d slow=%d", s.Fast, s.Slow)
	}
	q := market.Quote(s.Symbol)
	if q == nil {
		return fmt.Errorf("sma cross: no market data for %q", s.Symbol)
	}
	s.p = p
	s.closes = q.Closes()
	return nil
}

func (s *SMACross) NextStep(on Date) error {
	closes := s.closes.Through(on)
	if len(closes) < s.Slow {
		return nil // not enough bars to form the slow average yet
	}
	fast := indicators.SMA(closes, s.Fast)
	slow := indicators.SMA(closes, s.Slow)
	up := fast[len(fast)-1] > slow[len(slow)-1]
	defer func() { s.wasUp, s.primed = up, true }()
	if !s.primed || up == s.wasUp {
		return nil // no crossover this bar
	}
	if up {
		cash, err := s.p.TradableQuantity(s.p.Base())
		if err != nil {
			return err
		}
		if cash <= 0 {
			return nil
		}
		o, err := NewMarketOrder(s.Symbol, Buy, cash, on)
		if err != nil {
			return err
		}
		o.SetMessage(fmt.Sprintf("sma(%d) crossed above sma(%d)", s.Fast, s.Slow))
		return s.p.OpenOrder(o)
	}
	units, err := s.p.TradableQuantity(s.Symbol)
	if err != nil {
		return err
	}
	if units <= 0 {
		return nil
	}
	o, err := NewMarketOrder(s.Symbol, Sell, units, on)
	if err != nil {
		return err
	}
	o.SetMessage(fmt.Sprintf("sma(%d) crossed below sma(%d)", s.Fast, s.Slow))
	return s.p.OpenOrder(o)
}

// MACDStrategy holds the position while the MACD histogram is positive: it
// buys with all cash when the histogram closes above zero and sells the whole
// position when it closes below.
type MACDStrategy struct {
	Symbol string
	Fast   int
	Slow   int
	Signal int

	p      *Portfolio
	closes *History[float64]
}

func (s *MACDStrategy) Init(p *Portfolio, market *MarketData) error {
	if s.Fast <= 0 || s.Slow <= s.Fast {
		return fmt.Errorf("macd: want 0 < fast < slow, got fast=%d slow=%d", s.Fast, s.Slow)
	}
	if s.Signal <= 0 {
		return fmt.Errorf("macd: signal period must be positive, got %d", s.Signal)
	}
	q := market.Quote(s.Symbol)
	if q == nil {
		return fmt.Errorf("macd: no market data for %q", s.Symbol)
	}
	s.p = p
	s.closes = q.Closes()
	return nil
}

func (s *MACDStrategy) NextStep(on Date) error {
	closes := s.closes.Through(on)
	if len(closes) < s.Slow+s.Signal-2 {
		return nil // not enough bars for the signal line yet
	}
	_, _, hist := indicators.MACD(closes, s.Fast, s.Slow, s.Signal)
	if len(hist) == 0 {
		return nil
	}
	latest := hist[len(hist)-1]
	switch {
	case latest > 0:
		cash, err := s.p.TradableQuantity(s.p.Base())
		if err != nil {
			return err
		}
		if cash <= 0 {
			return nil
		}
		o, err := NewMarketOrder(s.Symbol, Buy, cash, on)
		if err != nil {
			return err
		}
		o.SetMessage(fmt.Sprintf("macd(%d,%d,%d) histogram above zero", s.Fast, s.Slow, s.Signal))
		return s.p.OpenOrder(o)
	case latest < 0:
		units, err := s.p.TradableQuantity(s.Symbol)
		if err != nil {
			return err
		}
		if units <= 0 {
			return nil
		}
		o, err := NewMarketOrder(s.Symbol, Sell, units, on)
		if err != nil {
			return err
		}
		o.SetMessage(fmt.Sprintf("macd(%d,%d,%d) histogram below zero", s.Fast, s.Slow, s.Signal))
		return s.p.OpenOrder(o)
	}
	return nil
}

// RSIStrategy buys with all cash when the relative strength index drops to
// Low or below, and sells the whole position when it reaches High or above.
type RSIStrategy struct {
	Symbol string
	Period int
	Low    float64
	High   float64

	p      *Portfolio
	closes *History[float64]
}

func (s *RSIStrategy) Init(p *Portfolio, market *MarketData) error {
	if s.Period <= 1 {
		return fmt.Errorf("rsi: period must be greater than 1, got %d", s.Period)
	}
	if s.Low <= 0 || s.High <= s.Low || s.High >= 100 {
		return fmt.Errorf("rsi: want 0 < low < high < 100, got low=%v high=%v", s.Low, s.High)
	}
	q := market.Quote(s.Symbol)
	if q == nil {
		return fmt.Errorf("rsi: no market data for %q", s.Symbol)
	}
	s.p = p
	s.closes = q.Closes()
	return nil
}

func (s *RSIStrategy) NextStep(on Date) error {
	closes := s.closes.Through(on)
	if len(closes) <= s.Period {
		return nil
	}
	rsi := indicators.RSI(closes, s.Period)
	latest := rsi[len(rsi)-1]
	switch {
	case latest <= s.Low:
		cash, err := s.p.TradableQuantity(s.p.Base())
		if err != nil {
			return err
		}
		if cash <= 0 {
			return nil
		}
		o, err := NewMarketOrder(s.Symbol, Buy, cash, on)
		if err != nil {
			return err
		}
		o.SetMessage(fmt.Sprintf("rsi(%d)=%.1f at or below %v", s.Period, latest, s.Low))
		return s.p.OpenOrder(o)
	case latest >= s.High:
		units, err := s.p.TradableQuantity(s.Symbol)
		if err != nil {
			return err
		}
		if units <= 0 {
			return nil
		}
		o, err := NewMarketOrder(s.Symbol, Sell, units, on)
		if err != nil {
			return err
		}
		o.SetMessage(fmt.Sprintf("rsi(%d)=%.1f at or above %v", s.Period, latest, s.High))
		return s.p.OpenOrder(o)
	}
	return nil
}

// TrailingStop enters with a market buy on the first step, then maintains a
// stop sell at Trail percent below the highest close seen since entry,
// superseding the previous stop with a tighter one as the price rises.
//
// It keeps at most one open order for the symbol at any time.
type TrailingStop struct {
	Symbol string
	Trail  float64 // fraction below the high-water mark, e.g. 0.1 for 10%

	p     *Portfolio
	stop  *Order // currently open stop sell, if any
	water float64
}

func (s *TrailingStop) Init(p *Portfolio, market *MarketData) error {
	if s.Trail <= 0 || s.Trail >= 1 {
		return fmt.Errorf("trailing stop: trail must be a fraction in (0, 1), got %v", s.Trail)
	}
	if !market.Has(s.Symbol) {
		return fmt.Errorf("trailing stop: no market data for %q", s.Symbol)
	}
	s.p = p
	return nil
}

func (s *TrailingStop) NextStep(on Date) error {
	// Forget a stop that was settled or canceled out from under us.
	if s.stop != nil && s.stop.Status() != StatusOpen {
		s.stop = nil
	}

	bar, ok := s.p.market.Bar(s.Symbol, on)
	if !ok {
		return fmt.Errorf("trailing stop: no bar for %q on %s", s.Symbol, on)
	}

	units, err := s.p.Quantity(s.Symbol)
	if err != nil {
		return err
	}
	if units <= 0 {
		// Flat: (re-)enter with all cash unless a buy is already pending.
		if len(s.p.OpenOrders()) > 0 {
			return nil
		}
		cash, err := s.p.TradableQuantity(s.p.Base())
		if err != nil {
			return err
		}
		if cash <= 0 {
			return nil
		}
		o, err := NewMarketOrder(s.Symbol, Buy, cash, on)
		if err != nil {
			return err
		}
		o.SetMessage("trailing stop entry")
		s.water = 0
		return s.p.OpenOrder(o)
	}

	// Holding: ratchet the stop upwards with the high-water mark.
	if bar.Close > s.water {
		s.water = bar.Close
	}
	trigger := s.water * (1 - s.Trail)
	if s.stop != nil {
		if trigger <= s.stop.Trigger() {
			return nil // current stop is already at least as tight
		}
		if err := s.p.CancelOrder(s.stop, on); err != nil {
			return err
		}
		s.stop = nil
	}
	tradable, err := s.p.TradableQuantity(s.Symbol)
	if err != nil {
		return err
	}
	if tradable <= 0 {
		return nil
	}
	o, err := NewStopOrder(s.Symbol, Sell, trigger, tradable, on)
	if err != nil {
		return err
	}
	o.SetMessage(fmt.Sprintf("trail %.0f%% below %v", s.Trail*100, s.water))
	if err := s.p.OpenOrder(o); err != nil {
		return err
	}
	s.stop = o
	return nil
}
