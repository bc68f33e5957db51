package backtest

import (
	"fmt"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		panic(fmt.Sprintf("unknown side %d", int(s)))
	}
}

// Kind is the trigger family of an order.
type Kind int

const (
	// Market orders fill on the first bar at or after their open time, at
	// that bar's reference column (open by default).
	Market Kind = iota
	// Limit orders fill at their trigger price when the bar trades through
	// it favorably (low for buys, high for sells).
	Limit
	// Stop orders fill at their trigger price when the bar trades through
	// it adversely (high for buys, low for sells).
	Stop
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "market"
	case Limit:
		return "limit"
	case Stop:
		return "stop"
	default:
		panic(fmt.Sprintf("unknown kind %d", int(k)))
	}
}

// Status is the lifecycle state of an order.
type Status int

const (
	StatusOpen Status = iota
	Filled
	Canceled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case Filled:
		return "filled"
	case Canceled:
		return "canceled"
	default:
		panic(fmt.Sprintf("unknown status %d", int(s)))
	}
}

// Order is a trade intent with a type-specific trigger rule.
//
// Quantity is denominated in the portfolio's base currency for buys (cash to
// spend) and in units of the symbol for sells (units to dispose).
type Order struct {
	symbol    string
	side      Side
	kind      Kind
	trigger   float64 // limit and stop orders only
	quantity  float64
	ref       Column // market fill reference column
	openTime  Date
	closeTime Date
	status    Status
	message   string
}

// NewOrder constructs an order in Open status.
//
// trigger must be positive for limit and stop orders and zero for market
// orders. quantity must be positive.
func NewOrder(symbol string, side Side, kind Kind, trigger, quantity float64, on Date) (*Order, error) {
	if symbol == "" {
		return nil, fmt.Errorf("order has an empty symbol")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("order for %q has non-positive quantity %v", symbol, quantity)
	}
	switch kind {
	case Market:
		if trigger != 0 {
			return nil, fmt.Errorf("market order for %q must not carry a trigger price, got %v", symbol, trigger)
		}
	case Limit, Stop:
		if trigger <= 0 {
			return nil, fmt.Errorf("%s order for %q requires a positive trigger price, got %v", kind, symbol, trigger)
		}
	}
	return &Order{
		symbol:   symbol,
		side:     side,
		kind:     kind,
		trigger:  trigger,
		quantity: quantity,
		ref:      Open,
		openTime: on,
		status:   StatusOpen,
	}, nil
}

// NewMarketOrder constructs a market order.
func NewMarketOrder(symbol string, side Side, quantity float64, on Date) (*Order, error) {
	return NewOrder(symbol, side, Market, 0, quantity, on)
}

// NewLimitOrder constructs a limit order.
func NewLimitOrder(symbol string, side Side, trigger, quantity float64, on Date) (*Order, error) {
	return NewOrder(symbol, side, Limit, trigger, quantity, on)
}

// NewStopOrder constructs a stop order.
func NewStopOrder(symbol string, side Side, trigger, quantity float64, on Date) (*Order, error) {
	return NewOrder(symbol, side, Stop, trigger, quantity, on)
}

// SetRef overrides the reference column a market order fills at. This
// simulates limit-style fills at a configured price column (e.g. close).
func (o *Order) SetRef(col Column) { o.ref = col }

// SetMessage attaches a human-readable note to the order.
func (o *Order) SetMessage(msg string) { o.message = msg }

func (o *Order) Symbol() string   { return o.symbol }
func (o *Order) Side() Side       { return o.side }
func (o *Order) Kind() Kind       { return o.kind }
func (o *Order) Trigger() float64 { return o.trigger }
func (o *Order) Quantity() float64 {
	return o.quantity
}
func (o *Order) OpenTime() Date  { return o.openTime }
func (o *Order) CloseTime() Date { return o.closeTime }
func (o *Order) Status() Status  { return o.status }
func (o *Order) Message() string { return o.message }

// Matches reports whether the given bar satisfies this order's trigger.
func (o *Order) Matches(bar Bar) bool {
	if bar.Symbol != o.symbol {
		return false
	}
	switch o.kind {
	case Market:
		return !bar.On.Before(o.openTime)
	case Limit:
		if o.side == Buy {
			return bar.Low <= o.trigger
		}
		return bar.High >= o.trigger
	case Stop:
		if o.side == Buy {
			return bar.High >= o.trigger
		}
		return bar.Low <= o.trigger
	default:
		panic(fmt.Sprintf("unknown kind %d", int(o.kind)))
	}
}

// FillPrice returns the price the order settles at against the given bar.
//
// Limit and stop orders fill at exactly their trigger price, never at the
// bar's extreme: favorable-fill semantics, not slippage-realistic.
func (o *Order) FillPrice(bar Bar) (float64, error) {
	if o.kind == Market {
		return bar.Value(o.ref)
	}
	return o.trigger, nil
}

// Fill transitions the order to Filled and stamps its close time.
func (o *Order) Fill(on Date) error {
	if o.status != StatusOpen {
		return fmt.Errorf("cannot fill %s order for %q: already %s", o.kind, o.symbol, o.status)
	}
	o.status = Filled
	o.closeTime = on
	return nil
}

// Cancel transitions the order to Canceled and stamps its close time.
func (o *Order) Cancel(on Date) error {
	if o.status != StatusOpen {
		return fmt.Errorf("cannot cancel %s order for %q: already %s", o.kind, o.symbol, o.status)
	}
	o.status = Canceled
	o.closeTime = on
	return nil
}

// String describes the order for logs and reports.
func (o *Order) String() string {
	switch o.kind {
	case Market:
		return fmt.Sprintf("%s %s %v %q", o.kind, o.side, o.quantity, o.symbol)
	default:
		return fmt.Sprintf("%s %s %v %q @ %v", o.kind, o.side, o.quantity, o.symbol, o.trigger)
	}
}
