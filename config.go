package backtest

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// StrategyConfig selects a strategy by name and carries its numeric
// parameters.
type StrategyConfig struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// RunConfig describes one simulation run.
type RunConfig struct {
	Title    string             `yaml:"title"`
	Base     string             `yaml:"base"`
	Symbol   string             `yaml:"symbol"`
	Initial  map[string]float64 `yaml:"initial"`
	Start    string             `yaml:"start,omitempty"`
	End      string             `yaml:"end,omitempty"`
	Mark     string             `yaml:"mark,omitempty"` // mark-to-market column, close by default
	Strategy StrategyConfig     `yaml:"strategy"`
}

// SweepConfig describes a grid of runs derived from a base run: every
// combination of the grid values becomes one independent job.
type SweepConfig struct {
	Run     RunConfig            `yaml:"run"`
	Grid    map[string][]float64 `yaml:"grid"`
	Workers int                  `yaml:"workers,omitempty"`
}

// LoadRunConfig reads and validates a run configuration from a YAML file.
func LoadRunConfig(path string) (*RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var c RunConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing run config %q: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config %q: %w", path, err)
	}
	return &c, nil
}

// LoadSweepConfig reads and validates a sweep configuration from a YAML file.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep config: %w", err)
	}
	var c SweepConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing sweep config %q: %w", path, err)
	}
	if err := c.Run.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep config %q: %w", path, err)
	}
	if len(c.Grid) == 0 {
		return nil, fmt.Errorf("invalid sweep config %q: empty grid", path)
	}
	return &c, nil
}

// Validate checks the configuration without touching market data.
func (c *RunConfig) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("missing title")
	}
	if c.Base == "" {
		return fmt.Errorf("missing base currency")
	}
	if c.Symbol == "" {
		return fmt.Errorf("missing symbol")
	}
	if len(c.Initial) == 0 {
		return fmt.Errorf("missing initial holdings")
	}
	if _, ok := c.Initial[c.Base]; !ok {
		return fmt.Errorf("initial holdings must include the base currency %q", c.Base)
	}
	if _, err := NewStrategy(c.Strategy); err != nil {
		return err
	}
	if c.Start != "" {
		if _, err := ParseDate(c.Start); err != nil {
			return err
		}
	}
	if c.End != "" {
		if _, err := ParseDate(c.End); err != nil {
			return err
		}
	}
	return nil
}

// Bounds returns the configured simulation time bounds.
func (c *RunConfig) Bounds() (Range, error) {
	var r Range
	var err error
	if c.Start != "" {
		if r.From, err = ParseDate(c.Start); err != nil {
			return r, err
		}
	}
	if c.End != "" {
		if r.To, err = ParseDate(c.End); err != nil {
			return r, err
		}
	}
	return r, nil
}

// NewPortfolio constructs the portfolio described by the configuration.
func (c *RunConfig) NewPortfolio(market *MarketData) (*Portfolio, error) {
	initial := make(map[string]float64, len(c.Initial)+1)
	for k, v := range c.Initial {
		initial[k] = v
	}
	if _, ok := initial[c.Symbol]; !ok {
		initial[c.Symbol] = 0
	}
	p, err := NewPortfolio(c.Title, market, c.Base, initial)
	if err != nil {
		return nil, err
	}
	bounds, err := c.Bounds()
	if err != nil {
		return nil, err
	}
	if err := p.SetBounds(bounds); err != nil {
		return nil, err
	}
	if c.Mark != "" {
		if err := p.SetMark(Column(c.Mark)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// strategyFactories is the explicit registry mapping a strategy name to its
// constructor. A name absent from this map is an "unknown strategy" error at
// load time; there is no runtime string-to-type lookup.
var strategyFactories = map[string]func(symbol string, params map[string]float64) (Strategy, error){
	"buy-and-hold": func(symbol string, _ map[string]float64) (Strategy, error) {
		return &BuyAndHold{Symbol: symbol}, nil
	},
	"sma-cross": func(symbol string, params map[string]float64) (Strategy, error) {
		return &SMACross{
			Symbol: symbol,
			Fast:   int(params["fast"]),
			Slow:   int(params["slow"]),
		}, nil
	},
	"macd": func(symbol string, params map[string]float64) (Strategy, error) {
		return &MACDStrategy{
			Symbol: symbol,
			Fast:   int(params["fast"]),
			Slow:   int(params["slow"]),
			Signal: int(params["signal"]),
		}, nil
	},
	"rsi": func(symbol string, params map[string]float64) (Strategy, error) {
		return &RSIStrategy{
			Symbol: symbol,
			Period: int(params["period"]),
			Low:    params["low"],
			High:   params["high"],
		}, nil
	},
	"trailing-stop": func(symbol string, params map[string]float64) (Strategy, error) {
		return &TrailingStop{
			Symbol: symbol,
			Trail:  params["trail"],
		}, nil
	},
}

// StrategyNames lists the registered strategy names in alphabetical order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategyFactories))
	for name := range strategyFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newStrategy builds the named strategy for a symbol. The configuration's
// parameter values are validated by the strategy's own Init.
func newStrategy(name, symbol string, params map[string]float64) (Strategy, error) {
	factory, ok := strategyFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q, want one of %v", name, StrategyNames())
	}
	return factory(symbol, params)
}

// NewStrategyFor builds the strategy a run configuration describes.
func (c *RunConfig) NewStrategyFor() (Strategy, error) {
	return newStrategy(c.Strategy.Name, c.Symbol, c.Strategy.Params)
}

// NewStrategy checks that the named strategy exists and constructs it with
// a placeholder symbol. Used by configuration validation.
func NewStrategy(sc StrategyConfig) (Strategy, error) {
	if sc.Name == "" {
		return nil, fmt.Errorf("missing strategy name, want one of %v", StrategyNames())
	}
	return newStrategy(sc.Name, "-", sc.Params)
}
