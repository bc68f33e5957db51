// Package backtest provides a personal backtesting and strategy-evaluation
// toolkit for financial instruments (equities, crypto). It replays a trading
// strategy day by day against historical market data and produces
// performance reports.
//
// The core functionalities include:
//   - Market Data: an in-memory, time-indexed collection of daily OHLC bars
//     per symbol, assembled by fetch adapters and persisted in a
//     human-readable, version-controllable JSONL store.
//   - Order Model: trade intents (market, limit, stop) with type-specific
//     trigger rules evaluated against historical bars.
//   - Portfolio Simulation: the state machine that advances simulated time,
//     settles pending orders against each bar, invokes the strategy, and
//     records a mark-to-market value history.
//   - Strategies: buy-and-hold, indicator-driven (SMA cross, RSI) and
//     trailing-stop strategies deciding when to open or cancel orders.
//   - Sweeps: running independent parameter variations of a simulation in
//     parallel, each job owning its portfolio exclusively.
//
// This package serves as the foundational logic for the `bt` command-line
// tool.
package backtest
