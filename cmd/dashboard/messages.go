package main

import "github.com/rxtech-lab/candle-trader/internal/types"

// CandleMsg carries a closed candle before the strategy sees it.
type CandleMsg struct {
	Data types.MarketData
}

// StrategyEventMsg carries an event emitted by the running strategy.
type StrategyEventMsg struct {
	Event types.StrategyEvent
}

// RunErrorMsg reports a non-fatal error, such as a dropped stream message.
type RunErrorMsg struct {
	Err error
}

// ProviderStatusMsg reports a market data connection change.
type ProviderStatusMsg struct {
	Status types.ProviderConnectionStatus
}

// RunFinishedMsg is the last message of a run.
type RunFinishedMsg struct {
	Err error
}
