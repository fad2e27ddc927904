// Package strategy holds the trading strategies a run can execute and the
// ports they use to reach the broker and report what they do.
package strategy

import (
	"context"

	"github.com/rxtech-lab/candle-trader/internal/types"
)

// OrderPlacer places market orders with a broker.
//
// An implementation may block for the network round trip. A returned error means
// the order was not accepted and the caller must not assume a fill.
type OrderPlacer interface {
	PlaceMarketOrder(ctx context.Context, instrumentID string, quantity int, side types.PurchaseType) error
}

// Observer receives the events a strategy emits, synchronously and in order.
type Observer interface {
	OnEvent(event types.StrategyEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event types.StrategyEvent)

func (f ObserverFunc) OnEvent(event types.StrategyEvent) {
	f(event)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) OnEvent(types.StrategyEvent) {}

// MultiObserver forwards each event to every observer in order.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(event types.StrategyEvent) {
	for _, observer := range m {
		if observer != nil {
			observer.OnEvent(event)
		}
	}
}

// Strategy is a single run of a trading strategy over one instrument's candles.
// Calls must not overlap. A stopped strategy is discarded, not restarted.
type Strategy interface {
	// Name returns the human readable name reported in events.
	Name() string
	// Start resets all run state and announces the run.
	Start(ctx context.Context) error
	// OnCandle processes one closed candle.
	OnCandle(ctx context.Context, candle types.MarketData) error
	// Stop reports the final statistics of the run.
	Stop(ctx context.Context) error
}
