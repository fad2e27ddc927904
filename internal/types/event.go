package types

import "time"

// EventType identifies the kind of a StrategyEvent.
type EventType string

const (
	EventTypeStrategyStarted   EventType = "strategy_started"
	EventTypeCandleReceived    EventType = "candle_received"
	EventTypeIndicatorsUpdated EventType = "indicators_updated"
	EventTypeTradeEntry        EventType = "trade_entry"
	EventTypeTradeExit         EventType = "trade_exit"
	EventTypeStrategyStopped   EventType = "strategy_stopped"
)

// StrategyEvent is emitted by a strategy to its observer. The set of
// implementations is closed; observers switch on the concrete type.
type StrategyEvent interface {
	EventType() EventType
	isStrategyEvent()
}

// StrategyStarted is emitted once per Start.
type StrategyStarted struct {
	Strategy string `yaml:"strategy" json:"strategy"`
	// Window sizes and quantity are zero for strategies without them.
	FastWindow    int `yaml:"fast_window" json:"fast_window"`
	SlowWindow    int `yaml:"slow_window" json:"slow_window"`
	OrderQuantity int `yaml:"order_quantity" json:"order_quantity"`
}

// CandleReceived is emitted by the echo strategy for every candle.
type CandleReceived struct {
	Timestamp   time.Time `yaml:"timestamp" json:"timestamp"`
	Symbol      string    `yaml:"symbol" json:"symbol"`
	Price       float64   `yaml:"price" json:"price"`
	Volume      float64   `yaml:"volume" json:"volume"`
	CandleCount int       `yaml:"candle_count" json:"candle_count"`
}

// IndicatorsUpdated carries the moving averages computed for one observation.
type IndicatorsUpdated struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Price     float64   `yaml:"price" json:"price"`
	FastMA    float64   `yaml:"fast_ma" json:"fast_ma"`
	SlowMA    float64   `yaml:"slow_ma" json:"slow_ma"`
}

// TradeEntry is emitted after a buy order has been placed and the position opened.
type TradeEntry struct {
	Timestamp time.Time    `yaml:"timestamp" json:"timestamp"`
	Price     float64      `yaml:"price" json:"price"`
	Direction PurchaseType `yaml:"direction" json:"direction"`
	Quantity  int          `yaml:"quantity" json:"quantity"`
}

// TradeExit is emitted after a sell order has been placed and the position closed.
type TradeExit struct {
	Timestamp           time.Time    `yaml:"timestamp" json:"timestamp"`
	Price               float64      `yaml:"price" json:"price"`
	Direction           PurchaseType `yaml:"direction" json:"direction"`
	Quantity            int          `yaml:"quantity" json:"quantity"`
	Profit              float64      `yaml:"profit" json:"profit"`
	TotalRealizedProfit float64      `yaml:"total_realized_profit" json:"total_realized_profit"`
}

// StrategyStopped carries the final statistics of a run.
type StrategyStopped struct {
	Strategy            string  `yaml:"strategy" json:"strategy"`
	TotalRealizedProfit float64 `yaml:"total_realized_profit" json:"total_realized_profit"`
	CompletedTrades     int     `yaml:"completed_trades" json:"completed_trades"`
	WinningTrades       int     `yaml:"winning_trades" json:"winning_trades"`
	// WinRate is a percentage in [0, 100].
	WinRate          float64 `yaml:"win_rate" json:"win_rate"`
	CandlesProcessed int     `yaml:"candles_processed" json:"candles_processed"`
}

func (StrategyStarted) EventType() EventType   { return EventTypeStrategyStarted }
func (CandleReceived) EventType() EventType    { return EventTypeCandleReceived }
func (IndicatorsUpdated) EventType() EventType { return EventTypeIndicatorsUpdated }
func (TradeEntry) EventType() EventType        { return EventTypeTradeEntry }
func (TradeExit) EventType() EventType         { return EventTypeTradeExit }
func (StrategyStopped) EventType() EventType   { return EventTypeStrategyStopped }

func (StrategyStarted) isStrategyEvent()   {}
func (CandleReceived) isStrategyEvent()    {}
func (IndicatorsUpdated) isStrategyEvent() {}
func (TradeEntry) isStrategyEvent()        {}
func (TradeExit) isStrategyEvent()         {}
func (StrategyStopped) isStrategyEvent()   {}
