package strategy

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/candle-trader/internal/indicator"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

const CrossoverName = "SMA-Cross"

// CrossoverConfig configures the moving-average crossover strategy.
type CrossoverConfig struct {
	// FastWindow is the number of closes in the fast moving average.
	FastWindow int `yaml:"fast_window" json:"fast_window" jsonschema:"title=Fast Window,description=Number of candles in the fast moving average,minimum=1,default=20"`
	// SlowWindow is the number of closes in the slow moving average. Must be greater than FastWindow.
	SlowWindow int `yaml:"slow_window" json:"slow_window" jsonschema:"title=Slow Window,description=Number of candles in the slow moving average,minimum=2,default=50"`
	// OrderQuantity is the number of units bought on entry and sold on exit.
	OrderQuantity int `yaml:"order_quantity" json:"order_quantity" jsonschema:"title=Order Quantity,description=Units per market order,minimum=1,default=1"`
}

// DefaultCrossoverConfig returns the 20/50 crossover trading a single unit.
func DefaultCrossoverConfig() CrossoverConfig {
	return CrossoverConfig{
		FastWindow:    20,
		SlowWindow:    50,
		OrderQuantity: 1,
	}
}

// Validate checks the window relationship and the order quantity.
func (c CrossoverConfig) Validate() error {
	if c.FastWindow <= 0 || c.SlowWindow <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "moving average windows must be positive, got fast=%d slow=%d", c.FastWindow, c.SlowWindow)
	}

	if c.FastWindow >= c.SlowWindow {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "fast window (%d) must be smaller than slow window (%d)", c.FastWindow, c.SlowWindow)
	}

	if c.OrderQuantity < 1 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "order quantity must be at least 1, got %d", c.OrderQuantity)
	}

	return nil
}

// Position is the strategy's view of its single long position.
type Position struct {
	IsOpen     bool
	EntryPrice float64
}

// Crossover goes long when the fast moving average rises above the slow one and
// closes the position when it falls below. It is not safe for concurrent use.
type Crossover struct {
	port         OrderPlacer
	instrumentID string
	config       CrossoverConfig
	observer     Observer

	history *indicator.PriceWindow
	fast    *indicator.MA
	slow    *indicator.MA

	position         Position
	stats            types.PerformanceStats
	candlesProcessed int
	lastIndicators   optional.Option[types.IndicatorsUpdated]
}

// NewCrossover creates a crossover strategy trading instrumentID through port.
// A nil observer discards events.
func NewCrossover(port OrderPlacer, instrumentID string, config CrossoverConfig, observer Observer) (*Crossover, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if port == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "order placer is required")
	}

	if observer == nil {
		observer = NopObserver{}
	}

	history, err := indicator.NewPriceWindow(config.SlowWindow)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create price history", err)
	}

	fast, err := indicator.NewMA(config.FastWindow)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create fast moving average", err)
	}

	slow, err := indicator.NewMA(config.SlowWindow)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create slow moving average", err)
	}

	return &Crossover{
		port:           port,
		instrumentID:   instrumentID,
		config:         config,
		observer:       observer,
		history:        history,
		fast:           fast,
		slow:           slow,
		lastIndicators: optional.None[types.IndicatorsUpdated](),
	}, nil
}

func (c *Crossover) Name() string {
	return CrossoverName
}

// Start clears history, position and statistics and emits StrategyStarted.
func (c *Crossover) Start(_ context.Context) error {
	c.history.Reset()
	c.position = Position{}
	c.stats = types.PerformanceStats{}
	c.candlesProcessed = 0
	c.lastIndicators = optional.None[types.IndicatorsUpdated]()

	c.observer.OnEvent(types.StrategyStarted{
		Strategy:      c.Name(),
		FastWindow:    c.config.FastWindow,
		SlowWindow:    c.config.SlowWindow,
		OrderQuantity: c.config.OrderQuantity,
	})

	return nil
}

// OnCandle processes the candle's close price.
func (c *Crossover) OnCandle(ctx context.Context, candle types.MarketData) error {
	return c.OnPrice(ctx, candle.Observation())
}

// OnPrice appends the observation to the history and, once the slow window is
// full, recomputes both averages and acts on a crossover.
//
// An error from the order placer is returned as is. In that case the position
// and statistics are unchanged and no trade event is emitted.
func (c *Crossover) OnPrice(ctx context.Context, obs types.PriceObservation) error {
	c.history.Add(obs)
	c.candlesProcessed++

	if !c.slow.Ready(c.history) {
		return nil
	}

	fastMA, err := c.fast.Value(c.history)
	if err != nil {
		return err
	}

	slowMA, err := c.slow.Value(c.history)
	if err != nil {
		return err
	}

	update := types.IndicatorsUpdated{
		Timestamp: obs.Time,
		Price:     obs.Close,
		FastMA:    fastMA,
		SlowMA:    slowMA,
	}
	c.lastIndicators = optional.Some(update)
	c.observer.OnEvent(update)

	switch {
	case fastMA > slowMA && !c.position.IsOpen:
		return c.enter(ctx, obs)
	case fastMA < slowMA && c.position.IsOpen:
		return c.exit(ctx, obs)
	}

	return nil
}

func (c *Crossover) enter(ctx context.Context, obs types.PriceObservation) error {
	if err := c.port.PlaceMarketOrder(ctx, c.instrumentID, c.config.OrderQuantity, types.PurchaseTypeBuy); err != nil {
		return err
	}

	c.position = Position{IsOpen: true, EntryPrice: obs.Close}

	c.observer.OnEvent(types.TradeEntry{
		Timestamp: obs.Time,
		Price:     obs.Close,
		Direction: types.PurchaseTypeBuy,
		Quantity:  c.config.OrderQuantity,
	})

	return nil
}

func (c *Crossover) exit(ctx context.Context, obs types.PriceObservation) error {
	if err := c.port.PlaceMarketOrder(ctx, c.instrumentID, c.config.OrderQuantity, types.PurchaseTypeSell); err != nil {
		return err
	}

	profit := (obs.Close - c.position.EntryPrice) * float64(c.config.OrderQuantity)

	c.stats.TotalRealizedProfit += profit
	c.stats.CompletedTrades++

	if profit > 0 {
		c.stats.WinningTrades++
	}

	c.position = Position{}

	c.observer.OnEvent(types.TradeExit{
		Timestamp:           obs.Time,
		Price:               obs.Close,
		Direction:           types.PurchaseTypeSell,
		Quantity:            c.config.OrderQuantity,
		Profit:              profit,
		TotalRealizedProfit: c.stats.TotalRealizedProfit,
	})

	return nil
}

// Stop emits StrategyStopped with the run's statistics. State is left intact.
func (c *Crossover) Stop(_ context.Context) error {
	c.observer.OnEvent(types.StrategyStopped{
		Strategy:            c.Name(),
		TotalRealizedProfit: c.stats.TotalRealizedProfit,
		CompletedTrades:     c.stats.CompletedTrades,
		WinningTrades:       c.stats.WinningTrades,
		WinRate:             c.stats.WinRate(),
		CandlesProcessed:    c.candlesProcessed,
	})

	return nil
}

func (c *Crossover) Config() CrossoverConfig {
	return c.config
}

func (c *Crossover) Position() Position {
	return c.position
}

func (c *Crossover) Stats() types.PerformanceStats {
	return c.stats
}

// LastIndicators returns the most recent averages, or None before the slow window fills.
func (c *Crossover) LastIndicators() optional.Option[types.IndicatorsUpdated] {
	return c.lastIndicators
}
