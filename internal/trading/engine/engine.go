package engine

import (
	"context"

	"github.com/rxtech-lab/candle-trader/internal/strategy"
	tradingprovider "github.com/rxtech-lab/candle-trader/internal/trading/provider"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"github.com/rxtech-lab/candle-trader/pkg/schema"
)

// Lifecycle callback types for live trading phases.
// Callbacks returning an error abort the run.

// OnEngineStartCallback is called once the strategy has started and before the first candle.
// previousDataPath is the parquet file holding candles persisted by earlier runs,
// or an empty string when persistence is disabled.
type OnEngineStartCallback func(symbols []string, interval string, previousDataPath string) error

// OnEngineStopCallback is called when Run returns (always called via defer).
type OnEngineStopCallback func(err error)

// OnMarketDataCallback is called for each closed candle before the strategy sees it.
// runID is the session run ID when persistence is enabled, or empty string otherwise.
type OnMarketDataCallback func(runID string, data types.MarketData) error

// OnStrategyEventCallback receives every event the strategy emits, in order.
type OnStrategyEventCallback func(event types.StrategyEvent)

// OnErrorCallback is called for stream errors and for the error that ends a run.
type OnErrorCallback func(err error)

// OnProviderStatusChangeCallback is called when the market data provider connects or disconnects.
type OnProviderStatusChangeCallback func(status types.ProviderConnectionStatus)

// LiveTradingCallbacks holds all lifecycle callback functions for the live trading engine.
// All fields are pointers - nil means no callback will be invoked.
type LiveTradingCallbacks struct {
	OnEngineStart *OnEngineStartCallback

	// OnEngineStop is called when the engine stops (always called via defer).
	OnEngineStop *OnEngineStopCallback

	OnMarketData *OnMarketDataCallback

	OnStrategyEvent *OnStrategyEventCallback

	// OnError is called for non-fatal stream errors and once for a fatal strategy error.
	OnError *OnErrorCallback

	OnProviderStatusChange *OnProviderStatusChangeCallback
}

// LiveTradingEngineConfig holds the configuration for the live trading engine.
type LiveTradingEngineConfig struct {
	// Symbol is the instrument the strategy trades and the stream subscribes to.
	Symbol string `json:"symbol" yaml:"symbol" validate:"required" jsonschema:"title=Symbol,description=Instrument to stream and trade,default=BTCUSDT"`

	// Interval is the candle interval requested from the market data provider.
	Interval string `json:"interval" yaml:"interval" validate:"required" jsonschema:"title=Interval,description=Candle interval,default=1m"`

	// Strategy selects a registered strategy.
	Strategy strategy.Kind `json:"strategy" yaml:"strategy" validate:"required,oneof=echo sma" jsonschema:"title=Strategy,enum=echo,enum=sma,default=sma"`

	// Crossover configures the sma strategy. Ignored by other strategies.
	Crossover strategy.CrossoverConfig `json:"crossover" yaml:"crossover" jsonschema:"title=Crossover"`

	// DataOutputPath enables persistence of candles, events, trades and stats under
	// {path}/{YYYY-MM-DD}/run_N. Empty disables persistence.
	DataOutputPath string `json:"data_output_path" yaml:"data_output_path" jsonschema:"title=Data Output Path,description=Directory for run artifacts"`

	// ProviderName names the streamed candle file, e.g. stream_data_binance_1m.parquet.
	ProviderName string `json:"provider_name" yaml:"provider_name" jsonschema:"title=Provider Name,default=binance"`
}

// GetConfigSchema returns the JSON schema for LiveTradingEngineConfig.
func GetConfigSchema() (string, error) {
	return schema.ToJSONSchema(LiveTradingEngineConfig{}) //nolint:exhaustruct // Empty config for schema generation
}

// LiveTradingEngine runs one strategy over a live candle stream.
type LiveTradingEngine interface {
	// Initialize validates the configuration and prepares the session folders and writers.
	Initialize(config LiveTradingEngineConfig) error

	// SetMarketDataProvider configures the market data provider.
	// The provider must support the Stream() method.
	SetMarketDataProvider(provider provider.Provider) error

	// SetTradingProvider configures the trading provider. Required only by
	// strategies that place orders.
	SetTradingProvider(provider tradingprovider.TradingSystemProvider) error

	// Run starts the live trading engine.
	// Blocks until the stream ends, the context is cancelled or a fatal error occurs.
	Run(ctx context.Context, callbacks LiveTradingCallbacks) error

	// Close releases what Initialize opened when Run is never called, and removes
	// a run folder that is still empty. Run releases everything itself.
	Close() error

	// GetConfigSchema returns the JSON schema for engine configuration.
	GetConfigSchema() (string, error)
}
