package engine_v1

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/strategy"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine/engine_v1/session"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine/engine_v1/stats"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine/engine_v1/writers"
	tradingprovider "github.com/rxtech-lab/candle-trader/internal/trading/provider"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/writer"
	"go.uber.org/zap"
)

const (
	eventsFileName = "events.parquet"
	tradesFileName = "trades.parquet"
	statsFileName  = "stats.yaml"
)

// LiveTradingEngineV1 implements the LiveTradingEngine interface for real-time trading.
// It is a single consumer of the market data stream: each candle is persisted,
// handed to the callbacks and then to the strategy before the next one is read.
type LiveTradingEngineV1 struct {
	config             engine.LiveTradingEngineConfig
	strategyInfo       strategy.Info
	marketDataProvider provider.Provider
	tradingProvider    tradingprovider.TradingSystemProvider
	validate           *validator.Validate
	log                *logger.Logger
	initialized        bool

	// Writes closed candles to {DataOutputPath}/stream_data_{provider}_{interval}.parquet
	streamingWriter *writer.StreamingDuckDBWriter

	sessionManager *session.Manager
	statsTracker   *stats.StatsTracker
	eventsWriter   *writers.EventsWriter
	tradesWriter   *writers.TradesWriter
}

// NewLiveTradingEngineV1 creates a new LiveTradingEngineV1 instance.
func NewLiveTradingEngineV1(log *logger.Logger) *LiveTradingEngineV1 {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &LiveTradingEngineV1{
		config:             engine.LiveTradingEngineConfig{}, //nolint:exhaustruct // initialized via Initialize()
		strategyInfo:       strategy.Info{},                  //nolint:exhaustruct // initialized via Initialize()
		marketDataProvider: nil,
		tradingProvider:    nil,
		validate:           validator.New(),
		log:                log,
		initialized:        false,
		streamingWriter:    nil,
		sessionManager:     nil,
		statsTracker:       nil,
		eventsWriter:       nil,
		tradesWriter:       nil,
	}
}

// Initialize implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) Initialize(config engine.LiveTradingEngineConfig) error {
	if err := e.validate.Struct(config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine configuration", err)
	}

	info, err := strategy.GetInfo(config.Strategy)
	if err != nil {
		return err
	}

	if config.Strategy == strategy.KindSMA {
		if err := config.Crossover.Validate(); err != nil {
			return err
		}
	}

	if config.ProviderName == "" {
		config.ProviderName = "stream"
	}

	// Exchanges report and accept symbols in upper case.
	config.Symbol = strings.ToUpper(strings.TrimSpace(config.Symbol))

	e.config = config
	e.strategyInfo = info

	if config.DataOutputPath != "" {
		if err := e.initializePersistence(); err != nil {
			e.closeWriters()

			return err
		}
	}

	e.initialized = true

	e.log.Debug("Live trading engine initialized",
		zap.String("symbol", config.Symbol),
		zap.String("interval", config.Interval),
		zap.String("strategy", string(config.Strategy)),
	)

	return nil
}

func (e *LiveTradingEngineV1) initializePersistence() error {
	e.streamingWriter = writer.NewStreamingDuckDBWriter(e.config.DataOutputPath, e.config.ProviderName, e.config.Interval, e.log)
	if err := e.streamingWriter.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to initialize streaming writer", err)
	}

	e.sessionManager = session.NewManager(e.log)
	if err := e.sessionManager.Initialize(e.config.DataOutputPath); err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to initialize session manager", err)
	}

	e.statsTracker = stats.NewStatsTracker(e.log)
	e.statsTracker.Initialize(stats.RunInfo{
		RunID:        e.sessionManager.GetRunID(),
		RunName:      e.sessionManager.GetRunName(),
		Symbol:       e.config.Symbol,
		Strategy:     e.strategyInfo.Name,
		SessionStart: e.sessionManager.GetSessionStart(),
	})

	if err := e.openRunWriters(); err != nil {
		return err
	}

	e.log.Info("Data persistence enabled",
		zap.String("run_id", e.sessionManager.GetRunID()),
		zap.String("run_path", e.sessionManager.GetCurrentRunPath()),
		zap.String("market_data_path", e.streamingWriter.GetOutputPath()),
	)

	return nil
}

// openRunWriters opens the journal writers in the current run folder and
// points the stats tracker at it.
func (e *LiveTradingEngineV1) openRunWriters() error {
	runID := e.sessionManager.GetRunID()

	e.eventsWriter = writers.NewEventsWriter(e.sessionManager.GetFilePath(eventsFileName), runID, e.log)
	if err := e.eventsWriter.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to initialize events writer", err)
	}

	e.tradesWriter = writers.NewTradesWriter(e.sessionManager.GetFilePath(tradesFileName), runID, e.config.Symbol, e.log)
	if err := e.tradesWriter.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to initialize trades writer", err)
	}

	e.statsTracker.SetFilePaths(
		e.eventsWriter.GetOutputPath(),
		e.streamingWriter.GetOutputPath(),
		e.sessionManager.GetFilePath(statsFileName),
	)

	return nil
}

// SetMarketDataProvider implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) SetMarketDataProvider(marketProvider provider.Provider) error {
	if marketProvider == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "market data provider is nil")
	}

	e.marketDataProvider = marketProvider
	e.log.Debug("Market data provider set")

	return nil
}

// SetTradingProvider implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) SetTradingProvider(tradingProvider tradingprovider.TradingSystemProvider) error {
	if tradingProvider == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "trading provider is nil")
	}

	e.tradingProvider = tradingProvider
	e.log.Debug("Trading provider set")

	return nil
}

// Run implements engine.LiveTradingEngine.
//
// Stream errors are reported through OnError and skipped. A strategy error is
// fatal: it is logged and reported, the strategy is stopped and the error
// returned. On cancellation the strategy is stopped to flush its final
// statistics and ctx.Err() is returned.
//
//nolint:gocyclo // Run orchestrates the live trading loop which requires handling many cases
func (e *LiveTradingEngineV1) Run(ctx context.Context, callbacks engine.LiveTradingCallbacks) error {
	var runErr error

	defer func() {
		e.finishRun()

		if callbacks.OnEngineStop != nil {
			(*callbacks.OnEngineStop)(runErr)
		}
	}()

	if err := e.preRunCheck(); err != nil {
		runErr = err

		return err
	}

	e.watchProviderStatus(callbacks)

	strat, err := strategy.New(e.config.Strategy, strategy.Params{
		Port:         e.tradingProvider,
		InstrumentID: e.config.Symbol,
		Observer:     e.observers(callbacks),
		Logger:       e.log,
		Crossover:    e.config.Crossover,
	})
	if err != nil {
		runErr = errors.Wrap(errors.ErrCodeStrategyNotLoaded, "failed to create strategy", err)

		return runErr
	}

	if err := strat.Start(ctx); err != nil {
		runErr = errors.Wrap(errors.ErrCodeStrategyRuntimeError, "failed to start strategy", err)

		return runErr
	}

	// Stop runs once, on a context that survives cancellation so final events are delivered.
	stopped := false
	stopStrategy := func() {
		if stopped {
			return
		}

		stopped = true

		if err := strat.Stop(context.WithoutCancel(ctx)); err != nil {
			e.log.Warn("Failed to stop strategy", zap.Error(err))
		}
	}
	defer stopStrategy()

	if callbacks.OnEngineStart != nil {
		previousDataPath := ""
		if e.streamingWriter != nil {
			previousDataPath = e.streamingWriter.GetOutputPath()
		}

		if err := (*callbacks.OnEngineStart)([]string{e.config.Symbol}, e.config.Interval, previousDataPath); err != nil {
			runErr = errors.Wrap(errors.ErrCodeCallbackFailed, "OnEngineStart callback failed", err)

			return runErr
		}
	}

	runID := ""
	if e.sessionManager != nil {
		runID = e.sessionManager.GetRunID()
	}

	stream := e.marketDataProvider.Stream(ctx, []string{e.config.Symbol}, e.config.Interval)

	for data, err := range stream {
		if ctx.Err() != nil {
			break
		}

		if err != nil {
			e.log.Warn("Stream error received", zap.Error(err))

			if callbacks.OnError != nil {
				(*callbacks.OnError)(err)
			}

			continue
		}

		if !strings.EqualFold(data.Symbol, e.config.Symbol) {
			e.log.Debug("Skipping candle for unrelated symbol", zap.String("symbol", data.Symbol))

			continue
		}

		e.handleDateBoundary(data)

		if e.streamingWriter != nil {
			if writeErr := e.streamingWriter.Write(data); writeErr != nil {
				e.log.Error("Failed to persist market data",
					zap.String("symbol", data.Symbol),
					zap.Time("time", data.Time),
					zap.Error(writeErr),
				)
			}
		}

		if e.statsTracker != nil {
			e.statsTracker.RecordCandle(data)
		}

		if callbacks.OnMarketData != nil {
			if err := (*callbacks.OnMarketData)(runID, data); err != nil {
				runErr = errors.Wrap(errors.ErrCodeCallbackFailed, "OnMarketData callback failed", err)

				return runErr
			}
		}

		if err := strat.OnCandle(ctx, data); err != nil {
			e.log.Error("Strategy error",
				zap.String("symbol", data.Symbol),
				zap.Time("time", data.Time),
				zap.Error(err),
			)

			if callbacks.OnError != nil {
				(*callbacks.OnError)(err)
			}

			runErr = err

			return runErr
		}

		if e.statsTracker != nil {
			if err := e.statsTracker.WriteStatsYAML(); err != nil {
				e.log.Warn("Failed to write stats", zap.Error(err))
			}
		}
	}

	stopStrategy()

	if ctx.Err() != nil {
		runErr = ctx.Err()

		return runErr
	}

	return nil
}

// observers fans strategy events out to the callback, the journal and the stats tracker.
func (e *LiveTradingEngineV1) observers(callbacks engine.LiveTradingCallbacks) strategy.Observer {
	observers := strategy.MultiObserver{}

	if e.statsTracker != nil {
		observers = append(observers, e.statsTracker)
	}

	if e.eventsWriter != nil {
		observers = append(observers, strategy.ObserverFunc(e.journal))
	}

	if callbacks.OnStrategyEvent != nil {
		observers = append(observers, strategy.ObserverFunc(*callbacks.OnStrategyEvent))
	}

	return observers
}

func (e *LiveTradingEngineV1) journal(event types.StrategyEvent) {
	if err := e.eventsWriter.Write(event); err != nil {
		e.log.Warn("Failed to journal event", zap.String("event_type", string(event.EventType())), zap.Error(err))
	}

	var err error

	switch ev := event.(type) {
	case types.TradeEntry:
		err = e.tradesWriter.WriteEntry(ev)
	case types.TradeExit:
		err = e.tradesWriter.WriteExit(ev)
	}

	if err != nil {
		e.log.Warn("Failed to record trade", zap.Error(err))
	}
}

// watchProviderStatus forwards connection changes of providers that report them.
func (e *LiveTradingEngineV1) watchProviderStatus(callbacks engine.LiveTradingCallbacks) {
	notifier, ok := e.marketDataProvider.(provider.StatusNotifier)
	if !ok {
		return
	}

	notifier.SetOnStatusChange(func(status types.ProviderConnectionStatus) {
		e.log.Info("Market data provider status changed", zap.String("status", string(status)))

		if callbacks.OnProviderStatusChange != nil {
			(*callbacks.OnProviderStatusChange)(status)
		}
	})
}

// handleDateBoundary moves the run artifacts to a new date folder when a candle
// crosses midnight.
func (e *LiveTradingEngineV1) handleDateBoundary(data types.MarketData) {
	if e.sessionManager == nil {
		return
	}

	crossed, err := e.sessionManager.HandleDateBoundary(data.Time)
	if err != nil {
		e.log.Warn("Failed to handle date boundary", zap.Error(err))

		return
	}

	if !crossed {
		return
	}

	if err := e.statsTracker.WriteStatsYAML(); err != nil {
		e.log.Warn("Failed to write stats", zap.Error(err))
	}

	e.statsTracker.HandleDateBoundary(e.sessionManager.GetCurrentDate())
	e.closeRunWriters()

	if err := e.openRunWriters(); err != nil {
		e.log.Error("Failed to open writers for new date", zap.Error(err))
	}
}

func (e *LiveTradingEngineV1) finishRun() {
	if e.statsTracker != nil {
		if err := e.statsTracker.WriteStatsYAML(); err != nil {
			e.log.Warn("Failed to write final stats", zap.Error(err))
		}
	}

	e.closeWriters()
}

func (e *LiveTradingEngineV1) closeRunWriters() {
	if e.eventsWriter != nil {
		if err := e.eventsWriter.Close(); err != nil {
			e.log.Warn("Failed to close events writer", zap.Error(err))
		}
	}

	if e.tradesWriter != nil {
		if err := e.tradesWriter.Close(); err != nil {
			e.log.Warn("Failed to close trades writer", zap.Error(err))
		}
	}
}

func (e *LiveTradingEngineV1) closeWriters() {
	e.closeRunWriters()

	if e.streamingWriter != nil {
		if err := e.streamingWriter.Close(); err != nil {
			e.log.Warn("Failed to close streaming writer", zap.Error(err))
		}
	}
}

// Close implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) Close() error {
	e.closeWriters()

	if e.sessionManager == nil {
		return nil
	}

	return e.sessionManager.RemoveIfEmpty()
}

// GetConfigSchema implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) GetConfigSchema() (string, error) {
	return engine.GetConfigSchema()
}

// RunID returns the session run ID, or an empty string when persistence is disabled.
func (e *LiveTradingEngineV1) RunID() string {
	if e.sessionManager == nil {
		return ""
	}

	return e.sessionManager.GetRunID()
}

// RunPath returns the current run folder, or an empty string when persistence is disabled.
func (e *LiveTradingEngineV1) RunPath() string {
	if e.sessionManager == nil {
		return ""
	}

	return e.sessionManager.GetCurrentRunPath()
}

// preRunCheck validates that all required components are configured before running.
func (e *LiveTradingEngineV1) preRunCheck() error {
	if !e.initialized {
		return errors.New(errors.ErrCodeEngineNotReady, "engine not initialized - call Initialize() first")
	}

	if e.marketDataProvider == nil {
		return errors.New(errors.ErrCodeEngineNotReady, "market data provider not set - call SetMarketDataProvider() first")
	}

	if e.strategyInfo.PlacesOrders && e.tradingProvider == nil {
		return errors.Newf(errors.ErrCodeEngineNotReady, "strategy %s places orders - call SetTradingProvider() first", e.strategyInfo.Kind)
	}

	return nil
}

var _ engine.LiveTradingEngine = (*LiveTradingEngineV1)(nil)
