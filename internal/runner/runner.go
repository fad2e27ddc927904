// Package runner assembles a live run from settings: the market data provider,
// the trading provider and the live trading engine.
package runner

import (
	"context"

	"github.com/rxtech-lab/candle-trader/internal/config"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/strategy"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine/engine_v1"
	tradingprovider "github.com/rxtech-lab/candle-trader/internal/trading/provider"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// Runner owns one configured engine. It is used once.
type Runner struct {
	settings        config.Settings
	engine          *engine_v1.LiveTradingEngineV1
	tradingProvider tradingprovider.TradingSystemProvider
	log             *logger.Logger
}

// New validates settings and builds the providers and the engine. A trading
// provider is only created for strategies that place orders.
func New(settings config.Settings, log *logger.Logger) (*Runner, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	marketType, marketConfig, err := settings.MarketDataProviderConfig()
	if err != nil {
		return nil, err
	}

	marketProvider, err := provider.NewMarketDataProvider(marketType, marketConfig, log)
	if err != nil {
		return nil, err
	}

	info, err := strategy.GetInfo(settings.Strategy)
	if err != nil {
		return nil, err
	}

	var tradingProvider tradingprovider.TradingSystemProvider

	if info.PlacesOrders {
		tradingType, tradingConfig, err := settings.TradingProviderConfig()
		if err != nil {
			return nil, err
		}

		tradingProvider, err = tradingprovider.NewTradingSystemProvider(tradingType, tradingConfig, log)
		if err != nil {
			return nil, err
		}
	}

	liveEngine := engine_v1.NewLiveTradingEngineV1(log)
	if err := liveEngine.Initialize(settings.EngineConfig()); err != nil {
		return nil, err
	}

	if err := wireProviders(liveEngine, marketProvider, tradingProvider); err != nil {
		if closeErr := liveEngine.Close(); closeErr != nil {
			log.Warn("Failed to release engine", zap.Error(closeErr))
		}

		return nil, err
	}

	log.Info("Runner ready",
		zap.String("market_data_provider", string(settings.MarketDataProvider)),
		zap.String("trading_provider", string(settings.TradingProvider)),
		zap.String("strategy", string(settings.Strategy)),
		zap.String("symbol", settings.Symbol),
	)

	return &Runner{
		settings:        settings,
		engine:          liveEngine,
		tradingProvider: tradingProvider,
		log:             log,
	}, nil
}

func wireProviders(e *engine_v1.LiveTradingEngineV1, marketProvider provider.Provider, tradingProvider tradingprovider.TradingSystemProvider) error {
	if err := e.SetMarketDataProvider(marketProvider); err != nil {
		return err
	}

	if tradingProvider == nil {
		return nil
	}

	return e.SetTradingProvider(tradingProvider)
}

// Run checks the broker connection and blocks until the engine stops. When the
// broker is unreachable the engine is released without running.
func (r *Runner) Run(ctx context.Context, callbacks engine.LiveTradingCallbacks) error {
	if r.tradingProvider != nil {
		if err := r.tradingProvider.CheckConnection(ctx); err != nil {
			if closeErr := r.engine.Close(); closeErr != nil {
				r.log.Warn("Failed to release engine", zap.Error(closeErr))
			}

			return errors.Wrap(errors.ErrCodeProviderNotReady, "trading provider is not reachable", err)
		}
	}

	return r.engine.Run(ctx, callbacks)
}

// RunPath returns the folder receiving this run's artifacts, or an empty string
// when persistence is disabled.
func (r *Runner) RunPath() string {
	return r.engine.RunPath()
}

// TradingProvider returns the broker the strategy trades through, or nil.
func (r *Runner) TradingProvider() tradingprovider.TradingSystemProvider {
	return r.tradingProvider
}

func (r *Runner) Settings() config.Settings {
	return r.settings
}
