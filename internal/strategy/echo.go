package strategy

import (
	"context"

	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"go.uber.org/zap"
)

const EchoName = "EchoStrategy"

// Echo logs every candle it receives and never trades.
type Echo struct {
	instrumentID string
	observer     Observer
	log          *logger.Logger
	candleCount  int
}

func NewEcho(instrumentID string, observer Observer, log *logger.Logger) *Echo {
	if observer == nil {
		observer = NopObserver{}
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	log.Info("Echo strategy initialized", zap.String("instrument", instrumentID))

	return &Echo{
		instrumentID: instrumentID,
		observer:     observer,
		log:          log,
	}
}

func (e *Echo) Name() string {
	return EchoName
}

func (e *Echo) Start(_ context.Context) error {
	e.candleCount = 0
	e.log.Info("Echo strategy started", zap.String("instrument", e.instrumentID))
	e.observer.OnEvent(types.StrategyStarted{Strategy: e.Name()})

	return nil
}

func (e *Echo) OnCandle(_ context.Context, candle types.MarketData) error {
	e.candleCount++

	e.log.Info("Candle received",
		zap.Time("timestamp", candle.Time),
		zap.String("symbol", e.instrumentID),
		zap.Float64("close", candle.Close),
		zap.Float64("volume", candle.Volume),
		zap.Int("processed", e.candleCount),
	)

	e.observer.OnEvent(types.CandleReceived{
		Timestamp:   candle.Time,
		Symbol:      e.instrumentID,
		Price:       candle.Close,
		Volume:      candle.Volume,
		CandleCount: e.candleCount,
	})

	return nil
}

func (e *Echo) Stop(_ context.Context) error {
	e.log.Info("Echo strategy stopped", zap.Int("candles_processed", e.candleCount))
	e.observer.OnEvent(types.StrategyStopped{
		Strategy:         e.Name(),
		CandlesProcessed: e.candleCount,
	})

	return nil
}

// CandleCount returns the number of candles seen since Start.
func (e *Echo) CandleCount() int {
	return e.candleCount
}
