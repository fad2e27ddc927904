package provider

import (
	"context"
	"iter"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
	ProviderReplay  ProviderType = "replay"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter sets the writer used by Download.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads the candles for the given ticker and date range and
	// returns the path of the written file.
	// example:
	// Download(ctx, "BTCUSDT", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Minute, onProgress)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
	// Stream yields closed candles until the context is cancelled or the consumer stops.
	// Errors are yielded with an empty MarketData; the consumer decides whether to continue.
	Stream(ctx context.Context, symbols []string, interval string) iter.Seq2[types.MarketData, error]
}

// StatusNotifier is implemented by providers that report their websocket connection state.
type StatusNotifier interface {
	SetOnStatusChange(callback types.OnConnectionStatusChange)
}

// NewMarketDataProvider creates a market data provider.
// Polygon takes its API key as a string, replay takes a ReplayConfig, binance takes no config.
func NewMarketDataProvider(providerType ProviderType, config any, log *logger.Logger) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient(log), nil
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon provider requires API key string config")
		}

		client, err := NewPolygonClient(apiKey, log)
		if err != nil {
			return nil, err
		}

		return client, nil
	case ProviderReplay:
		replayConfig, ok := config.(ReplayConfig)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "replay provider requires ReplayConfig")
		}

		client, err := NewReplayClient(replayConfig, log)
		if err != nil {
			return nil, err
		}

		return client, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
