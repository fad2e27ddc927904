package marketdata

import (
	"slices"

	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	// SupportsDownload is false for providers that only replay local files.
	SupportsDownload bool `json:"supportsDownload"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderPolygon: {
		Name:             string(ProviderPolygon),
		DisplayName:      "Polygon.io",
		Description:      "US stock market data provider with real-time and historical OHLCV data",
		RequiresAuth:     true,
		SupportsDownload: true,
	},
	ProviderBinance: {
		Name:             string(ProviderBinance),
		DisplayName:      "Binance",
		Description:      "Cryptocurrency exchange with kline streams and history for crypto trading pairs",
		RequiresAuth:     false,
		SupportsDownload: true,
	},
	ProviderReplay: {
		Name:             string(ProviderReplay),
		DisplayName:      "Replay",
		Description:      "Replays a recorded Parquet file of candles in time order",
		RequiresAuth:     false,
		SupportsDownload: false,
	},
}

// GetSupportedProviders returns the names of all market data providers in sorted order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	slices.Sort(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}
