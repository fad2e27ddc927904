package tradingprovider

import (
	"context"
	"slices"

	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/strategy"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/schema"
)

// TradingSystemProvider places orders with a broker on behalf of a strategy.
type TradingSystemProvider interface {
	strategy.OrderPlacer
	// GetInstrument returns the broker's description of a symbol.
	GetInstrument(ctx context.Context, symbol string) (types.Instrument, error)
	// CheckConnection verifies that the broker is reachable with the configured credentials.
	CheckConnection(ctx context.Context) error
}

type ProviderType string

const (
	ProviderBinancePaper ProviderType = "binance-paper"
	ProviderBinanceLive  ProviderType = "binance-live"
	ProviderStub         ProviderType = "stub"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderBinancePaper: {
		Name:           string(ProviderBinancePaper),
		DisplayName:    "Binance Testnet",
		Description:    "Binance testnet sandbox for paper trading without real funds",
		IsPaperTrading: true,
	},
	ProviderBinanceLive: {
		Name:           string(ProviderBinanceLive),
		DisplayName:    "Binance Live",
		Description:    "Binance live environment for real-funds trading",
		IsPaperTrading: false,
	},
	ProviderStub: {
		Name:           string(ProviderStub),
		DisplayName:    "Stub",
		Description:    "Accepts every order and only logs it",
		IsPaperTrading: true,
	},
}

// GetSupportedProviders returns the names of all trading providers in sorted order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	slices.Sort(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific trading provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema for a provider's configuration.
func GetProviderConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderBinancePaper, ProviderBinanceLive:
		return schema.ToJSONSchema(BinanceProviderConfig{})
	case ProviderStub:
		return schema.ToJSONSchema(StubProviderConfig{})
	default:
		return "", errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", providerName)
	}
}

// ParseProviderConfig parses a JSON configuration string for the given provider.
func ParseProviderConfig(providerName string, jsonConfig string) (any, error) {
	switch ProviderType(providerName) {
	case ProviderBinancePaper, ProviderBinanceLive:
		return parseBinanceConfig(jsonConfig)
	case ProviderStub:
		return parseStubConfig(jsonConfig)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", providerName)
	}
}

// NewTradingSystemProvider creates a new trading system provider based on the provider type.
func NewTradingSystemProvider(providerType ProviderType, config any, log *logger.Logger) (TradingSystemProvider, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	switch providerType {
	case ProviderBinancePaper, ProviderBinanceLive:
		cfg, ok := config.(*BinanceProviderConfig)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid config type for %s provider", providerType)
		}

		provider, err := NewBinanceTradingSystemProvider(*cfg, providerType == ProviderBinancePaper, log)
		if err != nil {
			return nil, err
		}

		return provider, nil

	case ProviderStub:
		cfg, ok := config.(*StubProviderConfig)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid config type for %s provider", providerType)
		}

		return NewStubTradingSystemProvider(*cfg, log), nil

	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", providerType)
	}
}
