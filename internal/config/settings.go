// Package config loads the settings of a trading run from settings.yaml, or
// from the legacy token-per-line conf file, and lets environment variables
// override credentials.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/candle-trader/internal/strategy"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine"
	tradingprovider "github.com/rxtech-lab/candle-trader/internal/trading/provider"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"github.com/rxtech-lab/candle-trader/pkg/schema"
	"gopkg.in/yaml.v3"
)

const (
	SettingsFileName   = "settings.yaml"
	LegacyConfFileName = "conf"
)

// Environment variables that override credentials from the files.
const (
	EnvBinanceAPIKey    = "BINANCE_API_KEY"
	EnvBinanceSecretKey = "BINANCE_SECRET_KEY"
	EnvPolygonAPIKey    = "POLYGON_API_KEY"
)

// Credentials is an API key pair. Brokers that use a single token leave SecretKey empty.
type Credentials struct {
	APIKey    string `yaml:"api_key" json:"api_key" jsonschema:"title=API Key" keychain:"true"`
	SecretKey string `yaml:"secret_key,omitempty" json:"secret_key,omitempty" jsonschema:"title=Secret Key" keychain:"true"`
}

// IsZero reports whether no key is set.
func (c Credentials) IsZero() bool {
	return c.APIKey == "" && c.SecretKey == ""
}

// ReplaySettings configures the replay market data provider.
type ReplaySettings struct {
	Path  string `yaml:"path,omitempty" json:"path,omitempty" jsonschema:"title=Path,description=Parquet file of recorded candles"`
	Pace  string `yaml:"pace,omitempty" json:"pace,omitempty" jsonschema:"title=Pace,description=Pause between replayed candles (e.g. 500ms)"`
	Start string `yaml:"start,omitempty" json:"start,omitempty" jsonschema:"title=Start,format=date-time"`
	End   string `yaml:"end,omitempty" json:"end,omitempty" jsonschema:"title=End,format=date-time"`
}

// Settings is everything needed to start a live run.
type Settings struct {
	Sandbox    Credentials `yaml:"sandbox" json:"sandbox" jsonschema:"title=Sandbox Credentials,description=Used by binance-paper"`
	Production Credentials `yaml:"production" json:"production" jsonschema:"title=Production Credentials,description=Used by binance-live"`

	PolygonAPIKey string `yaml:"polygon_api_key,omitempty" json:"polygon_api_key,omitempty" jsonschema:"title=Polygon API Key" keychain:"true"`
	// BinanceBaseURL replaces the Binance REST endpoint for both binance providers.
	BinanceBaseURL string `yaml:"binance_base_url,omitempty" json:"binance_base_url,omitempty" jsonschema:"title=Binance Base URL,description=Override the Binance REST endpoint"`

	MarketDataProvider provider.ProviderType        `yaml:"market_data_provider" json:"market_data_provider" validate:"required,oneof=binance polygon replay" jsonschema:"title=Market Data Provider,enum=binance,enum=polygon,enum=replay,default=binance"`
	TradingProvider    tradingprovider.ProviderType `yaml:"trading_provider" json:"trading_provider" validate:"required,oneof=binance-paper binance-live stub" jsonschema:"title=Trading Provider,enum=binance-paper,enum=binance-live,enum=stub,default=binance-paper"`

	Symbol    string                   `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,default=BTCUSDT"`
	Interval  string                   `yaml:"interval" json:"interval" validate:"required" jsonschema:"title=Interval,default=1m"`
	Strategy  strategy.Kind            `yaml:"strategy" json:"strategy" validate:"required,oneof=echo sma" jsonschema:"title=Strategy,enum=echo,enum=sma,default=sma"`
	Crossover strategy.CrossoverConfig `yaml:"crossover" json:"crossover" jsonschema:"title=Crossover"`

	Replay ReplaySettings `yaml:"replay,omitempty" json:"replay,omitempty" jsonschema:"title=Replay"`

	DataOutputPath string `yaml:"data_output_path,omitempty" json:"data_output_path,omitempty" jsonschema:"title=Data Output Path,default=data"`
	LogLevel       string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn error" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// Default returns settings for a paper-trading 20/50 crossover on Binance BTCUSDT minute candles.
func Default() Settings {
	return Settings{
		Sandbox:            Credentials{},
		Production:         Credentials{},
		PolygonAPIKey:      "",
		BinanceBaseURL:     "",
		MarketDataProvider: provider.ProviderBinance,
		TradingProvider:    tradingprovider.ProviderBinancePaper,
		Symbol:             "BTCUSDT",
		Interval:           "1m",
		Strategy:           strategy.KindSMA,
		Crossover:          strategy.DefaultCrossoverConfig(),
		Replay:             ReplaySettings{},
		DataOutputPath:     "data",
		LogLevel:           "info",
	}
}

// Load reads {dir}/settings.yaml, falling back to {dir}/conf, then applies
// environment overrides and validates the result.
func Load(dir string) (*Settings, error) {
	return load(dir, os.Getenv)
}

// Read is Load without validation, for callers that override fields before
// validating, such as command line flags.
func Read(dir string) (*Settings, error) {
	return read(dir, os.Getenv)
}

func load(dir string, getenv func(string) string) (*Settings, error) {
	settings, err := read(dir, getenv)
	if err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

func read(dir string, getenv func(string) string) (*Settings, error) {
	settingsPath := filepath.Join(dir, SettingsFileName)
	confPath := filepath.Join(dir, LegacyConfFileName)

	var (
		settings *Settings
		err      error
	)

	switch {
	case fileExists(settingsPath):
		settings, err = LoadFile(settingsPath)
	case fileExists(confPath):
		settings, err = loadLegacy(confPath)
	default:
		return nil, errors.Newf(errors.ErrCodeSettingsNotFound, "neither %s nor %s found in %s", SettingsFileName, LegacyConfFileName, dir)
	}

	if err != nil {
		return nil, err
	}

	settings.ApplyEnv(getenv)

	return settings, nil
}

// LoadFile parses a settings.yaml file. Fields it omits keep their defaults.
// The result is not validated.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSettingsNotFound, err, "failed to read settings file %s", path)
	}

	settings := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&settings); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse settings file %s", path)
	}

	return &settings, nil
}

func loadLegacy(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSettingsNotFound, err, "failed to open %s", path)
	}
	defer f.Close()

	tokens, err := ParseLegacyConf(f)
	if err != nil {
		return nil, err
	}

	settings := Default()
	settings.Sandbox = tokens.Sandbox
	settings.Production = tokens.Production

	return &settings, nil
}

// ApplyEnv overrides credentials with the non-empty environment variables.
// Binance keys go to the credentials of the selected trading provider.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	target := &s.Sandbox
	if s.TradingProvider == tradingprovider.ProviderBinanceLive {
		target = &s.Production
	}

	if v := getenv(EnvBinanceAPIKey); v != "" {
		target.APIKey = v
	}

	if v := getenv(EnvBinanceSecretKey); v != "" {
		target.SecretKey = v
	}

	if v := getenv(EnvPolygonAPIKey); v != "" {
		s.PolygonAPIKey = v
	}
}

// Validate checks field values and that the selected providers have what they need.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid settings", err)
	}

	if s.Strategy == strategy.KindSMA {
		if err := s.Crossover.Validate(); err != nil {
			return err
		}
	}

	if _, _, err := s.MarketDataProviderConfig(); err != nil {
		return err
	}

	if info, err := strategy.GetInfo(s.Strategy); err == nil && info.PlacesOrders {
		if _, _, err := s.TradingProviderConfig(); err != nil {
			return err
		}
	}

	return nil
}

// Save writes the settings as YAML, creating the parent directory when needed.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode settings", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create settings directory", err)
	}

	// Credentials are stored in the file, keep it private.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to write settings file %s", path)
	}

	return nil
}

// EngineConfig returns the live engine configuration for these settings.
func (s *Settings) EngineConfig() engine.LiveTradingEngineConfig {
	return engine.LiveTradingEngineConfig{
		Symbol:         s.Symbol,
		Interval:       s.Interval,
		Strategy:       s.Strategy,
		Crossover:      s.Crossover,
		DataOutputPath: s.DataOutputPath,
		ProviderName:   string(s.MarketDataProvider),
	}
}

// MarketDataProviderConfig returns the provider type and the config value
// provider.NewMarketDataProvider expects for it.
func (s *Settings) MarketDataProviderConfig() (provider.ProviderType, any, error) {
	switch s.MarketDataProvider {
	case provider.ProviderBinance:
		return provider.ProviderBinance, nil, nil
	case provider.ProviderPolygon:
		if s.PolygonAPIKey == "" {
			return "", nil, errors.Newf(errors.ErrCodeCredentialsMissing, "polygon provider requires polygon_api_key or %s", EnvPolygonAPIKey)
		}

		return provider.ProviderPolygon, s.PolygonAPIKey, nil
	case provider.ProviderReplay:
		replay := provider.ReplayStreamConfig{
			BaseStreamConfig: provider.BaseStreamConfig{Symbols: []string{s.Symbol}, Interval: s.Interval},
			Path:             s.Replay.Path,
			Pace:             s.Replay.Pace,
			Start:            s.Replay.Start,
			End:              s.Replay.End,
		}

		if replay.Path == "" {
			return "", nil, errors.New(errors.ErrCodeMissingParameter, "replay provider requires replay.path")
		}

		config, err := replay.ToReplayConfig()
		if err != nil {
			return "", nil, err
		}

		return provider.ProviderReplay, config, nil
	default:
		return "", nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", s.MarketDataProvider)
	}
}

// TradingProviderConfig returns the provider type and the config value
// tradingprovider.NewTradingSystemProvider expects for it.
func (s *Settings) TradingProviderConfig() (tradingprovider.ProviderType, any, error) {
	switch s.TradingProvider {
	case tradingprovider.ProviderBinancePaper:
		return binanceConfig(s.TradingProvider, s.Sandbox, s.BinanceBaseURL)
	case tradingprovider.ProviderBinanceLive:
		return binanceConfig(s.TradingProvider, s.Production, s.BinanceBaseURL)
	case tradingprovider.ProviderStub:
		return tradingprovider.ProviderStub, &tradingprovider.StubProviderConfig{FailOrders: false}, nil
	default:
		return "", nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", s.TradingProvider)
	}
}

func binanceConfig(providerType tradingprovider.ProviderType, creds Credentials, baseURL string) (tradingprovider.ProviderType, any, error) {
	if creds.APIKey == "" || creds.SecretKey == "" {
		return "", nil, errors.Newf(errors.ErrCodeCredentialsMissing,
			"%s requires an API key and secret (set them in settings or via %s and %s)",
			providerType, EnvBinanceAPIKey, EnvBinanceSecretKey)
	}

	return providerType, &tradingprovider.BinanceProviderConfig{
		ApiKey:    creds.APIKey,
		SecretKey: creds.SecretKey,
		BaseURL:   baseURL,
	}, nil
}

// Schema returns the JSON schema of the settings file.
func Schema() (string, error) {
	return schema.ToIndentedJSONSchema(Settings{}) //nolint:exhaustruct // Empty settings for schema generation
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
