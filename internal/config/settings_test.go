package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/candle-trader/internal/strategy"
	tradingprovider "github.com/rxtech-lab/candle-trader/internal/trading/provider"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type SettingsTestSuite struct {
	suite.Suite
	dir string
	env map[string]string
}

func TestSettingsTestSuite(t *testing.T) {
	suite.Run(t, new(SettingsTestSuite))
}

func (s *SettingsTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.env = map[string]string{}
}

func (s *SettingsTestSuite) getenv(key string) string {
	return s.env[key]
}

func (s *SettingsTestSuite) write(name, content string) {
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, name), []byte(content), 0600))
}

func (s *SettingsTestSuite) TestLoad_SettingsFile() {
	s.write(SettingsFileName, `
sandbox:
  api_key: sk
  secret_key: ss
symbol: ETHUSDT
interval: 5m
crossover:
  fast_window: 5
  slow_window: 10
  order_quantity: 2
log_level: debug
`)

	settings, err := load(s.dir, s.getenv)
	s.Require().NoError(err)

	s.Equal("ETHUSDT", settings.Symbol)
	s.Equal("5m", settings.Interval)
	s.Equal(strategy.CrossoverConfig{FastWindow: 5, SlowWindow: 10, OrderQuantity: 2}, settings.Crossover)
	s.Equal(Credentials{APIKey: "sk", SecretKey: "ss"}, settings.Sandbox)
	s.Equal("debug", settings.LogLevel)

	// Omitted fields keep their defaults.
	s.Equal(provider.ProviderBinance, settings.MarketDataProvider)
	s.Equal(tradingprovider.ProviderBinancePaper, settings.TradingProvider)
	s.Equal(strategy.KindSMA, settings.Strategy)
}

func (s *SettingsTestSuite) TestLoad_SettingsFileWinsOverConf() {
	s.write(SettingsFileName, "sandbox:\n  api_key: from-yaml\n  secret_key: s\n")
	s.write(LegacyConfFileName, "from-conf:x sandbox\n")

	settings, err := load(s.dir, s.getenv)
	s.Require().NoError(err)
	s.Equal("from-yaml", settings.Sandbox.APIKey)
}

func (s *SettingsTestSuite) TestLoad_LegacyConf() {
	s.write(LegacyConfFileName, "key:secret песочница\nlive:secret прод\n")

	settings, err := load(s.dir, s.getenv)
	s.Require().NoError(err)

	s.Equal(Credentials{APIKey: "key", SecretKey: "secret"}, settings.Sandbox)
	s.Equal(Credentials{APIKey: "live", SecretKey: "secret"}, settings.Production)
	s.Equal(Default().Symbol, settings.Symbol)
}

func (s *SettingsTestSuite) TestLoad_NothingFound() {
	_, err := load(s.dir, s.getenv)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeSettingsNotFound))
}

func (s *SettingsTestSuite) TestLoad_UnknownField() {
	s.write(SettingsFileName, "simbol: BTCUSDT\n")

	_, err := load(s.dir, s.getenv)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *SettingsTestSuite) TestLoad_EnvOverridesSandbox() {
	s.write(LegacyConfFileName, "file-key:file-secret sandbox\n")
	s.env[EnvBinanceAPIKey] = "env-key"
	s.env[EnvPolygonAPIKey] = "poly"

	settings, err := load(s.dir, s.getenv)
	s.Require().NoError(err)

	s.Equal(Credentials{APIKey: "env-key", SecretKey: "file-secret"}, settings.Sandbox)
	s.Equal("poly", settings.PolygonAPIKey)
}

func (s *SettingsTestSuite) TestApplyEnv_LiveProviderTakesProductionKeys() {
	settings := Default()
	settings.TradingProvider = tradingprovider.ProviderBinanceLive
	s.env[EnvBinanceAPIKey] = "k"
	s.env[EnvBinanceSecretKey] = "v"

	settings.ApplyEnv(s.getenv)

	s.Equal(Credentials{APIKey: "k", SecretKey: "v"}, settings.Production)
	s.True(settings.Sandbox.IsZero())
}

func (s *SettingsTestSuite) TestValidate() {
	tests := []struct {
		name   string
		mutate func(settings *Settings)
		code   errors.ErrorCode
	}{
		{"missing symbol", func(st *Settings) { st.Symbol = "" }, errors.ErrCodeInvalidConfiguration},
		{"unknown strategy", func(st *Settings) { st.Strategy = "grid" }, errors.ErrCodeInvalidConfiguration},
		{"bad log level", func(st *Settings) { st.LogLevel = "loud" }, errors.ErrCodeInvalidConfiguration},
		{"bad windows", func(st *Settings) { st.Crossover.SlowWindow = st.Crossover.FastWindow }, errors.ErrCodeInvalidConfiguration},
		{"paper without secret", func(st *Settings) { st.Sandbox.SecretKey = "" }, errors.ErrCodeCredentialsMissing},
		{"live without keys", func(st *Settings) { st.TradingProvider = tradingprovider.ProviderBinanceLive }, errors.ErrCodeCredentialsMissing},
		{"polygon without key", func(st *Settings) { st.MarketDataProvider = provider.ProviderPolygon }, errors.ErrCodeCredentialsMissing},
		{"replay without path", func(st *Settings) { st.MarketDataProvider = provider.ProviderReplay }, errors.ErrCodeMissingParameter},
		{"replay bad pace", func(st *Settings) {
			st.MarketDataProvider = provider.ProviderReplay
			st.Replay = ReplaySettings{Path: "candles.parquet", Pace: "soon"}
		}, errors.ErrCodeInvalidConfiguration},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			settings := Default()
			settings.Sandbox = Credentials{APIKey: "k", SecretKey: "v"}
			tc.mutate(&settings)

			err := settings.Validate()
			s.Require().Error(err)
			s.True(errors.HasCode(err, tc.code), err.Error())
		})
	}
}

func (s *SettingsTestSuite) TestValidate_EchoNeedsNoCredentials() {
	settings := Default()
	settings.Strategy = strategy.KindEcho

	s.NoError(settings.Validate())
}

func (s *SettingsTestSuite) TestProviderConfigs() {
	settings := Default()
	settings.Sandbox = Credentials{APIKey: "k", SecretKey: "v"}

	tradingType, tradingConfig, err := settings.TradingProviderConfig()
	s.Require().NoError(err)
	s.Equal(tradingprovider.ProviderBinancePaper, tradingType)
	s.Equal(&tradingprovider.BinanceProviderConfig{ApiKey: "k", SecretKey: "v"}, tradingConfig)

	settings.TradingProvider = tradingprovider.ProviderStub
	tradingType, tradingConfig, err = settings.TradingProviderConfig()
	s.Require().NoError(err)
	s.Equal(tradingprovider.ProviderStub, tradingType)
	s.IsType(&tradingprovider.StubProviderConfig{}, tradingConfig)

	settings.MarketDataProvider = provider.ProviderReplay
	settings.Replay = ReplaySettings{Path: "candles.parquet", Pace: "250ms"}
	marketType, marketConfig, err := settings.MarketDataProviderConfig()
	s.Require().NoError(err)
	s.Equal(provider.ProviderReplay, marketType)

	replay, ok := marketConfig.(provider.ReplayConfig)
	s.Require().True(ok)
	s.Equal("candles.parquet", replay.Path)
	s.Equal("250ms", replay.Pace.String())
}

func (s *SettingsTestSuite) TestBinanceBaseURLReachesBothBrokers() {
	dir := s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(
		"binance_base_url: http://127.0.0.1:9000\n"+
			"sandbox:\n  api_key: k\n  secret_key: v\n"+
			"production:\n  api_key: pk\n  secret_key: pv\n"+
			"market_data_provider: binance\ntrading_provider: binance-paper\n"+
			"symbol: BTCUSDT\ninterval: 1m\nstrategy: echo\n"), 0600))

	settings, err := load(dir, func(string) string { return "" })
	s.Require().NoError(err)
	s.Equal("http://127.0.0.1:9000", settings.BinanceBaseURL)

	_, paper, err := settings.TradingProviderConfig()
	s.Require().NoError(err)
	s.Equal(&tradingprovider.BinanceProviderConfig{ApiKey: "k", SecretKey: "v", BaseURL: "http://127.0.0.1:9000"}, paper)

	settings.TradingProvider = tradingprovider.ProviderBinanceLive
	_, live, err := settings.TradingProviderConfig()
	s.Require().NoError(err)
	s.Equal(&tradingprovider.BinanceProviderConfig{ApiKey: "pk", SecretKey: "pv", BaseURL: "http://127.0.0.1:9000"}, live)
}

func (s *SettingsTestSuite) TestEngineConfig() {
	settings := Default()
	settings.DataOutputPath = "/tmp/runs"

	config := settings.EngineConfig()
	s.Equal("BTCUSDT", config.Symbol)
	s.Equal("1m", config.Interval)
	s.Equal(strategy.KindSMA, config.Strategy)
	s.Equal(strategy.DefaultCrossoverConfig(), config.Crossover)
	s.Equal("/tmp/runs", config.DataOutputPath)
	s.Equal("binance", config.ProviderName)
}

func (s *SettingsTestSuite) TestSaveRoundTrip() {
	settings := Default()
	settings.Sandbox = Credentials{APIKey: "k", SecretKey: "v"}
	settings.Symbol = "SOLUSDT"

	path := filepath.Join(s.dir, "nested", SettingsFileName)
	s.Require().NoError(settings.Save(path))

	info, err := os.Stat(path)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFile(path)
	s.Require().NoError(err)
	s.Equal(settings, *loaded)
}

func (s *SettingsTestSuite) TestSchema() {
	schema, err := Schema()
	s.Require().NoError(err)
	s.Contains(schema, "market_data_provider")
	s.Contains(schema, "binance-paper")
}

func (s *SettingsTestSuite) TestRead_SkipsValidation() {
	s.write(SettingsFileName, "trading_provider: binance-live\n")

	_, err := load(s.dir, s.getenv)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeCredentialsMissing))

	settings, err := read(s.dir, s.getenv)
	s.Require().NoError(err)
	s.Equal(tradingprovider.ProviderBinanceLive, settings.TradingProvider)

	settings.TradingProvider = tradingprovider.ProviderStub
	s.NoError(settings.Validate())
}
