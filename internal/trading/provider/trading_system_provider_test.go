package tradingprovider

import (
	"testing"

	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/schema"
	"github.com/stretchr/testify/suite"
)

type TradingSystemProviderTestSuite struct {
	suite.Suite
}

func TestTradingSystemProviderSuite(t *testing.T) {
	suite.Run(t, new(TradingSystemProviderTestSuite))
}

func (suite *TradingSystemProviderTestSuite) TestGetSupportedProviders() {
	suite.Equal([]string{"binance-live", "binance-paper", "stub"}, GetSupportedProviders())
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_BinancePaper() {
	info, err := GetProviderInfo("binance-paper")
	suite.NoError(err)
	suite.Equal("Binance Testnet", info.DisplayName)
	suite.True(info.IsPaperTrading)
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_BinanceLive() {
	info, err := GetProviderInfo("binance-live")
	suite.NoError(err)
	suite.False(info.IsPaperTrading)
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_Unsupported() {
	_, err := GetProviderInfo("kraken")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderConfigSchema() {
	binanceSchema, err := GetProviderConfigSchema("binance-paper")
	suite.NoError(err)
	suite.Contains(binanceSchema, "apiKey")
	suite.Contains(binanceSchema, "secretKey")

	stubSchema, err := GetProviderConfigSchema("stub")
	suite.NoError(err)
	suite.Contains(stubSchema, "failOrders")

	_, err = GetProviderConfigSchema("unknown")
	suite.Error(err)
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_Binance() {
	config, err := ParseProviderConfig("binance-paper", `{"apiKey":"key","secretKey":"secret"}`)
	suite.Require().NoError(err)

	binanceConfig, ok := config.(*BinanceProviderConfig)
	suite.Require().True(ok)
	suite.Equal("key", binanceConfig.ApiKey)
	suite.Equal("secret", binanceConfig.SecretKey)
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_BinanceMissingSecret() {
	_, err := ParseProviderConfig("binance-live", `{"apiKey":"key"}`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = ParseProviderConfig("binance-live", `not json`)
	suite.Error(err)
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_Stub() {
	config, err := ParseProviderConfig("stub", "")
	suite.Require().NoError(err)
	suite.Equal(&StubProviderConfig{}, config)

	config, err = ParseProviderConfig("stub", `{"failOrders":true}`)
	suite.Require().NoError(err)
	suite.True(config.(*StubProviderConfig).FailOrders)
}

func (suite *TradingSystemProviderTestSuite) TestNewTradingSystemProvider() {
	provider, err := NewTradingSystemProvider(ProviderStub, &StubProviderConfig{}, nil)
	suite.NoError(err)
	suite.IsType(&StubTradingSystemProvider{}, provider)

	provider, err = NewTradingSystemProvider(ProviderBinancePaper, &BinanceProviderConfig{ApiKey: "k", SecretKey: "s"}, nil)
	suite.NoError(err)
	suite.IsType(&BinanceTradingSystemProvider{}, provider)
}

func (suite *TradingSystemProviderTestSuite) TestNewTradingSystemProvider_WrongConfigType() {
	provider, err := NewTradingSystemProvider(ProviderBinanceLive, &StubProviderConfig{}, nil)
	suite.Nil(provider)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = NewTradingSystemProvider("kraken", nil, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *TradingSystemProviderTestSuite) TestBinanceKeychainFields() {
	suite.Equal([]string{"apiKey", "secretKey"}, schema.GetKeychainFields(BinanceProviderConfig{}))
}
