package provider

import (
	"encoding/json"
	"testing"
	"time"

	apperrors "github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type StreamConfigTestSuite struct {
	suite.Suite
}

func TestStreamConfigTestSuite(t *testing.T) {
	suite.Run(t, new(StreamConfigTestSuite))
}

func (suite *StreamConfigTestSuite) TestBaseStreamConfigValidate() {
	tests := []struct {
		name    string
		config  BaseStreamConfig
		wantErr bool
	}{
		{"valid", BaseStreamConfig{Symbols: []string{"BTCUSDT"}, Interval: "1m"}, false},
		{"missing symbols", BaseStreamConfig{Symbols: nil, Interval: "1m"}, true},
		{"missing interval", BaseStreamConfig{Symbols: []string{"BTCUSDT"}, Interval: ""}, true},
		{"invalid interval", BaseStreamConfig{Symbols: []string{"BTCUSDT"}, Interval: "2m"}, true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.config.Validate()
			if tc.wantErr {
				suite.Error(err)
				suite.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidConfiguration))
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *StreamConfigTestSuite) TestPolygonStreamConfigRequiresApiKey() {
	config := &PolygonStreamConfig{
		BaseStreamConfig: BaseStreamConfig{Symbols: []string{"SPY"}, Interval: "1m"},
		ApiKey:           "",
	}
	suite.Error(config.Validate())

	config.ApiKey = "test-api-key"
	suite.NoError(config.Validate())
}

func (suite *StreamConfigTestSuite) TestParseBinanceStreamConfig() {
	config, err := ParseBinanceStreamConfig(`{"symbols":["BTCUSDT","ETHUSDT"],"interval":"5m"}`)
	suite.Require().NoError(err)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, config.Symbols)
	suite.Equal("5m", config.Interval)

	_, err = ParseBinanceStreamConfig(`{invalid`)
	suite.Error(err)

	_, err = ParseBinanceStreamConfig(`{"symbols":[],"interval":"5m"}`)
	suite.Error(err)
}

func (suite *StreamConfigTestSuite) TestParsePolygonStreamConfig() {
	config, err := ParsePolygonStreamConfig(`{"symbols":["SPY"],"interval":"1s","apiKey":"key"}`)
	suite.Require().NoError(err)
	suite.Equal("key", config.ApiKey)

	_, err = ParsePolygonStreamConfig(`{"symbols":["SPY"],"interval":"1s"}`)
	suite.Error(err)
}

func (suite *StreamConfigTestSuite) TestParseReplayStreamConfig() {
	config, err := ParseReplayStreamConfig(`{"symbols":["BTCUSDT"],"interval":"1m","path":"data.parquet","pace":"250ms","start":"2024-01-01T00:00:00Z"}`)
	suite.Require().NoError(err)

	replay, err := config.ToReplayConfig()
	suite.Require().NoError(err)
	suite.Equal("data.parquet", replay.Path)
	suite.Equal(250*time.Millisecond, replay.Pace)
	suite.True(replay.Start.IsSome())
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), replay.Start.Unwrap())
	suite.True(replay.End.IsNone())
}

func (suite *StreamConfigTestSuite) TestParseReplayStreamConfigInvalid() {
	_, err := ParseReplayStreamConfig(`{"symbols":["BTCUSDT"],"interval":"1m"}`)
	suite.Error(err)

	_, err = ParseReplayStreamConfig(`{"symbols":["BTCUSDT"],"interval":"1m","path":"data.parquet","pace":"soon"}`)
	suite.Error(err)

	_, err = ParseReplayStreamConfig(`{"symbols":["BTCUSDT"],"interval":"1m","path":"data.parquet","end":"yesterday"}`)
	suite.Error(err)
}

func (suite *StreamConfigTestSuite) TestStreamConfigSchema() {
	for _, name := range []string{"binance", "polygon", "replay"} {
		schemaJSON, err := GetStreamConfigSchema(name)
		suite.Require().NoError(err, name)

		var parsed map[string]any
		suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &parsed))
		suite.Contains(parsed, "properties")
	}

	_, err := GetStreamConfigSchema("unknown")
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidProvider))
}

func (suite *StreamConfigTestSuite) TestStreamKeychainFields() {
	fields, err := GetStreamKeychainFields("polygon")
	suite.Require().NoError(err)
	suite.Equal([]string{"apiKey"}, fields)

	fields, err = GetStreamKeychainFields("binance")
	suite.Require().NoError(err)
	suite.Empty(fields)

	_, err = GetStreamKeychainFields("unknown")
	suite.Error(err)
}

func (suite *StreamConfigTestSuite) TestParseStreamConfig() {
	parsed, err := ParseStreamConfig("binance", `{"symbols":["BTCUSDT"],"interval":"1m"}`)
	suite.Require().NoError(err)
	suite.IsType(&BinanceStreamConfig{}, parsed)

	parsed, err = ParseStreamConfig("polygon", `{"symbols":["SPY"],"interval":"1m","apiKey":"k"}`)
	suite.Require().NoError(err)
	suite.IsType(&PolygonStreamConfig{}, parsed)

	_, err = ParseStreamConfig("unknown", `{}`)
	suite.Error(err)
}
