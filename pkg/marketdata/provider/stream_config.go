package provider

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

// BaseStreamConfig contains common fields for all streaming market data configurations.
type BaseStreamConfig struct {
	Symbols  []string `json:"symbols" yaml:"symbols" jsonschema:"title=Symbols,description=List of symbols to stream (e.g. BTCUSDT or SPY),required" validate:"required,min=1"`
	Interval string   `json:"interval" yaml:"interval" jsonschema:"title=Interval,description=Candlestick interval for streaming data,required,enum=1s,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d,enum=3d,enum=1w,enum=1M" validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
}

// PolygonStreamConfig contains configuration for Polygon.io streaming market data.
type PolygonStreamConfig struct {
	BaseStreamConfig

	ApiKey string `json:"apiKey" yaml:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" keychain:"true" validate:"required"`
}

// BinanceStreamConfig contains configuration for Binance streaming market data.
type BinanceStreamConfig struct {
	BaseStreamConfig
}

// ReplayStreamConfig replays a recorded Parquet file.
type ReplayStreamConfig struct {
	BaseStreamConfig

	Path string `json:"path" yaml:"path" jsonschema:"title=Path,description=Parquet file of recorded candles,required" validate:"required"`
	// Pace is a Go duration such as 500ms; empty means no pause between candles.
	Pace  string `json:"pace,omitempty" yaml:"pace,omitempty" jsonschema:"title=Pace,description=Pause between replayed candles (e.g. 500ms)"`
	Start string `json:"start,omitempty" yaml:"start,omitempty" jsonschema:"title=Start,description=First candle time (RFC3339),format=date-time"`
	End   string `json:"end,omitempty" yaml:"end,omitempty" jsonschema:"title=End,description=Last candle time (RFC3339),format=date-time"`
}

func validateStruct(config any) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// Validate validates the BaseStreamConfig fields.
func (c *BaseStreamConfig) Validate() error {
	return validateStruct(c)
}

// Validate validates the PolygonStreamConfig.
func (c *PolygonStreamConfig) Validate() error {
	return validateStruct(c)
}

// Validate validates the BinanceStreamConfig.
func (c *BinanceStreamConfig) Validate() error {
	return c.BaseStreamConfig.Validate()
}

// Validate validates the ReplayStreamConfig including its pace and time bounds.
func (c *ReplayStreamConfig) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}

	_, err := c.ToReplayConfig()

	return err
}

// ToReplayConfig converts the textual fields into a ReplayConfig.
func (c *ReplayStreamConfig) ToReplayConfig() (ReplayConfig, error) {
	config := ReplayConfig{
		Path:  c.Path,
		Pace:  0,
		Start: optional.None[time.Time](),
		End:   optional.None[time.Time](),
	}

	if c.Pace != "" {
		pace, err := time.ParseDuration(c.Pace)
		if err != nil {
			return ReplayConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid pace %q", c.Pace)
		}

		config.Pace = pace
	}

	if c.Start != "" {
		start, err := time.Parse(time.RFC3339, c.Start)
		if err != nil {
			return ReplayConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid start format, expected RFC3339", err)
		}

		config.Start = optional.Some(start)
	}

	if c.End != "" {
		end, err := time.Parse(time.RFC3339, c.End)
		if err != nil {
			return ReplayConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid end format, expected RFC3339", err)
		}

		config.End = optional.Some(end)
	}

	return config, nil
}

func parseStreamConfig[T interface{ Validate() error }](jsonConfig string, config T) (T, error) {
	if err := json.Unmarshal([]byte(jsonConfig), config); err != nil {
		var zero T

		return zero, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse JSON config", err)
	}

	if err := config.Validate(); err != nil {
		var zero T

		return zero, err
	}

	return config, nil
}

// ParsePolygonStreamConfig parses JSON into a PolygonStreamConfig.
func ParsePolygonStreamConfig(jsonConfig string) (*PolygonStreamConfig, error) {
	//nolint:exhaustruct // filled by json.Unmarshal
	return parseStreamConfig(jsonConfig, &PolygonStreamConfig{})
}

// ParseBinanceStreamConfig parses JSON into a BinanceStreamConfig.
func ParseBinanceStreamConfig(jsonConfig string) (*BinanceStreamConfig, error) {
	//nolint:exhaustruct // filled by json.Unmarshal
	return parseStreamConfig(jsonConfig, &BinanceStreamConfig{})
}

// ParseReplayStreamConfig parses JSON into a ReplayStreamConfig.
func ParseReplayStreamConfig(jsonConfig string) (*ReplayStreamConfig, error) {
	//nolint:exhaustruct // filled by json.Unmarshal
	return parseStreamConfig(jsonConfig, &ReplayStreamConfig{})
}
