package types

import (
	"fmt"
	"time"
)

// MarketData is a single OHLCV candle for one symbol.
type MarketData struct {
	Id     string    `csv:"id"`
	Symbol string    `csv:"symbol"`
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// PriceObservation is the part of a candle the crossover strategy consumes.
type PriceObservation struct {
	Time  time.Time
	Close float64
}

// Observation returns the candle's close price together with its open time.
func (m MarketData) Observation() PriceObservation {
	return PriceObservation{
		Time:  m.Time,
		Close: m.Close,
	}
}

// CandleID builds the identifier used for a candle of symbol opening at t.
func CandleID(symbol string, t time.Time) string {
	return fmt.Sprintf("%s-%d", symbol, t.UnixMilli())
}
