package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/candle-trader/internal/types"
)

// CandleGenerator produces random-walk candles for tests.
type CandleGenerator struct {
	rng *rand.Rand
}

// NewCandleGenerator creates a generator. A fixed seed gives reproducible candles.
func NewCandleGenerator(seed int64) *CandleGenerator {
	return &CandleGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

type CandleConfig struct {
	Symbol       string
	StartTime    time.Time
	Interval     time.Duration
	Count        int
	InitialPrice float64
	// Volatility is the standard deviation of the per-candle return (0.002 = 0.2%)
	Volatility float64
	VolumeBase float64
}

// DefaultCandleConfig returns one hour of BTCUSDT minute candles.
func DefaultCandleConfig() CandleConfig {
	return CandleConfig{
		Symbol:       "BTCUSDT",
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     time.Minute,
		Count:        60,
		InitialPrice: 42000,
		Volatility:   0.002,
		VolumeBase:   10,
	}
}

// Generate returns config.Count candles in chronological order using a
// geometric random walk on the close price.
func (g *CandleGenerator) Generate(config CandleConfig) []types.MarketData {
	data := make([]types.MarketData, config.Count)
	price := config.InitialPrice
	current := config.StartTime

	for i := range data {
		open := price

		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Volatility*z)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := math.Min(open, closePrice) * (1 - g.rng.Float64()*config.Volatility*0.5)
		volume := config.VolumeBase * (0.5 + g.rng.Float64())

		data[i] = types.MarketData{
			Id:     types.CandleID(config.Symbol, current),
			Symbol: config.Symbol,
			Time:   current,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(volume, 4),
		}

		price = closePrice
		current = current.Add(config.Interval)
	}

	return data
}

// CandlesFromCloses builds one-minute candles whose open, high, low and close all
// equal the given prices, starting at 2024-01-01 00:00 UTC.
func CandlesFromCloses(symbol string, closes ...float64) []types.MarketData {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := make([]types.MarketData, len(closes))

	for i, c := range closes {
		t := start.Add(time.Duration(i) * time.Minute)
		data[i] = types.MarketData{
			Id:     types.CandleID(symbol, t),
			Symbol: symbol,
			Time:   t,
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}

	return data
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
