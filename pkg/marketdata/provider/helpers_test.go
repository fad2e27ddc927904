package provider

import (
	"sync"
	"time"

	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/writer"
)

// memoryWriter keeps written candles in memory.
type memoryWriter struct {
	mu        sync.Mutex
	data      []types.MarketData
	finalized bool
	writeErr  error
}

func (w *memoryWriter) Initialize() error { return nil }

func (w *memoryWriter) Write(data types.MarketData) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writeErr != nil {
		return w.writeErr
	}

	w.data = append(w.data, data)

	return nil
}

func (w *memoryWriter) Finalize() (string, error) {
	w.finalized = true

	return "memory", nil
}

func (w *memoryWriter) Close() error { return nil }

func (w *memoryWriter) GetOutputPath() string { return "memory" }

func (w *memoryWriter) written() []types.MarketData {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]types.MarketData(nil), w.data...)
}

var _ writer.MarketDataWriter = (*memoryWriter)(nil)

func collect(seq func(func(types.MarketData, error) bool)) ([]types.MarketData, error) {
	var (
		received []types.MarketData
		firstErr error
	)

	for data, err := range seq {
		if err != nil {
			firstErr = err

			break
		}

		received = append(received, data)
	}

	return received, firstErr
}

func minuteCandles(symbol string, closes ...float64) []types.MarketData {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.MarketData, len(closes))

	for i, c := range closes {
		ts := start.Add(time.Duration(i) * time.Minute)
		candles[i] = types.MarketData{
			Id:     types.CandleID(symbol, ts),
			Symbol: symbol,
			Time:   ts,
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}

	return candles
}
