package writer

import (
	"github.com/rxtech-lab/candle-trader/internal/types"
)

// MarketDataWriter persists candles to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single candle.
	Write(data types.MarketData) error
	// Finalize completes the writing process and returns the file written.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

const createMarketDataTable = `
	CREATE TABLE IF NOT EXISTS market_data (
		id TEXT,
		time TIMESTAMP,
		symbol TEXT,
		open DOUBLE,
		high DOUBLE,
		low DOUBLE,
		close DOUBLE,
		volume DOUBLE
	)
`

var marketDataColumns = []string{"id", "time", "symbol", "open", "high", "low", "close", "volume"}
