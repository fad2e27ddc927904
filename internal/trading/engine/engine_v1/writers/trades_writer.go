package writers

import (
	"database/sql"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

const tradesSchema = `
	run_id TEXT,
	symbol TEXT,
	side TEXT,
	quantity INTEGER,
	price DOUBLE,
	timestamp TIMESTAMP,
	pnl DOUBLE,
	total_realized_pnl DOUBLE
`

// TradesWriter records the fills of a run to trades.parquet, one row per
// entry or exit. Entry rows carry no PnL.
type TradesWriter struct {
	table  *parquetTable
	runID  string
	symbol string
	mu     sync.Mutex
}

func NewTradesWriter(outputPath, runID, symbol string, log *logger.Logger) *TradesWriter {
	return &TradesWriter{
		table:  newParquetTable("trades", tradesSchema, "timestamp ASC", outputPath, log),
		runID:  runID,
		symbol: symbol,
		mu:     sync.Mutex{},
	}
}

func (w *TradesWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.open()
}

// WriteEntry records an opened position.
func (w *TradesWriter) WriteEntry(entry types.TradeEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.insert(w.row(string(entry.Direction), entry.Quantity, entry.Price, entry, sql.NullFloat64{}, sql.NullFloat64{}))
}

// WriteExit records a closed position together with its realized profit.
func (w *TradesWriter) WriteExit(exit types.TradeExit) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.insert(w.row(
		string(exit.Direction), exit.Quantity, exit.Price, exit,
		sql.NullFloat64{Float64: exit.Profit, Valid: true},
		sql.NullFloat64{Float64: exit.TotalRealizedProfit, Valid: true},
	))
}

func (w *TradesWriter) row(side string, quantity int, price float64, event types.StrategyEvent, pnl, total sql.NullFloat64) squirrel.InsertBuilder {
	return squirrel.Insert("trades").
		Columns("run_id", "symbol", "side", "quantity", "price", "timestamp", "pnl", "total_realized_pnl").
		Values(w.runID, w.symbol, side, quantity, price, EventTimestamp(event).Unwrap(), pnl, total)
}

func (w *TradesWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.export()
}

func (w *TradesWriter) GetOutputPath() string {
	return w.table.outputPath
}

func (w *TradesWriter) GetTradeCount() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.count()
}

// GetTotalPnL returns the sum of realized PnL over all exits.
func (w *TradesWriter) GetTotalPnL() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.table.db == nil {
		return 0, errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	var total sql.NullFloat64
	if err := w.table.db.QueryRow("SELECT SUM(pnl) FROM trades").Scan(&total); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum PnL", err)
	}

	return total.Float64, nil
}

func (w *TradesWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.close()
}
