package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"go.uber.org/zap"
)

// StreamingDuckDBWriter persists closed candles from a live stream. Every write is
// upserted on (symbol, time) and the Parquet file is rewritten, so the file is
// complete whenever the process stops. Existing rows in the file are kept.
type StreamingDuckDBWriter struct {
	db         *sql.DB
	outputPath string
	log        *logger.Logger
	mu         sync.Mutex
}

// NewStreamingDuckDBWriter creates a writer for {dataDir}/stream_data_{provider}_{interval}.parquet.
func NewStreamingDuckDBWriter(dataDir, providerName, interval string, log *logger.Logger) *StreamingDuckDBWriter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	filename := fmt.Sprintf("stream_data_%s_%s.parquet", providerName, interval)

	return &StreamingDuckDBWriter{
		outputPath: filepath.Join(dataDir, filename),
		log:        log,
	}
}

func (w *StreamingDuckDBWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create data directory", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	w.db = db

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			id TEXT,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			PRIMARY KEY (symbol, time)
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	if _, statErr := os.Stat(w.outputPath); statErr == nil {
		_, err = w.db.Exec(fmt.Sprintf(`
			INSERT INTO market_data
			SELECT id, time, symbol, open, high, low, close, volume FROM read_parquet('%s')
			ON CONFLICT (symbol, time) DO NOTHING
		`, w.outputPath))
		if err != nil {
			// An unreadable file is replaced on the next export.
			w.log.Warn("Failed to load existing candles", zap.String("path", w.outputPath), zap.Error(err))
		}
	}

	return nil
}

// Write upserts the candle and rewrites the Parquet file.
func (w *StreamingDuckDBWriter) Write(data types.MarketData) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	id := data.Id
	if id == "" {
		id = uuid.New().String()
	}

	_, err := squirrel.Insert("market_data").
		Columns(marketDataColumns...).
		Values(id, data.Time, data.Symbol, data.Open, data.High, data.Low, data.Close, data.Volume).
		Suffix(`ON CONFLICT (symbol, time) DO UPDATE SET
			id = excluded.id,
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`).
		RunWith(w.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert data", err)
	}

	return w.exportToParquet()
}

// Flush forces an export to Parquet.
func (w *StreamingDuckDBWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	return w.exportToParquet()
}

func (w *StreamingDuckDBWriter) Finalize() (string, error) {
	if err := w.Flush(); err != nil {
		return "", err
	}

	return w.outputPath, nil
}

func (w *StreamingDuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

func (w *StreamingDuckDBWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close database", err)
		}

		w.db = nil
	}

	return nil
}

func (w *StreamingDuckDBWriter) exportToParquet() error {
	_, err := w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM market_data ORDER BY time ASC)
		TO '%s' (FORMAT PARQUET)
	`, w.outputPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export to parquet", err)
	}

	return nil
}

var _ MarketDataWriter = (*StreamingDuckDBWriter)(nil)
