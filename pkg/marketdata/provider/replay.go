package provider

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// ReplayConfig points the replay provider at a Parquet file of candles.
type ReplayConfig struct {
	// Path of the Parquet file, usually produced by a download or a recorded stream.
	Path string
	// Pace is the pause between two yielded candles. Zero replays as fast as the consumer reads.
	Pace time.Duration
	// Start and End bound the replayed candles by open time, inclusive.
	Start optional.Option[time.Time]
	End   optional.Option[time.Time]
}

// ReplayClient streams candles from a Parquet file in time order.
type ReplayClient struct {
	config ReplayConfig
	writer writer.MarketDataWriter
	log    *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewReplayClient(config ReplayConfig, log *logger.Logger) (*ReplayClient, error) {
	if config.Path == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "replay file path is required")
	}

	if _, err := os.Stat(config.Path); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "replay file %s not found", config.Path)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ReplayClient{
		config: config,
		writer: nil,
		log:    log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (c *ReplayClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download copies the candles of ticker between startDate and endDate from the replay file
// into the configured writer. multiplier and timespan are ignored; candles keep their stored interval.
func (c *ReplayClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, _ int, _ models.Timespan, onProgress OnDownloadProgress) (string, error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured")
	}

	count := 0

	for data, err := range c.read(ctx, []string{ticker}, optional.Some(startDate), optional.Some(endDate)) {
		if err != nil {
			return "", err
		}

		if err := c.writer.Write(data); err != nil {
			return "", err
		}

		count++

		if onProgress != nil {
			onProgress(float64(data.Time.Sub(startDate)), float64(endDate.Sub(startDate)), fmt.Sprintf("Copying %s candles", ticker))
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", err
	}

	c.log.Info("Copied replay candles", zap.String("symbol", ticker), zap.Int("count", count), zap.String("path", outputPath))

	return outputPath, nil
}

// Stream replays the candles of symbols in time order. An empty symbol list replays every symbol.
// interval is not used; the file already holds candles of one interval.
func (c *ReplayClient) Stream(ctx context.Context, symbols []string, _ string) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		var ticker *time.Ticker
		if c.config.Pace > 0 {
			ticker = time.NewTicker(c.config.Pace)
			defer ticker.Stop()
		}

		first := true

		for data, err := range c.read(ctx, symbols, c.config.Start, c.config.End) {
			if err != nil {
				yield(types.MarketData{}, err)

				return
			}

			if ticker != nil && !first {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}

			first = false

			if ctx.Err() != nil {
				return
			}

			if !yield(data, nil) {
				return
			}
		}
	}
}

func (c *ReplayClient) buildQuery(symbols []string, start, end optional.Option[time.Time]) (string, []any, error) {
	query := c.sq.Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("market_data")

	if len(symbols) > 0 {
		upper := make([]string, len(symbols))
		for i, symbol := range symbols {
			upper[i] = strings.ToUpper(symbol)
		}

		query = query.Where(squirrel.Eq{"upper(symbol)": upper})
	}

	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return query.OrderBy("time ASC", "symbol ASC").ToSql()
}

func (c *ReplayClient) read(ctx context.Context, symbols []string, start, end optional.Option[time.Time]) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		db, err := sql.Open("duckdb", "")
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open DuckDB connection", err))

			return
		}
		defer db.Close()

		// squirrel does not build CREATE VIEW
		_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM read_parquet('%s')`, c.config.Path))
		if err != nil {
			yield(types.MarketData{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", c.config.Path))

			return
		}

		query, args, err := c.buildQuery(symbols, start, end)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err))

			return
		}

		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				timestamp                           time.Time
				symbol                              string
				open, high, low, closePrice, volume float64
			)

			if err := rows.Scan(&timestamp, &symbol, &open, &high, &low, &closePrice, &volume); err != nil {
				yield(types.MarketData{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to scan candle", err))

				return
			}

			data := types.MarketData{
				Id:     types.CandleID(symbol, timestamp),
				Symbol: symbol,
				Time:   timestamp,
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closePrice,
				Volume: volume,
			}

			if !yield(data, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil && ctx.Err() == nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate candles", err))
		}
	}
}
