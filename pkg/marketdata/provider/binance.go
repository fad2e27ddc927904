package provider

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"sync"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// binanceKlinesPageSize is the number of klines Binance returns by default per request.
const binanceKlinesPageSize = 500

// BinanceWsKline is the candle part of a kline websocket event.
type BinanceWsKline struct {
	StartTime int64
	Open      string
	High      string
	Low       string
	Close     string
	Volume    string
	IsFinal   bool
}

// BinanceWsKlineEvent is a kline websocket event for one symbol.
type BinanceWsKlineEvent struct {
	Symbol string
	Kline  BinanceWsKline
}

type WsKlineHandler func(event *BinanceWsKlineEvent)

type WsErrorHandler func(err error)

// BinanceWebSocketService opens kline streams. Closing stopC ends the stream.
type BinanceWebSocketService interface {
	WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (doneC chan struct{}, stopC chan struct{}, err error)
}

// BinanceKlinesService fetches historical klines.
type BinanceKlinesService interface {
	Klines(ctx context.Context, symbol string, interval string, startTime int64, endTime int64) ([]*binance.Kline, error)
}

type binanceWebSocketService struct{}

func (binanceWebSocketService) WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (chan struct{}, chan struct{}, error) {
	return binance.WsKlineServe(symbol, interval, func(event *binance.WsKlineEvent) {
		handler(&BinanceWsKlineEvent{
			Symbol: event.Symbol,
			Kline: BinanceWsKline{
				StartTime: event.Kline.StartTime,
				Open:      event.Kline.Open,
				High:      event.Kline.High,
				Low:       event.Kline.Low,
				Close:     event.Kline.Close,
				Volume:    event.Kline.Volume,
				IsFinal:   event.Kline.IsFinal,
			},
		})
	}, func(err error) {
		errHandler(err)
	})
}

type binanceKlinesService struct {
	client *binance.Client
}

func (s *binanceKlinesService) Klines(ctx context.Context, symbol string, interval string, startTime int64, endTime int64) ([]*binance.Kline, error) {
	return s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startTime).
		EndTime(endTime).
		Limit(binanceKlinesPageSize).
		Do(ctx)
}

type BinanceClient struct {
	klines BinanceKlinesService
	ws     BinanceWebSocketService
	writer writer.MarketDataWriter
	log    *logger.Logger

	statusMu       sync.Mutex
	onStatusChange types.OnConnectionStatusChange
}

// NewBinanceClient creates a client for Binance public market data. No credentials are needed.
func NewBinanceClient(log *logger.Logger) *BinanceClient {
	client := NewBinanceClientWithWebSocket(&binanceKlinesService{client: binance.NewClient("", "")}, binanceWebSocketService{})
	if log != nil {
		client.log = log
	}

	return client
}

// NewBinanceClientWithWebSocket creates a client with the given services. A nil klines
// service disables Download.
func NewBinanceClientWithWebSocket(klines BinanceKlinesService, ws BinanceWebSocketService) *BinanceClient {
	return &BinanceClient{
		klines: klines,
		ws:     ws,
		writer: nil,
		log:    logger.NewNopLogger(),
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// SetOnStatusChange registers a callback for websocket connection changes.
func (c *BinanceClient) SetOnStatusChange(callback types.OnConnectionStatusChange) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	c.onStatusChange = callback
}

func (c *BinanceClient) emitStatus(status types.ProviderConnectionStatus) {
	c.statusMu.Lock()
	callback := c.onStatusChange
	c.statusMu.Unlock()

	if callback != nil {
		callback(status)
	}
}

// Download pages through the klines endpoint and writes every candle with the configured writer.
// The writer is initialized by the caller.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (string, error) {
	interval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured")
	}

	if c.klines == nil {
		return "", errors.New(errors.ErrCodeMarketDataFetchFailed, "klines service is not configured")
	}

	startTimeMillis := startDate.UnixMilli()
	endTimeMillis := endDate.UnixMilli()
	currentStartTime := startTimeMillis
	written := 0

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		klines, err := c.klines.Klines(ctx, ticker, interval, currentStartTime, endTimeMillis)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines from Binance", ticker)
		}

		if err := writeKlines(c.writer, ticker, klines); err != nil {
			return "", err
		}

		written += len(klines)

		if onProgress != nil {
			onProgress(float64(currentStartTime-startTimeMillis), float64(endTimeMillis-startTimeMillis), fmt.Sprintf("Downloading %s klines from Binance", ticker))
		}

		if len(klines) < binanceKlinesPageSize {
			break
		}

		// Next page starts right after the close of the last kline.
		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", err
	}

	c.log.Info("Finished downloading klines",
		zap.String("symbol", ticker),
		zap.String("interval", interval),
		zap.Int("count", written),
		zap.String("path", outputPath),
	)

	return outputPath, nil
}

// Stream subscribes to the kline websocket of every symbol and yields finalized candles.
func (c *BinanceClient) Stream(ctx context.Context, symbols []string, interval string) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		if len(symbols) == 0 {
			yield(types.MarketData{}, errors.New(errors.ErrCodeInvalidParameter, "no symbols provided"))

			return
		}

		if !isValidBinanceInterval(interval) {
			yield(types.MarketData{}, errors.Newf(errors.ErrCodeInvalidInterval, "invalid interval: %s", interval))

			return
		}

		dataChan := make(chan klineResult, 100)
		errChan := make(chan error, 10)
		done := make(chan struct{})
		stopChannels := make([]chan struct{}, 0, len(symbols))

		defer func() {
			close(done)

			for _, stopC := range stopChannels {
				close(stopC)
			}
		}()

		handler := func(event *BinanceWsKlineEvent) {
			if !event.Kline.IsFinal {
				return
			}

			data, err := convertWsKlineToMarketData(event)
			if err != nil {
				err = errors.Wrapf(errors.ErrCodeStreamFailed, err, "malformed kline for %s", event.Symbol)
			}

			select {
			case dataChan <- klineResult{data: data, err: err}:
			case <-done:
			case <-ctx.Done():
			}
		}

		errHandler := func(err error) {
			select {
			case errChan <- err:
			case <-done:
			default:
			}
		}

		for _, symbol := range symbols {
			_, stopC, err := c.ws.WsKlineServe(symbol, interval, handler, errHandler)
			if err != nil {
				c.emitStatus(types.ProviderStatusDisconnected)
				yield(types.MarketData{}, errors.Wrapf(errors.ErrCodeStreamFailed, err, "failed to start websocket for %s", symbol))

				return
			}

			stopChannels = append(stopChannels, stopC)
		}

		c.emitStatus(types.ProviderStatusConnected)
		defer c.emitStatus(types.ProviderStatusDisconnected)

		c.log.Info("Binance kline stream started", zap.Strings("symbols", symbols), zap.String("interval", interval))

		for {
			select {
			case <-ctx.Done():
				return
			case result := <-dataChan:
				if !yield(result.data, result.err) {
					return
				}
			case err := <-errChan:
				if !yield(types.MarketData{}, errors.Wrap(errors.ErrCodeStreamFailed, "websocket error", err)) {
					return
				}
			}
		}
	}
}

func writeKlines(w writer.MarketDataWriter, ticker string, klines []*binance.Kline) error {
	for _, k := range klines {
		data, err := convertKlineToMarketData(ticker, k)
		if err != nil {
			return err
		}

		if err := w.Write(data); err != nil {
			return err
		}
	}

	return nil
}

func convertKlineToMarketData(ticker string, k *binance.Kline) (types.MarketData, error) {
	values, err := parsePrices(k.Open, k.High, k.Low, k.Close, k.Volume)
	if err != nil {
		return types.MarketData{}, err
	}

	openTime := time.UnixMilli(k.OpenTime)

	return types.MarketData{
		Id:     types.CandleID(ticker, openTime),
		Symbol: ticker,
		Time:   openTime,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

// klineResult carries a converted frame or the reason it could not be converted.
type klineResult struct {
	data types.MarketData
	err  error
}

func convertWsKlineToMarketData(event *BinanceWsKlineEvent) (types.MarketData, error) {
	values, err := parsePrices(event.Kline.Open, event.Kline.High, event.Kline.Low, event.Kline.Close, event.Kline.Volume)
	if err != nil {
		return types.MarketData{}, err
	}

	openTime := time.UnixMilli(event.Kline.StartTime)

	return types.MarketData{
		Id:     types.CandleID(event.Symbol, openTime),
		Symbol: event.Symbol,
		Time:   openTime,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

func parsePrices(raw ...string) ([]float64, error) {
	values := make([]float64, len(raw))

	for i, r := range raw {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid number %q", r)
		}

		values[i] = v
	}

	return values, nil
}

// isValidBinanceInterval reports whether interval is a Binance kline interval.
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func isValidBinanceInterval(interval string) bool {
	switch interval {
	case "1m", "3m", "5m", "15m", "30m",
		"1h", "2h", "4h", "6h", "8h", "12h",
		"1d", "3d", "1w", "1M":
		return true
	default:
		return false
	}
}

// convertTimespanToBinanceInterval converts a polygon timespan and multiplier to a Binance interval.
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	var interval string

	switch timespan {
	case models.Minute:
		interval = fmt.Sprintf("%dm", multiplier)
	case models.Hour:
		interval = fmt.Sprintf("%dh", multiplier)
	case models.Day:
		interval = fmt.Sprintf("%dd", multiplier)
	case models.Week:
		interval = fmt.Sprintf("%dw", multiplier)
	case models.Month:
		interval = fmt.Sprintf("%dM", multiplier)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan for Binance: %s", timespan)
	}

	if !isValidBinanceInterval(interval) {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported Binance interval: %s", interval)
	}

	return interval, nil
}
