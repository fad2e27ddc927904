package provider

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	polygonws "github.com/polygon-io/client-go/websocket"
	wsmodels "github.com/polygon-io/client-go/websocket/models"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/writer"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// PolygonWebSocketService is the subset of the polygon websocket client used for streaming.
type PolygonWebSocketService interface {
	Connect() error
	Subscribe(topic polygonws.Topic, tickers ...string) error
	Unsubscribe(topic polygonws.Topic, tickers ...string) error
	Output() <-chan any
	Error() <-chan error
	Close()
}

type PolygonClient struct {
	apiKey string
	client *polygon.Client
	ws     PolygonWebSocketService
	writer writer.MarketDataWriter
	log    *logger.Logger

	statusMu       sync.Mutex
	onStatusChange types.OnConnectionStatusChange
}

func NewPolygonClient(apiKey string, log *logger.Logger) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeCredentialsMissing, "apiKey is required")
	}

	client := NewPolygonClientWithWebSocket(apiKey, nil)
	client.client = polygon.New(apiKey)

	if log != nil {
		client.log = log
	}

	return client, nil
}

// NewPolygonClientWithWebSocket creates a client that streams from ws. When ws is nil
// a websocket client is created on the first Stream call.
func NewPolygonClientWithWebSocket(apiKey string, ws PolygonWebSocketService) *PolygonClient {
	return &PolygonClient{
		apiKey: apiKey,
		client: nil,
		ws:     ws,
		writer: nil,
		log:    logger.NewNopLogger(),
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// SetOnStatusChange registers a callback for websocket connection changes.
func (c *PolygonClient) SetOnStatusChange(callback types.OnConnectionStatusChange) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	c.onStatusChange = callback
}

func (c *PolygonClient) emitStatus(status types.ProviderConnectionStatus) {
	c.statusMu.Lock()
	callback := c.onStatusChange
	c.statusMu.Unlock()

	if callback != nil {
		callback(status)
	}
}

// Download lists the aggregates for ticker and writes them with the configured writer.
// The writer is initialized by the caller.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (string, error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured for PolygonClient. Call ConfigWriter first")
	}

	if c.client == nil {
		return "", errors.New(errors.ErrCodeMarketDataFetchFailed, "polygon rest client is not configured")
	}

	totalDays := int(endDate.Sub(startDate).Hours()/24) + 1

	bar := progressbar.NewOptions(totalDays,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)),
		progressbar.OptionShowCount(),
	)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	aggs := c.client.ListAggs(ctx, params)
	processed := 0

	for aggs.Next() {
		agg := aggs.Item()
		ts := time.Time(agg.Timestamp)

		err := c.writer.Write(types.MarketData{
			Id:     types.CandleID(ticker, ts),
			Symbol: ticker,
			Time:   ts,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
		if err != nil {
			return "", err
		}

		processed++
		if processed%1000 == 0 {
			daysElapsed := int(ts.Sub(startDate).Hours() / 24)
			_ = bar.Set(daysElapsed)

			if onProgress != nil {
				onProgress(float64(daysElapsed), float64(totalDays), fmt.Sprintf("Downloading %s", ticker))
			}
		}
	}

	if err := aggs.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", err)
	}

	_ = bar.Finish()

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", err
	}

	c.log.Info("Finished downloading aggregates",
		zap.String("symbol", ticker),
		zap.Int("count", processed),
		zap.String("path", outputPath),
	)

	return outputPath, nil
}

// Stream subscribes to stock aggregates and yields one candle per aggregate event.
func (c *PolygonClient) Stream(ctx context.Context, symbols []string, interval string) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		if len(symbols) == 0 {
			yield(types.MarketData{}, errors.New(errors.ErrCodeInvalidParameter, "no symbols provided"))

			return
		}

		topic, err := convertIntervalToPolygonTopic(interval)
		if err != nil {
			yield(types.MarketData{}, err)

			return
		}

		ws := c.ws
		if ws == nil {
			//nolint:exhaustruct // optional fields keep their defaults
			client, err := polygonws.New(polygonws.Config{
				APIKey: c.apiKey,
				Feed:   polygonws.RealTime,
				Market: polygonws.Stocks,
			})
			if err != nil {
				yield(types.MarketData{}, errors.Wrap(errors.ErrCodeStreamFailed, "failed to create websocket client", err))

				return
			}

			ws = client
		}

		if err := ws.Connect(); err != nil {
			c.emitStatus(types.ProviderStatusDisconnected)
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeStreamFailed, "failed to connect", err))

			return
		}
		defer ws.Close()

		if err := ws.Subscribe(topic, symbols...); err != nil {
			c.emitStatus(types.ProviderStatusDisconnected)
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeStreamFailed, "failed to subscribe", err))

			return
		}

		c.emitStatus(types.ProviderStatusConnected)
		defer c.emitStatus(types.ProviderStatusDisconnected)

		c.log.Info("Polygon aggregate stream started", zap.Strings("symbols", symbols), zap.String("interval", interval))

		for {
			select {
			case <-ctx.Done():
				return
			case out, ok := <-ws.Output():
				if !ok {
					return
				}

				var agg *wsmodels.EquityAgg

				switch v := out.(type) {
				case wsmodels.EquityAgg:
					agg = &v
				case *wsmodels.EquityAgg:
					agg = v
				default:
					continue
				}

				if !yield(convertEquityAggToMarketData(agg), nil) {
					return
				}
			case err, ok := <-ws.Error():
				if !ok {
					return
				}

				if !yield(types.MarketData{}, errors.Wrap(errors.ErrCodeStreamFailed, "websocket error", err)) {
					return
				}
			}
		}
	}
}

func convertEquityAggToMarketData(agg *wsmodels.EquityAgg) types.MarketData {
	ts := time.UnixMilli(agg.StartTimestamp)

	return types.MarketData{
		Id:     types.CandleID(agg.Symbol, ts),
		Symbol: agg.Symbol,
		Time:   ts,
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}
}

// convertIntervalToPolygonTopic maps an interval to a polygon aggregate topic.
// Polygon only streams second and minute aggregates, so every other interval uses minutes.
func convertIntervalToPolygonTopic(interval string) (polygonws.Topic, error) {
	var none polygonws.Topic

	switch interval {
	case "":
		return none, errors.New(errors.ErrCodeInvalidInterval, "invalid interval: empty")
	case "1s":
		return polygonws.StocksSecAggs, nil
	default:
		return polygonws.StocksMinAggs, nil
	}
}
