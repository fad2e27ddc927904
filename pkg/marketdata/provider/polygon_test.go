package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	polygonws "github.com/polygon-io/client-go/websocket"
	wsmodels "github.com/polygon-io/client-go/websocket/models"
	"github.com/rxtech-lab/candle-trader/internal/types"
	apperrors "github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// fakePolygonWebSocketService emits configured events after Connect.
type fakePolygonWebSocketService struct {
	events       []any
	errors       []error
	connectError error
	outputChan   chan any
	errorChan    chan error
	subscribed   []string
	topic        polygonws.Topic
	closed       bool
}

func newFakePolygonWebSocketService() *fakePolygonWebSocketService {
	return &fakePolygonWebSocketService{
		outputChan: make(chan any, 100),
		errorChan:  make(chan error, 10),
	}
}

func (m *fakePolygonWebSocketService) Connect() error {
	if m.connectError != nil {
		return m.connectError
	}

	for _, event := range m.events {
		m.outputChan <- event
	}

	for _, err := range m.errors {
		m.errorChan <- err
	}

	return nil
}

func (m *fakePolygonWebSocketService) Subscribe(topic polygonws.Topic, tickers ...string) error {
	m.topic = topic
	m.subscribed = append(m.subscribed, tickers...)

	return nil
}

func (m *fakePolygonWebSocketService) Unsubscribe(_ polygonws.Topic, _ ...string) error {
	return nil
}

func (m *fakePolygonWebSocketService) Output() <-chan any {
	return m.outputChan
}

func (m *fakePolygonWebSocketService) Error() <-chan error {
	return m.errorChan
}

func (m *fakePolygonWebSocketService) Close() {
	if !m.closed {
		m.closed = true
		close(m.outputChan)
		close(m.errorChan)
	}
}

func equityAgg(symbol string, start int64, open, closePrice float64) wsmodels.EquityAgg {
	//nolint:exhaustruct // only the candle fields matter
	return wsmodels.EquityAgg{
		Symbol:         symbol,
		Open:           open,
		High:           closePrice + 1,
		Low:            open - 1,
		Close:          closePrice,
		Volume:         1000000,
		StartTimestamp: start,
	}
}

type PolygonProviderTestSuite struct {
	suite.Suite
}

func TestPolygonProviderSuite(t *testing.T) {
	suite.Run(t, new(PolygonProviderTestSuite))
}

func (suite *PolygonProviderTestSuite) TestNewPolygonClientRequiresKey() {
	_, err := NewPolygonClient("", nil)
	suite.Require().Error(err)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeCredentialsMissing))
}

func (suite *PolygonProviderTestSuite) TestStreamSingleSymbol() {
	ws := newFakePolygonWebSocketService()
	agg := equityAgg("AAPL", 1704067260000, 151.50, 152.75)
	ws.events = []any{
		equityAgg("AAPL", 1704067200000, 150.00, 151.50),
		&agg,
		"status message",
	}

	client := NewPolygonClientWithWebSocket("test-api-key", ws)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var received []types.MarketData

	for data, err := range client.Stream(ctx, []string{"AAPL"}, "1m") {
		suite.Require().NoError(err)

		received = append(received, data)

		if len(received) == 2 {
			break
		}
	}

	suite.Require().Len(received, 2)
	suite.Equal("AAPL", received[0].Symbol)
	suite.InDelta(150.00, received[0].Open, 0.001)
	suite.InDelta(151.50, received[0].Close, 0.001)
	suite.InDelta(152.75, received[1].Close, 0.001)
	suite.Equal([]string{"AAPL"}, ws.subscribed)
	suite.Equal(polygonws.StocksMinAggs, ws.topic)
	suite.True(ws.closed)
}

func (suite *PolygonProviderTestSuite) TestStreamMultipleSymbols() {
	ws := newFakePolygonWebSocketService()
	ws.events = []any{
		equityAgg("AAPL", 1704067200000, 150.00, 151.50),
		equityAgg("GOOGL", 1704067200000, 140.00, 141.50),
	}

	client := NewPolygonClientWithWebSocket("test-api-key", ws)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	seen := make(map[string]bool)

	for data, err := range client.Stream(ctx, []string{"AAPL", "GOOGL"}, "1m") {
		suite.Require().NoError(err)

		seen[data.Symbol] = true
	}

	suite.True(seen["AAPL"])
	suite.True(seen["GOOGL"])
}

func (suite *PolygonProviderTestSuite) TestStreamConnectionError() {
	ws := newFakePolygonWebSocketService()
	ws.connectError = errors.New("authentication failed")

	client := NewPolygonClientWithWebSocket("invalid-api-key", ws)

	var statuses []types.ProviderConnectionStatus

	client.SetOnStatusChange(func(status types.ProviderConnectionStatus) {
		statuses = append(statuses, status)
	})

	_, err := collect(client.Stream(context.Background(), []string{"AAPL"}, "1m"))
	suite.Require().Error(err)
	suite.Contains(err.Error(), "failed to connect")
	suite.Contains(err.Error(), "authentication failed")
	suite.Contains(statuses, types.ProviderStatusDisconnected)
}

func (suite *PolygonProviderTestSuite) TestStreamEmptySymbols() {
	client := NewPolygonClientWithWebSocket("test-api-key", newFakePolygonWebSocketService())

	_, err := collect(client.Stream(context.Background(), []string{}, "1m"))
	suite.Require().Error(err)
	suite.Contains(err.Error(), "no symbols provided")
}

func (suite *PolygonProviderTestSuite) TestStreamContextCancellation() {
	client := NewPolygonClientWithWebSocket("test-api-key", newFakePolygonWebSocketService())

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	received, err := collect(client.Stream(ctx, []string{"AAPL"}, "1m"))
	suite.NoError(err)
	suite.Empty(received)
}

func (suite *PolygonProviderTestSuite) TestStreamWebSocketError() {
	ws := newFakePolygonWebSocketService()
	ws.errors = []error{errors.New("websocket disconnected")}

	client := NewPolygonClientWithWebSocket("test-api-key", ws)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := collect(client.Stream(ctx, []string{"AAPL"}, "1m"))
	suite.Require().Error(err)
	suite.Contains(err.Error(), "websocket error")
	suite.Contains(err.Error(), "websocket disconnected")
}

func (suite *PolygonProviderTestSuite) TestStreamEmitsConnectedStatus() {
	ws := newFakePolygonWebSocketService()
	ws.events = []any{equityAgg("AAPL", 1704067200000, 150.00, 151.50)}

	client := NewPolygonClientWithWebSocket("test-api-key", ws)

	var statuses []types.ProviderConnectionStatus

	client.SetOnStatusChange(func(status types.ProviderConnectionStatus) {
		statuses = append(statuses, status)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	for range client.Stream(ctx, []string{"AAPL"}, "1m") {
	}

	suite.Equal([]types.ProviderConnectionStatus{types.ProviderStatusConnected, types.ProviderStatusDisconnected}, statuses)
}

func (suite *PolygonProviderTestSuite) TestConvertEquityAggToMarketData() {
	agg := equityAgg("MSFT", 1704067200000, 380.50, 383.75)

	data := convertEquityAggToMarketData(&agg)

	suite.Equal("MSFT", data.Symbol)
	suite.Equal("MSFT-1704067200000", data.Id)
	suite.Equal(time.UnixMilli(1704067200000), data.Time)
	suite.InDelta(380.50, data.Open, 0.001)
	suite.InDelta(384.75, data.High, 0.001)
	suite.InDelta(379.50, data.Low, 0.001)
	suite.InDelta(383.75, data.Close, 0.001)
	suite.InDelta(1000000, data.Volume, 0.001)
}

func (suite *PolygonProviderTestSuite) TestConvertIntervalToPolygonTopic() {
	topic, err := convertIntervalToPolygonTopic("1s")
	suite.NoError(err)
	suite.Equal(polygonws.StocksSecAggs, topic)

	topic, err = convertIntervalToPolygonTopic("1m")
	suite.NoError(err)
	suite.Equal(polygonws.StocksMinAggs, topic)

	topic, err = convertIntervalToPolygonTopic("5m")
	suite.NoError(err)
	suite.Equal(polygonws.StocksMinAggs, topic)

	_, err = convertIntervalToPolygonTopic("")
	suite.Error(err)
}

func (suite *PolygonProviderTestSuite) TestDownloadWithoutWriter() {
	client := NewPolygonClientWithWebSocket("test-api-key", nil)

	_, err := client.Download(context.Background(), "AAPL", time.Now().Add(-time.Hour), time.Now(), 1, "minute", nil)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "no writer configured")
}
