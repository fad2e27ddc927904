package strategy

import (
	"context"
	"testing"

	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type EchoTestSuite struct {
	suite.Suite
	logs     *observer.ObservedLogs
	observer *recordingObserver
	echo     *Echo
}

func TestEchoSuite(t *testing.T) {
	suite.Run(t, new(EchoTestSuite))
}

func (suite *EchoTestSuite) SetupTest() {
	core, logs := observer.New(zap.InfoLevel)
	suite.logs = logs
	suite.observer = &recordingObserver{}
	suite.echo = NewEcho(testInstrument, suite.observer, &logger.Logger{Logger: zap.New(core)})
}

func (suite *EchoTestSuite) TestLifecycle() {
	ctx := context.Background()

	suite.Require().NoError(suite.echo.Start(ctx))

	for _, candle := range mocks.CandlesFromCloses(testInstrument, 100, 101, 102) {
		suite.Require().NoError(suite.echo.OnCandle(ctx, candle))
	}

	suite.Require().NoError(suite.echo.Stop(ctx))

	suite.Require().Len(suite.observer.events, 5)
	suite.Equal(types.StrategyStarted{Strategy: EchoName}, suite.observer.events[0])

	received := suite.observer.ofType(types.EventTypeCandleReceived)
	suite.Require().Len(received, 3)
	third := received[2].(types.CandleReceived)
	suite.Equal(102.0, third.Price)
	suite.Equal(3, third.CandleCount)
	suite.Equal(testInstrument, third.Symbol)

	stopped := suite.observer.events[4].(types.StrategyStopped)
	suite.Equal(3, stopped.CandlesProcessed)
	suite.Equal(EchoName, stopped.Strategy)
}

func (suite *EchoTestSuite) TestLogsEachCandle() {
	ctx := context.Background()
	suite.Require().NoError(suite.echo.Start(ctx))

	candle := mocks.CandlesFromCloses(testInstrument, 42.5)[0]
	suite.Require().NoError(suite.echo.OnCandle(ctx, candle))

	entries := suite.logs.FilterMessage("Candle received").All()
	suite.Require().Len(entries, 1)

	fields := entries[0].ContextMap()
	suite.Equal(testInstrument, fields["symbol"])
	suite.Equal(42.5, fields["close"])
	suite.Equal(int64(1), fields["processed"])
}

func (suite *EchoTestSuite) TestStartResetsCount() {
	ctx := context.Background()
	suite.Require().NoError(suite.echo.Start(ctx))

	for _, candle := range mocks.CandlesFromCloses(testInstrument, 1, 2) {
		suite.Require().NoError(suite.echo.OnCandle(ctx, candle))
	}

	suite.Equal(2, suite.echo.CandleCount())
	suite.Require().NoError(suite.echo.Start(ctx))
	suite.Equal(0, suite.echo.CandleCount())
}

func (suite *EchoTestSuite) TestNilDependencies() {
	echo := NewEcho(testInstrument, nil, nil)
	suite.NoError(echo.Start(context.Background()))
	suite.NoError(echo.OnCandle(context.Background(), types.MarketData{Close: 1}))
	suite.NoError(echo.Stop(context.Background()))
}
