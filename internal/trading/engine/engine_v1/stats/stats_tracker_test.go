package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/stretchr/testify/suite"
)

type StatsTrackerTestSuite struct {
	suite.Suite
	tempDir string
	start   time.Time
	tracker *StatsTracker
}

func TestStatsTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(StatsTrackerTestSuite))
}

func (s *StatsTrackerTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	s.start = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	s.tracker = NewStatsTrackerWithClock(nil, func() time.Time { return s.start.Add(time.Hour) })
	s.tracker.Initialize(RunInfo{
		RunID:        "3f2a",
		RunName:      "run_1",
		Symbol:       "BTCUSDT",
		Strategy:     "SMA-Cross",
		SessionStart: s.start,
	})
}

func (s *StatsTrackerTestSuite) roundTrip(entryAt time.Duration, entryPrice float64, exitAt time.Duration, exitPrice float64) {
	s.tracker.OnEvent(types.TradeEntry{Timestamp: s.start.Add(entryAt), Price: entryPrice, Direction: types.PurchaseTypeBuy, Quantity: 1})
	s.tracker.OnEvent(types.TradeExit{
		Timestamp: s.start.Add(exitAt),
		Price:     exitPrice,
		Direction: types.PurchaseTypeSell,
		Quantity:  1,
		Profit:    exitPrice - entryPrice,
	})
}

func (s *StatsTrackerTestSuite) TestNoTrades() {
	stats := s.tracker.GetCumulativeStats()

	s.Equal("3f2a", stats.ID)
	s.Equal("run_1", stats.RunName)
	s.Equal("2024-01-01", stats.Date)
	s.Equal("BTCUSDT", stats.Symbol)
	s.Equal("SMA-Cross", stats.Strategy)
	s.Zero(stats.TradeResult.NumberOfTrades)
	s.Zero(stats.TradeResult.WinRate)
	s.Equal(types.TradeHoldingTime{}, stats.TradeHoldingTime)
}

func (s *StatsTrackerTestSuite) TestWinningAndLosingTrades() {
	s.roundTrip(0, 100, 10*time.Minute, 110)
	s.roundTrip(20*time.Minute, 110, 50*time.Minute, 105)
	s.roundTrip(time.Hour, 105, 65*time.Minute, 105)

	stats := s.tracker.GetCumulativeStats()

	s.Equal(3, stats.TradeResult.NumberOfTrades)
	s.Equal(1, stats.TradeResult.NumberOfWinningTrades)
	s.Equal(1, stats.TradeResult.NumberOfLosingTrades)
	s.InDelta(100.0/3.0, stats.TradeResult.WinRate, 1e-9)
	s.InDelta(5.0, stats.TradePnl.RealizedPnL, 1e-9)
	s.InDelta(10.0, stats.TradePnl.MaximumProfit, 1e-9)
	s.InDelta(-5.0, stats.TradePnl.MaximumLoss, 1e-9)
	s.InDelta(5.0, stats.TradeResult.MaxDrawdown, 1e-9)

	s.Equal(5*60, stats.TradeHoldingTime.Min)
	s.Equal(30*60, stats.TradeHoldingTime.Max)
	s.Equal(15*60, stats.TradeHoldingTime.Avg)
}

func (s *StatsTrackerTestSuite) TestUnrealizedPnLOfOpenPosition() {
	s.tracker.OnEvent(types.TradeEntry{Timestamp: s.start, Price: 100, Direction: types.PurchaseTypeBuy, Quantity: 2})
	s.tracker.RecordCandle(types.MarketData{Symbol: "BTCUSDT", Time: s.start.Add(time.Minute), Close: 103})

	stats := s.tracker.GetCumulativeStats()

	s.InDelta(6.0, stats.TradePnl.UnrealizedPnL, 1e-9)
	s.InDelta(6.0, stats.TradePnl.TotalPnL, 1e-9)
	s.Equal(1, stats.CandlesProcessed)
}

func (s *StatsTrackerTestSuite) TestIgnoresOtherEvents() {
	s.tracker.OnEvent(types.StrategyStarted{Strategy: "SMA-Cross"})
	s.tracker.OnEvent(types.IndicatorsUpdated{Timestamp: s.start, Price: 1})
	s.tracker.OnEvent(types.StrategyStopped{Strategy: "SMA-Cross"})

	s.Zero(s.tracker.GetCumulativeStats().TradeResult.NumberOfTrades)
}

func (s *StatsTrackerTestSuite) TestDateBoundaryResetsDailyOnly() {
	s.roundTrip(0, 100, time.Minute, 101)
	s.tracker.HandleDateBoundary("2024-01-02")
	s.roundTrip(24*time.Hour, 101, 24*time.Hour+time.Minute, 99)

	daily := s.tracker.GetDailyStats()
	s.Equal("2024-01-02", daily.Date)
	s.Equal(1, daily.TradeResult.NumberOfTrades)
	s.InDelta(-2.0, daily.TradePnl.RealizedPnL, 1e-9)

	cumulative := s.tracker.GetCumulativeStats()
	s.Equal("2024-01-01", cumulative.Date)
	s.Equal(2, cumulative.TradeResult.NumberOfTrades)
	s.InDelta(-1.0, cumulative.TradePnl.RealizedPnL, 1e-9)
	s.Equal("2024-01-02", s.tracker.GetCurrentDate())
}

func (s *StatsTrackerTestSuite) TestWriteStatsYAML() {
	s.NoError(s.tracker.WriteStatsYAML())

	statsPath := filepath.Join(s.tempDir, "stats.yaml")
	s.tracker.SetFilePaths("events.parquet", "candles.parquet", statsPath)
	s.roundTrip(0, 100, time.Minute, 104)

	s.Require().NoError(s.tracker.WriteStatsYAML())
	s.Equal(statsPath, s.tracker.GetStatsOutputPath())

	written, err := types.ReadRunStats(statsPath)
	s.Require().NoError(err)

	s.Equal("3f2a", written.ID)
	s.Equal(1, written.TradeResult.NumberOfTrades)
	s.InDelta(4.0, written.TradePnl.RealizedPnL, 1e-9)
	s.Equal("events.parquet", written.EventsFilePath)
	s.Equal("candles.parquet", written.MarketDataFilePath)
	s.True(s.start.Add(time.Hour).Equal(written.LastUpdated))
}
