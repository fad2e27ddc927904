package stats

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// StatsAccumulator holds running statistics for closed positions.
type StatsAccumulator struct {
	TotalTrades      int
	WinningTrades    int
	LosingTrades     int
	RealizedPnL      float64
	MaxProfit        float64
	MaxLoss          float64
	MaxDrawdown      float64
	PeakPnL          float64
	HoldingTimes     []int // in seconds
	CandlesProcessed int
}

func newStatsAccumulator() *StatsAccumulator {
	return &StatsAccumulator{
		TotalTrades:      0,
		WinningTrades:    0,
		LosingTrades:     0,
		RealizedPnL:      0,
		MaxProfit:        0,
		MaxLoss:          0,
		MaxDrawdown:      0,
		PeakPnL:          0,
		HoldingTimes:     make([]int, 0),
		CandlesProcessed: 0,
	}
}

// RunInfo identifies the run a tracker reports on.
type RunInfo struct {
	RunID        string
	RunName      string
	Symbol       string
	Strategy     string
	SessionStart time.Time
}

// openPosition is the entry the tracker is waiting to see closed.
type openPosition struct {
	entryTime  time.Time
	entryPrice float64
	quantity   int
}

// StatsTracker derives run statistics from the strategy's trade events. It
// implements the strategy observer contract and keeps daily figures next to
// the cumulative ones.
type StatsTracker struct {
	info        RunInfo
	currentDate string

	dailyStats      *StatsAccumulator
	cumulativeStats *StatsAccumulator

	position  optional.Option[openPosition]
	lastPrice float64

	eventsFilePath     string
	marketDataFilePath string
	statsOutputPath    string

	now func() time.Time
	mu  sync.Mutex
	log *logger.Logger
}

func NewStatsTracker(log *logger.Logger) *StatsTracker {
	return NewStatsTrackerWithClock(log, time.Now)
}

// NewStatsTrackerWithClock creates a tracker stamping LastUpdated from now.
func NewStatsTrackerWithClock(log *logger.Logger, now func() time.Time) *StatsTracker {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &StatsTracker{
		info:               RunInfo{}, //nolint:exhaustruct // set via Initialize()
		currentDate:        "",
		dailyStats:         newStatsAccumulator(),
		cumulativeStats:    newStatsAccumulator(),
		position:           optional.None[openPosition](),
		lastPrice:          0,
		eventsFilePath:     "",
		marketDataFilePath: "",
		statsOutputPath:    "",
		now:                now,
		mu:                 sync.Mutex{},
		log:                log,
	}
}

func (s *StatsTracker) Initialize(info RunInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.info = info
	s.currentDate = info.SessionStart.Format(dateLayout)

	s.log.Info("Stats tracker initialized",
		zap.String("run_id", info.RunID),
		zap.String("symbol", info.Symbol),
		zap.String("strategy", info.Strategy),
	)
}

// SetFilePaths sets the artifact paths reported in stats.yaml and where it is written.
func (s *StatsTracker) SetFilePaths(eventsPath, marketDataPath, statsPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventsFilePath = eventsPath
	s.marketDataFilePath = marketDataPath
	s.statsOutputPath = statsPath
}

// OnEvent records trade entries and exits. Other events are ignored.
func (s *StatsTracker) OnEvent(event types.StrategyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := event.(type) {
	case types.TradeEntry:
		s.position = optional.Some(openPosition{
			entryTime:  e.Timestamp,
			entryPrice: e.Price,
			quantity:   e.Quantity,
		})
		s.lastPrice = e.Price
	case types.TradeExit:
		holding := optional.None[int]()
		if s.position.IsSome() {
			seconds := int(e.Timestamp.Sub(s.position.Unwrap().entryTime).Seconds())
			if seconds > 0 {
				holding = optional.Some(seconds)
			}
		}

		s.updateAccumulator(s.dailyStats, e.Profit, holding)
		s.updateAccumulator(s.cumulativeStats, e.Profit, holding)
		s.position = optional.None[openPosition]()
		s.lastPrice = e.Price

		s.log.Debug("Trade recorded",
			zap.Float64("pnl", e.Profit),
			zap.Int("total_trades", s.cumulativeStats.TotalTrades),
		)
	}
}

func (s *StatsTracker) updateAccumulator(acc *StatsAccumulator, pnl float64, holding optional.Option[int]) {
	acc.TotalTrades++
	acc.RealizedPnL += pnl

	if pnl > 0 {
		acc.WinningTrades++
	} else if pnl < 0 {
		acc.LosingTrades++
	}

	if pnl > acc.MaxProfit {
		acc.MaxProfit = pnl
	}

	if pnl < acc.MaxLoss {
		acc.MaxLoss = pnl
	}

	if acc.RealizedPnL > acc.PeakPnL {
		acc.PeakPnL = acc.RealizedPnL
	}

	if drawdown := acc.PeakPnL - acc.RealizedPnL; drawdown > acc.MaxDrawdown {
		acc.MaxDrawdown = drawdown
	}

	if holding.IsSome() {
		acc.HoldingTimes = append(acc.HoldingTimes, holding.Unwrap())
	}
}

// RecordCandle counts a processed candle and marks the open position to its close.
func (s *StatsTracker) RecordCandle(data types.MarketData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dailyStats.CandlesProcessed++
	s.cumulativeStats.CandlesProcessed++
	s.lastPrice = data.Close
}

// HandleDateBoundary resets the daily figures. Cumulative figures are kept.
func (s *StatsTracker) HandleDateBoundary(newDate string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldDate := s.currentDate
	s.currentDate = newDate
	s.dailyStats = newStatsAccumulator()

	s.log.Info("Daily stats reset",
		zap.String("old_date", oldDate),
		zap.String("new_date", newDate),
	)
}

func (s *StatsTracker) GetDailyStats() types.RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buildRunStats(s.dailyStats, s.currentDate)
}

// GetCumulativeStats returns the statistics since the session started.
func (s *StatsTracker) GetCumulativeStats() types.RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buildRunStats(s.cumulativeStats, s.info.SessionStart.Format(dateLayout))
}

func (s *StatsTracker) unrealizedPnL() float64 {
	if s.position.IsNone() {
		return 0
	}

	pos := s.position.Unwrap()

	return (s.lastPrice - pos.entryPrice) * float64(pos.quantity)
}

func (s *StatsTracker) buildRunStats(acc *StatsAccumulator, date string) types.RunStats {
	performance := types.PerformanceStats{
		TotalRealizedProfit: acc.RealizedPnL,
		CompletedTrades:     acc.TotalTrades,
		WinningTrades:       acc.WinningTrades,
	}

	unrealized := s.unrealizedPnL()

	return types.RunStats{
		ID:               s.info.RunID,
		RunName:          s.info.RunName,
		Date:             date,
		SessionStart:     s.info.SessionStart,
		LastUpdated:      s.now(),
		Strategy:         s.info.Strategy,
		Symbol:           s.info.Symbol,
		CandlesProcessed: acc.CandlesProcessed,
		TradeResult: types.TradeResult{
			NumberOfTrades:        acc.TotalTrades,
			NumberOfWinningTrades: acc.WinningTrades,
			NumberOfLosingTrades:  acc.LosingTrades,
			WinRate:               performance.WinRate(),
			MaxDrawdown:           acc.MaxDrawdown,
		},
		TradePnl: types.TradePnl{
			RealizedPnL:   acc.RealizedPnL,
			UnrealizedPnL: unrealized,
			TotalPnL:      acc.RealizedPnL + unrealized,
			MaximumLoss:   acc.MaxLoss,
			MaximumProfit: acc.MaxProfit,
		},
		TradeHoldingTime:   holdingTimeStats(acc.HoldingTimes),
		EventsFilePath:     s.eventsFilePath,
		MarketDataFilePath: s.marketDataFilePath,
	}
}

func holdingTimeStats(holdingTimes []int) types.TradeHoldingTime {
	result := types.TradeHoldingTime{Min: 0, Max: 0, Avg: 0}
	if len(holdingTimes) == 0 {
		return result
	}

	result.Min = holdingTimes[0]
	result.Max = holdingTimes[0]
	total := 0

	for _, t := range holdingTimes {
		total += t
		result.Min = min(result.Min, t)
		result.Max = max(result.Max, t)
	}

	result.Avg = total / len(holdingTimes)

	return result
}

// WriteStatsYAML writes the cumulative statistics to stats.yaml. It is a no-op
// until SetFilePaths has been called.
func (s *StatsTracker) WriteStatsYAML() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statsOutputPath == "" {
		return nil
	}

	return types.WriteRunStats(s.statsOutputPath, s.buildRunStats(s.cumulativeStats, s.currentDate))
}

func (s *StatsTracker) GetStatsOutputPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.statsOutputPath
}

func (s *StatsTracker) GetCurrentDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentDate
}
