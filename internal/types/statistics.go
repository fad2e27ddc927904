package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceStats are the running totals a strategy keeps for closed positions.
type PerformanceStats struct {
	TotalRealizedProfit float64 `yaml:"total_realized_profit" json:"total_realized_profit"`
	CompletedTrades     int     `yaml:"completed_trades" json:"completed_trades"`
	WinningTrades       int     `yaml:"winning_trades" json:"winning_trades"`
}

// WinRate returns the percentage of completed trades with a positive profit,
// or 0 when no trade has completed.
func (s PerformanceStats) WinRate() float64 {
	if s.CompletedTrades == 0 {
		return 0
	}

	return float64(s.WinningTrades) / float64(s.CompletedTrades) * 100
}

type TradeHoldingTime struct {
	// Minimum holding time of a trade in seconds
	Min int `yaml:"min" json:"min"`
	// Maximum holding time of a trade in seconds
	Max int `yaml:"max" json:"max"`
	// Average holding time of a trade in seconds
	Avg int `yaml:"avg" json:"avg"`
}

type TradePnl struct {
	// Realized PnL. Sum of the profit of every closed position.
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
	// Unrealized PnL of the open position at the last seen price.
	UnrealizedPnL float64 `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	// Total PnL. RealizedPnL plus UnrealizedPnL.
	TotalPnL float64 `yaml:"total_pnl" json:"total_pnl"`
	// Maximum loss of a single closed position.
	MaximumLoss float64 `yaml:"maximum_loss" json:"maximum_loss"`
	// Maximum profit of a single closed position.
	MaximumProfit float64 `yaml:"maximum_profit" json:"maximum_profit"`
}

type TradeResult struct {
	NumberOfTrades        int     `yaml:"number_of_trades" json:"number_of_trades"`
	NumberOfWinningTrades int     `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	NumberOfLosingTrades  int     `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	WinRate               float64 `yaml:"win_rate" json:"win_rate"`
	// MaxDrawdown is the largest drop of realized PnL from its running peak.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
}

// RunStats contains statistics for one live trading run.
type RunStats struct {
	// ID is the unique identifier of the run.
	ID string `yaml:"id" json:"id"`

	// RunName is the session folder name (e.g., "run_1").
	RunName string `yaml:"run_name" json:"run_name"`

	// Date is the date of the run in YYYY-MM-DD format.
	Date string `yaml:"date" json:"date"`

	SessionStart time.Time `yaml:"session_start" json:"session_start"`
	LastUpdated  time.Time `yaml:"last_updated" json:"last_updated"`

	Strategy string `yaml:"strategy" json:"strategy"`
	Symbol   string `yaml:"symbol" json:"symbol"`

	CandlesProcessed int `yaml:"candles_processed" json:"candles_processed"`

	TradeResult      TradeResult      `yaml:"trade_result" json:"trade_result"`
	TradePnl         TradePnl         `yaml:"trade_pnl" json:"trade_pnl"`
	TradeHoldingTime TradeHoldingTime `yaml:"trade_holding_time" json:"trade_holding_time"`

	// EventsFilePath is the path to the events parquet file.
	EventsFilePath string `yaml:"events_file_path" json:"events_file_path"`

	// MarketDataFilePath is the path to the streamed candles parquet file.
	MarketDataFilePath string `yaml:"market_data_file_path" json:"market_data_file_path"`
}

// WriteRunStats writes run statistics to a YAML file.
func WriteRunStats(path string, stats RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}

// ReadRunStats reads run statistics from a YAML file.
func ReadRunStats(path string) (RunStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to read run stats file: %w", err)
	}

	var stats RunStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return RunStats{}, fmt.Errorf("failed to unmarshal run stats: %w", err)
	}

	return stats, nil
}
