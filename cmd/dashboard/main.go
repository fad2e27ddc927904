package main

import (
	"context"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/candle-trader/internal/config"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/runner"
	"github.com/rxtech-lab/candle-trader/internal/strategy"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine"
	tradingprovider "github.com/rxtech-lab/candle-trader/internal/trading/provider"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

// runWithSettings is the RunFunc used outside tests. Logs are discarded since
// the terminal belongs to the dashboard.
func runWithSettings(ctx context.Context, settings config.Settings, callbacks engine.LiveTradingCallbacks) error {
	r, err := runner.New(settings, logger.NewNopLogger())
	if err != nil {
		return err
	}

	return r.Run(ctx, callbacks)
}

func dashboardAction(_ context.Context, cmd *cli.Command) error {
	settings, err := config.Read(cmd.String("config-dir"))
	if errors.HasCode(err, errors.ErrCodeSettingsNotFound) {
		defaults := config.Default()
		defaults.ApplyEnv(os.Getenv)
		settings, err = &defaults, nil
	}

	if err != nil {
		return err
	}

	selectStrategy := true

	if cmd.IsSet("strategy") {
		kind, err := strategy.ParseKind(cmd.String("strategy"))
		if err != nil {
			return err
		}

		settings.Strategy = kind
		selectStrategy = false
	}

	if cmd.IsSet("symbol") {
		settings.Symbol = cmd.String("symbol")
	}

	if cmd.IsSet("market-data-provider") {
		settings.MarketDataProvider = provider.ProviderType(cmd.String("market-data-provider"))
	}

	if cmd.IsSet("trading-provider") {
		settings.TradingProvider = tradingprovider.ProviderType(cmd.String("trading-provider"))
	}

	if cmd.IsSet("replay-path") {
		settings.Replay.Path = cmd.String("replay-path")
	}

	// Unpaced replay would finish before the first frame.
	if cmd.IsSet("replay-pace") || settings.Replay.Pace == "" {
		settings.Replay.Pace = cmd.String("replay-pace")
	}

	p := tea.NewProgram(NewModel(*settings, runWithSettings, selectStrategy), tea.WithAltScreen())
	_, err = p.Run()

	return err
}

func main() {
	cmd := &cli.Command{
		Name:  "dashboard",
		Usage: "Watch a strategy trade in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Aliases: []string{"c"},
				Usage:   "Directory holding settings.yaml or a legacy conf file",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Strategy to run; skips the selection screen",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Instrument to stream and trade",
			},
			&cli.StringFlag{
				Name:    "market-data-provider",
				Aliases: []string{"m"},
				Usage:   "Market data provider (binance, polygon, replay)",
			},
			&cli.StringFlag{
				Name:    "trading-provider",
				Aliases: []string{"t"},
				Usage:   "Trading provider (binance-paper, binance-live, stub)",
			},
			&cli.StringFlag{
				Name:  "replay-path",
				Usage: "Parquet file replayed by the replay provider",
			},
			&cli.StringFlag{
				Name:  "replay-pace",
				Usage: "Pause between replayed candles, e.g. 500ms",
				Value: "250ms",
			},
		},
		Action: dashboardAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
