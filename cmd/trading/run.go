package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/candle-trader/internal/config"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/runner"
	"github.com/rxtech-lab/candle-trader/internal/strategy"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine"
	tradingprovider "github.com/rxtech-lab/candle-trader/internal/trading/provider"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a strategy until the stream ends or the process is interrupted",
		Flags: settingsFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			log, err := logger.NewLoggerWithLevel(settings.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck // stdout sync errors are not actionable

			r, err := runner.New(*settings, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.Root().Writer

			err = r.Run(ctx, printingCallbacks(out))
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, "Trading stopped by user")

				return nil
			}

			if err != nil {
				return err
			}

			if path := r.RunPath(); path != "" {
				fmt.Fprintf(out, "Run artifacts written to %s\n", path)
			}

			return nil
		},
	}
}

// settingsFlags are shared by every command that builds a run from settings.
// A flag overrides the matching settings field only when set.
func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config-dir",
			Aliases: []string{"c"},
			Usage:   "Directory holding settings.yaml or a legacy conf file",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:    "symbol",
			Aliases: []string{"s"},
			Usage:   "Instrument to stream and trade",
		},
		&cli.StringFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "Candle interval, e.g. 1m",
		},
		&cli.StringFlag{
			Name:  "strategy",
			Usage: fmt.Sprintf("Strategy to run (%v)", strategy.Kinds()),
		},
		&cli.IntFlag{
			Name:  "fast-window",
			Usage: "Fast moving average window",
		},
		&cli.IntFlag{
			Name:  "slow-window",
			Usage: "Slow moving average window",
		},
		&cli.IntFlag{
			Name:  "quantity",
			Usage: "Order quantity in lots",
		},
		&cli.StringFlag{
			Name:    "market-data-provider",
			Aliases: []string{"m"},
			Usage:   fmt.Sprintf("Market data provider (%s, %s, %s)", provider.ProviderBinance, provider.ProviderPolygon, provider.ProviderReplay),
		},
		&cli.StringFlag{
			Name:    "trading-provider",
			Aliases: []string{"t"},
			Usage:   fmt.Sprintf("Trading provider (%v)", tradingprovider.GetSupportedProviders()),
		},
		&cli.StringFlag{
			Name:  "replay-path",
			Usage: "Parquet file replayed by the replay provider",
		},
		&cli.StringFlag{
			Name:  "replay-pace",
			Usage: "Pause between replayed candles, e.g. 500ms",
		},
		&cli.StringFlag{
			Name:    "data-output",
			Aliases: []string{"o"},
			Usage:   "Directory for run artifacts, empty disables persistence",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
		},
	}
}

// loadSettings reads settings from --config-dir, falling back to defaults plus
// environment credentials when no settings file exists, then applies flags.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	settings, err := config.Read(cmd.String("config-dir"))
	if errors.HasCode(err, errors.ErrCodeSettingsNotFound) {
		defaults := config.Default()
		defaults.ApplyEnv(os.Getenv)
		settings, err = &defaults, nil
	}

	if err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, settings); err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

func applyFlags(cmd *cli.Command, settings *config.Settings) error {
	if cmd.IsSet("strategy") {
		kind, err := strategy.ParseKind(cmd.String("strategy"))
		if err != nil {
			return err
		}

		settings.Strategy = kind
	}

	if cmd.IsSet("symbol") {
		settings.Symbol = cmd.String("symbol")
	}

	if cmd.IsSet("interval") {
		settings.Interval = cmd.String("interval")
	}

	if cmd.IsSet("fast-window") {
		settings.Crossover.FastWindow = int(cmd.Int("fast-window"))
	}

	if cmd.IsSet("slow-window") {
		settings.Crossover.SlowWindow = int(cmd.Int("slow-window"))
	}

	if cmd.IsSet("quantity") {
		settings.Crossover.OrderQuantity = int(cmd.Int("quantity"))
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

	if cmd.IsSet("replay-pace") {
		settings.Replay.Pace = cmd.String("replay-pace")
	}

	if cmd.IsSet("data-output") {
		settings.DataOutputPath = cmd.String("data-output")
	}

	if cmd.IsSet("log-level") {
		settings.LogLevel = cmd.String("log-level")
	}

	return nil
}

// printingCallbacks reports candles, trades and the final statistics as plain text.
func printingCallbacks(out io.Writer) engine.LiveTradingCallbacks {
	onStart := engine.OnEngineStartCallback(func(symbols []string, interval string, previousDataPath string) error {
		fmt.Fprintf(out, "Engine started: symbols=%v, interval=%s\n", symbols, interval)

		if previousDataPath != "" {
			fmt.Fprintf(out, "Candles persisted to: %s\n", previousDataPath)
		}

		return nil
	})

	onStop := engine.OnEngineStopCallback(func(err error) {
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(out, "Engine stopped with error: %v\n", err)

			return
		}

		fmt.Fprintln(out, "Engine stopped")
	})

	onMarketData := engine.OnMarketDataCallback(func(_ string, data types.MarketData) error {
		fmt.Fprintf(out, "[%s] %s: O=%.4f H=%.4f L=%.4f C=%.4f V=%.2f\n",
			data.Time.Format("15:04:05"), data.Symbol,
			data.Open, data.High, data.Low, data.Close, data.Volume)

		return nil
	})

	onEvent := engine.OnStrategyEventCallback(func(event types.StrategyEvent) {
		if line := describeEvent(event); line != "" {
			fmt.Fprintln(out, line)
		}
	})

	onError := engine.OnErrorCallback(func(err error) {
		fmt.Fprintf(out, "Error: %v\n", err)
	})

	onStatus := engine.OnProviderStatusChangeCallback(func(status types.ProviderConnectionStatus) {
		fmt.Fprintf(out, "Market data provider %s\n", status)
	})

	return engine.LiveTradingCallbacks{
		OnEngineStart:          &onStart,
		OnEngineStop:           &onStop,
		OnMarketData:           &onMarketData,
		OnStrategyEvent:        &onEvent,
		OnError:                &onError,
		OnProviderStatusChange: &onStatus,
	}
}

// describeEvent renders the events worth a line of output. Indicator updates
// and echoed candles are left to the candle line.
func describeEvent(event types.StrategyEvent) string {
	switch e := event.(type) {
	case types.StrategyStarted:
		if e.SlowWindow == 0 {
			return fmt.Sprintf("Strategy %s started", e.Strategy)
		}

		return fmt.Sprintf("Strategy %s started: fast=%d slow=%d quantity=%d", e.Strategy, e.FastWindow, e.SlowWindow, e.OrderQuantity)
	case types.TradeEntry:
		return fmt.Sprintf("ENTRY %s %d @ %.4f", e.Direction, e.Quantity, e.Price)
	case types.TradeExit:
		return fmt.Sprintf("EXIT %s %d @ %.4f profit=%.4f total=%.4f", e.Direction, e.Quantity, e.Price, e.Profit, e.TotalRealizedProfit)
	case types.StrategyStopped:
		return fmt.Sprintf("Strategy %s stopped: trades=%d wins=%d win_rate=%.2f%% realized=%.4f candles=%d",
			e.Strategy, e.CompletedTrades, e.WinningTrades, e.WinRate, e.TotalRealizedProfit, e.CandlesProcessed)
	default:
		return ""
	}
}
