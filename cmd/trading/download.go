package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical candles into a parquet file usable by the replay provider",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "job",
				Usage: "YAML or JSON download job (see `trading schema download`). Flags override its fields.",
			},
			&cli.StringFlag{
				Name:    "ticker",
				Aliases: []string{"t"},
				Usage:   "Ticker symbol, e.g. BTCUSDT",
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{dateLayout},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to now.",
				Config: cli.TimestampConfig{
					Layouts: []string{dateLayout},
				},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%s, %s)", marketdata.ProviderBinance, marketdata.ProviderPolygon),
				Value:   string(marketdata.ProviderBinance),
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Candle interval, e.g. 1m or 1h",
				Value:   string(marketdata.TimespanOneMinute),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   marketdata.DefaultDownloadDataPath,
			},
		},
		Action: downloadAction,
	}
}

const dateLayout = "2006-01-02"

// downloadJob starts from --job when given, otherwise from the flag defaults,
// and applies every flag that was set.
func downloadJob(cmd *cli.Command) (*marketdata.DownloadJob, error) {
	job := &marketdata.DownloadJob{
		Provider: marketdata.ProviderType(cmd.String("provider")),
		Interval: marketdata.Timespan(cmd.String("interval")),
		DataPath: cmd.String("data"),
	}

	if path := cmd.String("job"); path != "" {
		loaded, err := marketdata.LoadDownloadJob(path)
		if err != nil {
			return nil, err
		}

		job = loaded
	}

	if cmd.IsSet("provider") {
		job.Provider = marketdata.ProviderType(cmd.String("provider"))
	}

	if cmd.IsSet("interval") {
		job.Interval = marketdata.Timespan(cmd.String("interval"))
	}

	if cmd.IsSet("data") {
		job.DataPath = cmd.String("data")
	}

	if cmd.IsSet("ticker") {
		job.Ticker = cmd.String("ticker")
	}

	if cmd.IsSet("start") {
		job.Start = cmd.Timestamp("start").Format(dateLayout)
	}

	if cmd.IsSet("end") {
		job.End = cmd.Timestamp("end").Format(dateLayout)
	}

	job.ApplyEnv(os.Getenv)

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	job, err := downloadJob(cmd)
	if err != nil {
		return err
	}

	params, err := job.Params(time.Now())
	if err != nil {
		return err
	}

	// Polygon draws its own progress bar.
	var onProgress provider.OnDownloadProgress
	if job.Provider != marketdata.ProviderPolygon {
		onProgress = newProgressReporter()
	}

	client, err := marketdata.NewClient(job.ClientConfig(), onProgress, logger.NewNopLogger())
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "Downloading %s %s candles from %s to %s using %s...\n",
		params.Ticker, job.Interval, params.StartDate.Format(dateLayout), params.EndDate.Format(dateLayout), job.Provider)

	path, err := client.Download(ctx, params)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(out, "\nDownload completed: %s\n", path)

	return nil
}

// newProgressReporter returns a progress callback that draws a bar sized on the
// first report.
func newProgressReporter() provider.OnDownloadProgress {
	var bar *progressbar.ProgressBar

	return func(current float64, total float64, message string) {
		if bar == nil {
			bar = progressbar.NewOptions64(int64(total),
				progressbar.OptionSetDescription(message),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
			)
		}

		_ = bar.Set64(int64(current))
	}
}
