package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rxtech-lab/candle-trader/internal/config"
	"github.com/rxtech-lab/candle-trader/internal/strategy"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine"
	tradingprovider "github.com/rxtech-lab/candle-trader/internal/trading/provider"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata"
	"github.com/rxtech-lab/candle-trader/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List market data and trading providers",
		Action: func(_ context.Context, cmd *cli.Command) error {
			out := cmd.Root().Writer

			fmt.Fprintln(out, "Market data providers:")

			for _, name := range marketdata.GetSupportedProviders() {
				info, err := marketdata.GetProviderInfo(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "  %-14s %s (auth: %t, download: %t)\n", info.Name, info.Description, info.RequiresAuth, info.SupportsDownload)

				secrets, err := provider.GetStreamKeychainFields(name)
				if err != nil {
					return err
				}

				if len(secrets) > 0 {
					fmt.Fprintf(out, "  %-14s secrets: %s\n", "", strings.Join(secrets, ", "))
				}
			}

			fmt.Fprintln(out, "Trading providers:")

			for _, name := range tradingprovider.GetSupportedProviders() {
				info, err := tradingprovider.GetProviderInfo(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "  %-14s %s (paper: %t)\n", info.Name, info.Description, info.IsPaperTrading)
			}

			return nil
		},
	}
}

func strategiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategies",
		Usage: "List built-in strategies",
		Action: func(_ context.Context, cmd *cli.Command) error {
			out := cmd.Root().Writer

			for _, kind := range strategy.Kinds() {
				info, err := strategy.GetInfo(kind)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%-6s %s: %s\n", info.Kind, info.Name, info.Description)
			}

			return nil
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print a JSON schema: settings, engine, download, or a trading provider name",
		ArgsUsage: "[settings|engine|download|<trading provider>]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			target := cmd.Args().First()
			if target == "" {
				target = "settings"
			}

			var (
				schema string
				err    error
			)

			switch target {
			case "settings":
				schema, err = config.Schema()
			case "engine":
				schema, err = engine.GetConfigSchema()
			case "download":
				schema, err = marketdata.DownloadJobSchema()
			default:
				schema, err = tradingprovider.GetProviderConfigSchema(target)
			}

			if err != nil {
				return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "no schema for %q", target)
			}

			fmt.Fprintln(cmd.Root().Writer, schema)

			return nil
		},
	}
}
