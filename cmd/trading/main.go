package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/candle-trader/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "trading",
		Usage:   "Run candle strategies against live or replayed market data",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			runCommand(),
			downloadCommand(),
			providersCommand(),
			strategiesCommand(),
			schemaCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
