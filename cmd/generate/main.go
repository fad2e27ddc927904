package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/candle-trader/internal/config"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const schemaName = "settings-schema.json"

// generate writes the settings schema into dir, plus a sample settings.yaml
// pointing at it unless one already exists.
func generate(dir string) error {
	schemaJSON, err := config.Schema()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	schemaPath := filepath.Join(dir, schemaName)
	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return err
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	samplePath := filepath.Join(dir, config.SettingsFileName)
	if _, err := os.Stat(samplePath); !os.IsNotExist(err) {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config.Default())
	if err != nil {
		return err
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)

	if err := os.WriteFile(samplePath, yamlBytes, 0600); err != nil {
		return err
	}

	log.Printf("Sample settings successfully generated at %s", samplePath)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Write the settings JSON schema and a sample settings.yaml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory",
				Value:   "./config",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return generate(cmd.String("dir"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("Failed to generate settings schema: %v", err)
	}
}
