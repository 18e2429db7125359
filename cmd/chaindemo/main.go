package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/saiset-co/sai-handle/config"
	"github.com/saiset-co/sai-handle/logger"
	"github.com/saiset-co/sai-handle/types"
)

func main() {
	app := &cli.App{
		Name:  "chaindemo",
		Usage: "Drive handler chains from a YAML config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config; built-in defaults when empty",
				EnvVars: []string{"SAI_HANDLE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			configCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*types.Config, error) {
	loader := config.NewLoader()

	path := c.String("config")
	if path == "" {
		return loader.Load(nil)
	}

	return loader.LoadFromFile(path)
}

func setup(c *cli.Context) (*types.Config, types.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, types.WrapError(err, "failed to load config")
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, types.WrapError(err, "failed to create logger")
	}

	return cfg, log, nil
}
