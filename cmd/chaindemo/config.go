package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/saiset-co/sai-handle/config"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "Print the effective config value at a dotted path, or every path",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			parser, err := config.NewParser(cfg)
			if err != nil {
				return err
			}

			path := c.Args().First()
			if path == "" {
				for _, p := range parser.Paths() {
					fmt.Fprintf(c.App.Writer, "%s = %v\n", p, parser.GetValue(p, nil))
				}
				return nil
			}

			value := parser.GetValue(path, nil)
			if value == nil {
				return fmt.Errorf("no value at %s", path)
			}

			fmt.Fprintln(c.App.Writer, value)
			return nil
		},
	}
}
