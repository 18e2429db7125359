package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/chain"
	"github.com/saiset-co/sai-handle/registry"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the demo chain for the configured number of passes",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "passes", Usage: "override chain.passes"},
			&cli.StringFlag{Name: "order", Usage: "override chain.order (fifo or lifo)"},
			&cli.StringSliceFlag{Name: "disable", Usage: "handler names to leave out"},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}

			if c.IsSet("passes") {
				cfg.Chain.Passes = c.Int("passes")
			}
			if c.IsSet("order") {
				cfg.Chain.Order = c.String("order")
			}

			order, err := chain.ParseOrder(cfg.Chain.Order)
			if err != nil {
				return err
			}

			d, err := newDemo(cfg, registry.Deps{Logger: log})
			if err != nil {
				return err
			}

			results, err := d.run(c.Context,
				chain.New(chain.WithOrder[job, error](order), chain.WithLogger[job, error](log)),
				cfg.Chain.Passes,
				c.StringSlice("disable")...,
			)
			if err != nil {
				return err
			}

			for _, result := range results {
				fmt.Fprintln(c.App.Writer, result)
			}

			for _, counter := range d.counters {
				log.Info("Stage calls", zap.String("stage", counter.Name()), zap.Int64("calls", counter.Calls()))
			}

			return nil
		},
	}
}
