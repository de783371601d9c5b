package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/flintml/flint/driver"
	"github.com/flintml/flint/internal/accel"
)

func checkCmd(logLevel, logFormat *string) *cli.Command {
	var modelPath string

	return &cli.Command{
		Name:  "check",
		Usage: "Report which operations of a model the accelerator supports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "path to model JSON",
				Required:    true,
				Destination: &modelPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig()
			applyLogConfig(cmd, cfg, logLevel, logFormat)
			log := newLogger(*logLevel, *logFormat)

			m, err := loadModel(modelPath)
			if err != nil {
				return err
			}
			dev := driver.NewDevice(accel.NewSimulator(), log)
			supported, err := dev.SupportedOperations(m)
			if err != nil {
				return err
			}

			unsupported := 0
			for i, ok := range supported {
				mark := "yes"
				if !ok {
					mark = "NO"
					unsupported++
				}
				fmt.Printf("%3d  %-30s %s\n", i, m.Operations[i].Type, mark)
			}
			if unsupported > 0 {
				return fmt.Errorf("%d of %d operations unsupported", unsupported, len(supported))
			}
			fmt.Printf("all %d operations supported\n", len(supported))
			return nil
		},
	}
}
