package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/flintml/flint/driver"
	"github.com/flintml/flint/internal/accel"
)

func runCmd(logLevel, logFormat *string) *cli.Command {
	var (
		modelPath   string
		requestPath string
		dump        bool
		perf        bool
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Compile a model and execute one request against the simulator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "path to model JSON",
				Required:    true,
				Destination: &modelPath,
			},
			&cli.StringFlag{
				Name:        "request",
				Aliases:     []string{"r"},
				Usage:       "path to request JSON",
				Required:    true,
				Destination: &requestPath,
			},
			&cli.BoolFlag{
				Name:        "dump",
				Usage:       "print output values as float32 after execution",
				Destination: &dump,
			},
			&cli.BoolFlag{
				Name:        "perf",
				Usage:       "print per-node performance counters after execution",
				Destination: &perf,
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
			request, err := loadRequest(requestPath)
			if err != nil {
				return err
			}

			dev := driver.NewDevice(accel.NewSimulator(), log)
			if cfg.PowerSave != nil {
				if err := dev.SetPowerSaveLevel(*cfg.PowerSave); err != nil {
					return err
				}
			}

			tmp, err := os.MkdirTemp("", "flint-run-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)
			paths, err := materializePools(request, tmp, nil)
			if err != nil {
				return err
			}

			prepared, err := dev.PrepareModel(m)
			if err != nil {
				return err
			}
			defer prepared.Close()

			start := time.Now()
			if err := prepared.ExecuteSync(request); err != nil {
				return err
			}
			log.Info("request complete", "elapsed", time.Since(start))

			if perf {
				counters, err := prepared.PerfCounters()
				if err != nil {
					return err
				}
				for _, c := range counters {
					fmt.Printf("node %4d  executions %d  counter %d\n",
						c.NodeID, c.Executions, c.Counter)
				}
			}

			if !dump {
				return nil
			}
			for i, arg := range request.Outputs {
				data, err := os.ReadFile(paths[arg.Location.PoolIndex])
				if err != nil {
					return err
				}
				end := int(arg.Location.Offset + arg.Location.Length)
				if end > len(data) {
					end = len(data)
				}
				values := float32Values(data[arg.Location.Offset:end])
				fmt.Printf("output %d: %v\n", i, values)
			}
			return nil
		},
	}
}
