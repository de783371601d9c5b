package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/flintml/flint/internal/logger"
)

func main() {
	var (
		logLevel  string
		logFormat string
	)

	app := &cli.Command{
		Name:  "flint",
		Usage: "NN accelerator graph driver CLI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (text, json)",
				Value:       "text",
				Destination: &logFormat,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			checkCmd(&logLevel, &logFormat),
			runCmd(&logLevel, &logFormat),
			serveCmd(&logLevel, &logFormat),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the command logger from the global flags, with config
// file defaults already applied.
func newLogger(level, format string) logger.Logger {
	lvl := logger.ParseLevel(level)
	if format == "json" {
		return logger.JSON(os.Stderr, lvl)
	}
	return logger.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
