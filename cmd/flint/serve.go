package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/flintml/flint/driver"
	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/logger"
	"github.com/flintml/flint/model"
)

func serveCmd(logLevel, logFormat *string) *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the driver over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig()
			applyLogConfig(cmd, cfg, logLevel, logFormat)
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}
			log := newLogger(*logLevel, *logFormat)

			dev := driver.NewDevice(accel.NewSimulator(), log)
			if cfg.PowerSave != nil {
				if err := dev.SetPowerSaveLevel(*cfg.PowerSave); err != nil {
					return err
				}
			}

			srv := &server{dev: dev, log: log}
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			srv.register(e)

			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(s *http.Server) error {
					s.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

type server struct {
	dev *driver.Device
	log logger.Logger
}

func (s *server) register(e *echo.Echo) {
	e.GET("/v1/status", s.handleStatus)
	e.POST("/v1/operations/check", s.handleCheck)
	e.POST("/v1/execute", s.handleExecute)
}

type statusResponse struct {
	Status       string              `json:"status"`
	Capabilities driver.Capabilities `json:"capabilities"`
}

func (s *server) handleStatus(c *echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:       s.dev.Status().String(),
		Capabilities: s.dev.Capabilities(),
	})
}

type checkResponse struct {
	Supported []bool `json:"supported"`
}

func (s *server) handleCheck(c *echo.Context) error {
	var m model.Model
	if err := decodeBody(c, &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	supported, err := s.dev.SupportedOperations(&m)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, checkResponse{Supported: supported})
}

// executeRequest carries a one-shot model, request, and the initial bytes
// of each request pool. Pool contents round-trip as base64.
type executeRequest struct {
	Model   model.Model   `json:"model"`
	Request model.Request `json:"request"`
	Pools   [][]byte      `json:"pools"`
}

type executeResponse struct {
	Status string   `json:"status"`
	Pools  [][]byte `json:"pools"`
}

// handleExecute materializes the request pools as temporary files so output
// regions can be read back after the run.
func (s *server) handleExecute(c *echo.Context) error {
	var req executeRequest
	if err := decodeBody(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tmp, err := os.MkdirTemp("", "flint-serve-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)
	paths, err := materializePools(&req.Request, tmp, req.Pools)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	prepared, err := s.dev.PrepareModel(&req.Model)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer prepared.Close()

	if err := prepared.ExecuteSync(&req.Request); err != nil {
		status := driver.StatusOf(err)
		s.log.Error("execution failed", "err", err, "status", status)
		code := http.StatusInternalServerError
		if status == driver.StatusInvalidArgument {
			code = http.StatusBadRequest
		}
		return echo.NewHTTPError(code, status.String())
	}

	out := executeResponse{Status: driver.StatusNone.String(), Pools: make([][]byte, len(paths))}
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out.Pools[i] = data
	}
	return c.JSON(http.StatusOK, out)
}

func decodeBody(c *echo.Context, v any) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
