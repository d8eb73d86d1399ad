package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fxnlabs/fpga/internal/config"
	"github.com/fxnlabs/fpga/internal/logger"
	"github.com/fxnlabs/fpga/internal/render"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		if log, ok := app.Metadata["logger"].(*zap.Logger); ok {
			log.Fatal("failed to run app", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:   "fpga",
		Usage:  "Discover FPGA devices and accelerators through OPAE",
		Writer: stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the configuration file",
				EnvVars: []string{"FPGA_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Driver to use: native, sim or auto",
			},
			&cli.StringFlag{
				Name:  "topology",
				Usage: "Topology file for the sim driver",
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Usage: "Log level",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   render.Text,
				Usage:   "Output format: text, json, yaml or cbor",
			},
		},
		Before: func(c *cli.Context) error {
			if !render.Valid(c.String("output")) {
				return fmt.Errorf("unknown output format %q", c.String("output"))
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			zapLogger, err := logger.New(cfg.Logger.Verbosity, cfg.Logger.Encoding)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(zapLogger)
			c.App.Metadata["config"] = cfg
			c.App.Metadata["logger"] = zapLogger.Named("cli")
			return nil
		},
		After: func(c *cli.Context) error {
			if log, ok := c.App.Metadata["logger"].(*zap.Logger); ok {
				_ = log.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			listCommand(),
			infoCommand(),
			exporterCommand(),
		},
	}
}

// loadConfig reads --config when given and applies the global flags over it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	cfg.Logger.Verbosity = "warn"
	cfg.Logger.Encoding = "console"
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if c.IsSet("driver") {
		cfg.Driver.Name = c.String("driver")
	}
	if c.IsSet("topology") {
		cfg.Driver.Topology = c.String("topology")
		if !c.IsSet("driver") && c.String("config") == "" {
			cfg.Driver.Name = "sim"
		}
	}
	if c.IsSet("verbosity") {
		cfg.Logger.Verbosity = c.String("verbosity")
	}
	return cfg, nil
}

func appConfig(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}

func appLogger(c *cli.Context) *zap.Logger {
	return c.App.Metadata["logger"].(*zap.Logger)
}
