package main

import (
	"github.com/fxnlabs/fpga/internal/backend"
	"github.com/fxnlabs/fpga/internal/config"
	"github.com/fxnlabs/fpga/internal/exporter"
	"github.com/fxnlabs/fpga/internal/metrics"
	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func exporterCommand() *cli.Command {
	return &cli.Command{
		Name:  "exporter",
		Usage: "Serve the inventory and runtime metrics over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen-address",
				Usage: "Address to listen on (overrides exporter.listenAddress)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := appConfig(c)
			if c.IsSet("listen-address") {
				cfg.Exporter.ListenAddress = c.String("listen-address")
			}
			app := newExporterApp(cfg, appLogger(c))
			if err := app.Start(c.Context); err != nil {
				return err
			}
			<-app.Done()
			return app.Stop(c.Context)
		},
	}
}

func newExporterApp(cfg *config.Config, log *zap.Logger, opts ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{
		fx.Supply(cfg, log),
		fx.Provide(newRuntime),
		exporter.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	}, opts...)...)
}

func newRuntime(cfg *config.Config, log *zap.Logger) (*opae.Runtime, error) {
	return backend.NewRuntime(cfg.Driver, log, opae.WithObserver(metrics.Observer{}))
}
