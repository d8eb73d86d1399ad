package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/fxnlabs/fpga/internal/backend"
	"github.com/fxnlabs/fpga/internal/render"
	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Open the first matching accelerator and show it with its device",
		Flags: append(filterFlags(), &cli.BoolFlag{
			Name:  "banner",
			Usage: "Print a banner with the platform name",
		}),
		Action: func(c *cli.Context) error {
			log := appLogger(c)
			filter, filtered, err := filterFromFlags(c)
			if err != nil {
				return err
			}
			rt, err := backend.NewRuntime(appConfig(c).Driver, log)
			if err != nil {
				return err
			}

			var p *opae.Platform
			if filtered {
				p, err = rt.Open(filter)
			} else {
				p, err = rt.Discover()
			}
			if err != nil {
				return err
			}
			defer func() {
				if err := p.Close(); err != nil {
					log.Warn("Failed to release platform", zap.Error(err))
				}
			}()

			if c.Bool("banner") {
				fmt.Fprintln(c.App.Writer, figure.NewFigure(p.Name(), "", true).String())
			}
			acc := p.AcceleratorInfo()
			snapshots := []opae.Snapshot{{Kind: driver.AcceleratorObject, Accelerator: &acc}}
			if dev, ok := p.DeviceInfo(); ok {
				snapshots = append(snapshots, opae.Snapshot{Kind: driver.DeviceObject, Device: &dev})
			}
			return render.Snapshots(c.App.Writer, c.String("output"), snapshots)
		},
	}
}
