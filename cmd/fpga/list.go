package main

import (
	"github.com/fxnlabs/fpga/internal/backend"
	"github.com/fxnlabs/fpga/internal/render"
	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the devices and accelerators matching the filter flags",
		Flags: filterFlags(),
		Action: func(c *cli.Context) error {
			log := appLogger(c)
			filter, _, err := filterFromFlags(c)
			if err != nil {
				return err
			}
			rt, err := backend.NewRuntime(appConfig(c).Driver, log)
			if err != nil {
				return err
			}

			resources, err := rt.Collect(filter)
			if err != nil {
				return err
			}
			snapshots := make([]opae.Snapshot, 0, len(resources))
			for _, r := range resources {
				snapshots = append(snapshots, opae.SnapshotOf(r))
				if err := r.Close(); err != nil {
					log.Warn("Failed to release resource", zap.Error(err))
				}
			}
			log.Debug("Listed resources", zap.Stringer("filter", filter), zap.Int("count", len(snapshots)))
			return render.Snapshots(c.App.Writer, c.String("output"), snapshots)
		},
	}
}
