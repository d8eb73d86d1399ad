// Package backend selects the driver a Runtime talks to: the native OPAE
// runtime or the simulator.
package backend

import (
	"errors"
	"fmt"

	"github.com/fxnlabs/fpga/internal/config"
	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/fxnlabs/fpga/pkg/opae/driver/sim"
	"go.uber.org/zap"
)

const (
	Native = "native"
	Sim    = "sim"
	// Auto tries the native runtime first and falls back to the simulator
	// when a topology is configured.
	Auto = "auto"
)

// nativeDriver is replaced in tests.
var nativeDriver = opae.NativeDriver

// NewDriver returns the driver named by cfg, not yet initialized.
func NewDriver(cfg config.DriverConfig, logger *zap.Logger) (driver.Driver, error) {
	switch cfg.Name {
	case Native, "":
		return nativeDriver()
	case Sim:
		return newSim(cfg, logger)
	case Auto:
		drv, err := nativeDriver()
		if err == nil {
			logger.Info("Using native OPAE driver")
			return drv, nil
		}
		if cfg.Topology == "" {
			return nil, err
		}
		logger.Info("Using simulated driver (native driver not available)", zap.Error(err))
		return newSim(cfg, logger)
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Name)
}

func newSim(cfg config.DriverConfig, logger *zap.Logger) (driver.Driver, error) {
	if cfg.Topology == "" {
		return nil, errors.New("sim driver requires a topology file")
	}
	s, err := sim.Load(cfg.Topology)
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}
	logger.Info("Using simulated driver", zap.String("topology", cfg.Topology))
	return s, nil
}

// NewRuntime builds and initializes a Runtime on the driver named by cfg.
func NewRuntime(cfg config.DriverConfig, logger *zap.Logger, opts ...opae.Option) (*opae.Runtime, error) {
	drv, err := NewDriver(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts = append([]opae.Option{opae.WithLogger(logger.Named("opae"))}, opts...)
	rt := opae.NewRuntime(drv, opts...)
	if err := rt.Initialize(cfg.ConfigFile); err != nil {
		return nil, err
	}
	return rt, nil
}
