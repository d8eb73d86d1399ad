package backend

import (
	"testing"

	"github.com/fxnlabs/fpga/internal/config"
	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/fxnlabs/fpga/pkg/opae/driver/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const topology = "../../fixtures/topology/single.yaml"

func withoutNative(t *testing.T) {
	t.Helper()
	orig := nativeDriver
	nativeDriver = func() (driver.Driver, error) {
		return nil, opae.ErrNoDriver
	}
	t.Cleanup(func() { nativeDriver = orig })
}

func TestNewDriver(t *testing.T) {
	withoutNative(t)
	logger := zaptest.NewLogger(t)

	t.Run("sim", func(t *testing.T) {
		drv, err := NewDriver(config.DriverConfig{Name: Sim, Topology: topology}, logger)
		require.NoError(t, err)
		assert.IsType(t, &sim.Sim{}, drv)
	})

	t.Run("sim without topology", func(t *testing.T) {
		_, err := NewDriver(config.DriverConfig{Name: Sim}, logger)
		assert.Error(t, err)
	})

	t.Run("sim with missing topology", func(t *testing.T) {
		_, err := NewDriver(config.DriverConfig{Name: Sim, Topology: "missing.yaml"}, logger)
		assert.Error(t, err)
	})

	t.Run("native unavailable", func(t *testing.T) {
		_, err := NewDriver(config.DriverConfig{Name: Native}, logger)
		assert.ErrorIs(t, err, opae.ErrNoDriver)
	})

	t.Run("auto falls back to sim", func(t *testing.T) {
		drv, err := NewDriver(config.DriverConfig{Name: Auto, Topology: topology}, logger)
		require.NoError(t, err)
		assert.IsType(t, &sim.Sim{}, drv)
	})

	t.Run("auto without topology", func(t *testing.T) {
		_, err := NewDriver(config.DriverConfig{Name: Auto}, logger)
		assert.ErrorIs(t, err, opae.ErrNoDriver)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewDriver(config.DriverConfig{Name: "cuda"}, logger)
		assert.Error(t, err)
	})
}

func TestNewDriver_AutoPrefersNative(t *testing.T) {
	native, err := sim.Load(topology)
	require.NoError(t, err)
	orig := nativeDriver
	nativeDriver = func() (driver.Driver, error) { return native, nil }
	t.Cleanup(func() { nativeDriver = orig })

	drv, err := NewDriver(config.DriverConfig{Name: Auto, Topology: topology}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Same(t, native, drv)
}

func TestNewRuntime(t *testing.T) {
	withoutNative(t)

	rt, err := NewRuntime(config.DriverConfig{Name: Sim, Topology: topology}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, rt.Driver().(*sim.Sim).Initialized())

	p, err := rt.Discover()
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = NewRuntime(config.DriverConfig{Name: Native}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, opae.ErrNoDriver)
}
