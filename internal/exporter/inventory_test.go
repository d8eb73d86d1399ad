package exporter

import (
	"testing"
	"time"

	"github.com/fxnlabs/fpga/fixtures"
	"github.com/fxnlabs/fpga/internal/metrics"
	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/fxnlabs/fpga/pkg/opae/driver/sim"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRuntime(t *testing.T, topology []byte) (*opae.Runtime, *sim.Sim) {
	t.Helper()
	top, err := sim.ParseTopology(topology)
	require.NoError(t, err)
	s, err := sim.New(*top)
	require.NoError(t, err)
	rt := opae.NewRuntime(s, opae.WithLogger(zaptest.NewLogger(t)), opae.WithObserver(metrics.Observer{}))
	require.NoError(t, rt.Initialize(""))
	return rt, s
}

func TestInventory_Refresh(t *testing.T) {
	rt, s := newRuntime(t, fixtures.DualTopology)
	inv := NewInventory(rt, opae.NewFilter(), 0, zaptest.NewLogger(t))

	snapshots, updated := inv.Snapshots()
	assert.Empty(t, snapshots)
	assert.True(t, updated.IsZero())

	require.NoError(t, inv.Refresh())
	snapshots, updated = inv.Snapshots()
	require.Len(t, snapshots, 4)
	assert.False(t, updated.IsZero())
	assert.Equal(t, driver.DeviceObject, snapshots[0].Kind)
	assert.Equal(t, driver.AcceleratorObject, snapshots[1].Kind)
	assert.Zero(t, s.LiveTokens())
	assert.Zero(t, s.LiveProperties())

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Resources.WithLabelValues("device")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Resources.WithLabelValues("accelerator")))
	guid := "850adcc2-6ceb-4b22-9722-d43375b61c66"
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AcceleratorAssigned.WithLabelValues(guid, "0", "3b", "0", "0")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.AcceleratorAssigned.WithLabelValues(guid, "1", "d8", "0", "0")))
}

func TestInventory_RefreshFailureKeepsSnapshots(t *testing.T) {
	rt, s := newRuntime(t, fixtures.SingleTopology)
	inv := NewInventory(rt, opae.NewFilter().WithAcceleratorObject(), 0, zaptest.NewLogger(t))
	require.NoError(t, inv.Refresh())
	require.NoError(t, inv.Err())

	s.FailOperation(sim.OpEnumerate, driver.NoDaemon)
	err := inv.Refresh()
	require.Error(t, err)
	assert.ErrorIs(t, inv.Err(), err)

	snapshots, _ := inv.Snapshots()
	assert.Len(t, snapshots, 1)

	s.FailOperation(sim.OpEnumerate, driver.OK)
	require.NoError(t, inv.Refresh())
	assert.NoError(t, inv.Err())
}

func TestInventory_Polling(t *testing.T) {
	rt, s := newRuntime(t, fixtures.DualTopology)
	inv := NewInventory(rt, opae.NewFilter().WithAcceleratorObject(), 10*time.Millisecond, zaptest.NewLogger(t))

	inv.Start()
	defer inv.Stop()
	snapshots, _ := inv.Snapshots()
	require.Len(t, snapshots, 2)

	require.True(t, s.Remove(0x201))
	require.Eventually(t, func() bool {
		snapshots, _ := inv.Snapshots()
		return len(snapshots) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestInventory_ZeroIntervalDoesNotPoll(t *testing.T) {
	rt, s := newRuntime(t, fixtures.SingleTopology)
	inv := NewInventory(rt, opae.NewFilter(), 0, zaptest.NewLogger(t))

	inv.Start()
	calls := s.Calls(sim.OpEnumerate)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, s.Calls(sim.OpEnumerate))

	inv.Stop()
	inv.Stop()
}
