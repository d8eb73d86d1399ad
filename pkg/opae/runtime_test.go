package opae

import (
	"testing"

	"github.com/fxnlabs/fpga/fixtures"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/fxnlabs/fpga/pkg/opae/driver/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRuntime_Initialize(t *testing.T) {
	top, err := sim.ParseTopology(fixtures.SingleTopology)
	require.NoError(t, err)
	s, err := sim.New(*top)
	require.NoError(t, err)

	rt := NewRuntime(s, WithLogger(zaptest.NewLogger(t)), WithObserver(nil), WithLogger(nil))
	assert.Same(t, s, rt.Driver())

	s.FailOperation(sim.OpInitialize, driver.NoDaemon)
	err = rt.Initialize("")
	require.Error(t, err)
	assert.Equal(t, "initialize driver: no fpga daemon running", err.Error())
	assert.False(t, s.Initialized())

	s.FailOperation(sim.OpInitialize, driver.OK)
	require.NoError(t, rt.Initialize("/etc/opae/opae.cfg"))
	assert.True(t, s.Initialized())
}

func TestError_Is(t *testing.T) {
	err := &Error{Result: driver.NotFound, Message: "no such thing"}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidParam)
	assert.Equal(t, "no such thing", err.Error())
}

func TestHandleKind_String(t *testing.T) {
	assert.Equal(t, "token", TokenHandle.String())
	assert.Equal(t, "properties", PropertiesHandle.String())
}
