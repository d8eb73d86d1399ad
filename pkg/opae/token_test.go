package opae

import (
	"errors"
	"testing"

	"github.com/fxnlabs/fpga/fixtures"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/fxnlabs/fpga/pkg/opae/driver/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func firstAccelerator(t *testing.T, rt *Runtime) *Accelerator {
	t.Helper()
	r, err := rt.First(NewFilter().WithAcceleratorObject())
	require.NoError(t, err)
	acc, ok := AsAccelerator(r)
	require.True(t, ok)
	return acc
}

func TestToken_Clone(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.SingleTopology)
	acc := firstAccelerator(t, rt)

	clone, err := acc.Token().Clone()
	require.NoError(t, err)
	assert.NotEqual(t, acc.Token().Raw(), clone.Raw())

	// Releasing the original leaves the clone usable.
	require.NoError(t, acc.Close())
	r, err := rt.ResourceFromToken(clone)
	require.NoError(t, err)
	id, err := r.(*Accelerator).ObjectID()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xf500001), id)

	require.NoError(t, r.Close())
	requireNoLeaks(t, s)
}

func TestToken_CloneReleased(t *testing.T) {
	rt, _ := newSimRuntime(t, fixtures.SingleTopology)
	acc := firstAccelerator(t, rt)
	tok := acc.Token()
	require.NoError(t, acc.Close())

	_, err := tok.Clone()
	assert.ErrorIs(t, err, ErrInvalidParam)
	assert.Panics(t, func() { tok.MustClone() })
}

func TestToken_MustClone(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.SingleTopology)
	acc := firstAccelerator(t, rt)
	defer acc.Close()

	c := acc.Token().MustClone()
	require.NoError(t, c.Close())

	s.FailOperation(sim.OpCloneToken, driver.NoMemory)
	assert.PanicsWithValue(t, "opae: clone token: no memory", func() {
		acc.Token().MustClone()
	})
}

func TestToken_CloseOnce(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.SingleTopology)
	acc := firstAccelerator(t, rt)
	before := s.Calls(sim.OpDestroyToken)

	require.NoError(t, acc.Token().Close())
	require.NoError(t, acc.Token().Close())
	require.NoError(t, acc.Close())
	assert.Equal(t, before+1, s.Calls(sim.OpDestroyToken))
	requireNoLeaks(t, s)

	var nilToken *Token
	assert.NoError(t, nilToken.Close())
}

func TestToken_CloseFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rt, s := newSimRuntime(t, fixtures.SingleTopology, WithLogger(zap.New(core)))
	acc := firstAccelerator(t, rt)

	s.FailOperation(sim.OpDestroyToken, driver.Exception)
	err := acc.Close()
	require.Error(t, err)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, driver.Exception, e.Result)

	failures := logs.FilterMessage("Failed to destroy token").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zap.ErrorLevel, failures[0].Level)

	// Released even though the driver failed: no second attempt.
	s.FailOperation(sim.OpDestroyToken, driver.OK)
	before := s.Calls(sim.OpDestroyToken)
	assert.NoError(t, acc.Token().Close())
	assert.Equal(t, before, s.Calls(sim.OpDestroyToken))
}

func TestProperties_Clone(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.EmptyTopology)
	p, err := rt.PropertiesFromFilter(NewFilter().WithDeviceObject().WithModel("PAC"))
	require.NoError(t, err)

	c, err := p.Clone()
	require.NoError(t, err)
	assert.NotEqual(t, p.Raw(), c.Raw())

	require.NoError(t, p.Close())
	assertRead(t, "PAC", c.Model)
	assertRead(t, driver.DeviceObject, c.ObjectType)

	_, err = p.Model()
	assert.ErrorIs(t, err, ErrInvalidParam)
	_, err = p.Clone()
	assert.ErrorIs(t, err, ErrInvalidParam)
	assert.Zero(t, p.MatchCount())

	require.NoError(t, c.Close())
	requireNoLeaks(t, s)
}

func TestProperties_CloneFails(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.EmptyTopology)
	p, err := rt.PropertiesFromFilter(NewFilter())
	require.NoError(t, err)
	defer p.Close()

	s.FailOperation(sim.OpCloneProperties, driver.NoMemory)
	_, err = p.Clone()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clone properties")
}

func TestPropertiesFromToken_Released(t *testing.T) {
	rt, _ := newSimRuntime(t, fixtures.SingleTopology)
	acc := firstAccelerator(t, rt)
	tok := acc.Token()
	require.NoError(t, acc.Close())

	_, err := rt.PropertiesFromToken(tok)
	assert.ErrorIs(t, err, ErrInvalidParam)
}
