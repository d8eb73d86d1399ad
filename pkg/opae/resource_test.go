package opae

import (
	"errors"
	"testing"

	"github.com/fxnlabs/fpga/fixtures"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestResourceFromToken_UnknownKind(t *testing.T) {
	m := &mockDriver{}
	rt := NewRuntime(m, WithLogger(zaptest.NewLogger(t)))

	m.On("GetProperties", driver.Token(5)).Return(driver.Properties(9), driver.OK).Once()
	m.On("GetUint", driver.Properties(9), driver.FieldObjectType).Return(uint64(7), driver.OK).Once()
	m.On("DestroyProperties", driver.Properties(9)).Return(driver.OK).Once()
	m.On("DestroyToken", driver.Token(5)).Return(driver.OK).Once()

	tok := rt.adoptToken(5)
	_, err := rt.ResourceFromToken(tok)

	var ce *ClassificationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, driver.ObjectType(7), ce.ObjectType)
	assert.Equal(t, "cannot classify resource with object type 7", err.Error())

	// The caller still owns the token.
	require.NoError(t, tok.Close())
	m.AssertExpectations(t)
}

func TestResourceFromToken_KindReadFails(t *testing.T) {
	m := &mockDriver{}
	rt := NewRuntime(m, WithLogger(zaptest.NewLogger(t)))

	m.On("GetProperties", driver.Token(5)).Return(driver.Properties(9), driver.OK).Once()
	m.On("GetUint", driver.Properties(9), driver.FieldObjectType).Return(uint64(0), driver.Exception).Once()
	m.On("DestroyProperties", driver.Properties(9)).Return(driver.OK).Once()

	_, err := rt.ResourceFromToken(rt.adoptToken(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify resource: get objtype: exception")
	m.AssertExpectations(t)
}

func TestDevice_Info(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.SingleTopology)

	r, err := rt.First(NewFilter().WithDeviceObject())
	require.NoError(t, err)
	d, ok := AsDevice(r)
	require.True(t, ok)
	defer d.Close()

	info := d.Info()
	require.NotNil(t, info.Model)
	assert.Equal(t, "Intel PAC N3000", *info.Model)
	require.NotNil(t, info.BBSVersion)
	assert.Equal(t, driver.Version{Major: 1, Minor: 1, Patch: 3}, *info.BBSVersion)
	require.NotNil(t, info.NumSlots)
	assert.Equal(t, uint32(1), *info.NumSlots)
	require.NotNil(t, info.VendorID)
	assert.Equal(t, uint16(0x8086), *info.VendorID)
	assert.Equal(t, "0000:5e:00.0", info.BDF())

	// A failing read only blanks its own field.
	s.FailField(driver.FieldModel, driver.Exception)
	s.FailField(driver.FieldBus, driver.NotSupported)
	info = d.Info()
	assert.Nil(t, info.Model)
	assert.Nil(t, info.Bus)
	assert.NotNil(t, info.BBSID)
	assert.NotNil(t, info.GUID)
	assert.Equal(t, "0000:?:00.0", info.BDF())
	assert.NotContains(t, info.String(), "model")
}

func TestAccelerator_Info(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.SingleTopology)
	acc := firstAccelerator(t, rt)
	defer acc.Close()

	info := acc.Info()
	require.NotNil(t, info.GUID)
	assert.Equal(t, uuid.MustParse("d8424dc4-a4a3-c413-f89e-433683f9040b"), *info.GUID)
	require.NotNil(t, info.Assigned)
	assert.False(t, *info.Assigned)
	require.NotNil(t, info.NumErrors)
	assert.Equal(t, uint32(2), *info.NumErrors)
	assert.Equal(t,
		"AcceleratorInfo{segment: 0x0, bus: 0x5e, device: 0x0, function: 0x0, socket_id: 0, "+
			"vendor_id: 0x8086, device_id: 0xb30, guid: d8424dc4-a4a3-c413-f89e-433683f9040b, "+
			"object_id: 0xf500001, assigned: false, num_errors: 2, num_interrupts: 4, num_mmio: 2}",
		info.String())

	unassigned, err := acc.IsUnassigned()
	require.NoError(t, err)
	assert.True(t, unassigned)

	s.FailField(driver.FieldAcceleratorState, driver.Exception)
	info = acc.Info()
	assert.Nil(t, info.Assigned)
	assert.NotNil(t, info.NumMMIO)
	_, err = acc.IsAssigned()
	assert.Error(t, err)
	_, err = acc.IsUnassigned()
	assert.Error(t, err)
}

func TestAccelerator_Device(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.DualTopology)

	acc, err := rt.First(NewFilter().WithAcceleratorObject().WithAcceleratorUnassigned())
	require.NoError(t, err)
	defer acc.Close()

	d, ok := acc.(*Accelerator).Device()
	require.True(t, ok)
	assertRead(t, uint64(0x200), d.ObjectID)
	require.NoError(t, d.Close())

	s.FailField(driver.FieldDeviceID, driver.Exception)
	_, ok = acc.(*Accelerator).Device()
	assert.False(t, ok)
}

func TestAccelerator_DeviceMissing(t *testing.T) {
	rt, s := newSimRuntime(t, fixtures.SingleTopology)
	acc := firstAccelerator(t, rt)
	defer acc.Close()

	require.True(t, s.Remove(0xf500000))
	_, ok := acc.Device()
	assert.False(t, ok)
}

func TestSnapshotOf(t *testing.T) {
	rt, _ := newSimRuntime(t, fixtures.SingleTopology)
	resources, err := rt.Collect(NewFilter())
	require.NoError(t, err)
	defer closeAll(t, resources)
	require.Len(t, resources, 2)

	dev := SnapshotOf(resources[0])
	assert.Equal(t, driver.DeviceObject, dev.Kind)
	assert.NotNil(t, dev.Device)
	assert.Nil(t, dev.Accelerator)

	acc := SnapshotOf(resources[1])
	assert.Equal(t, driver.AcceleratorObject, acc.Kind)
	assert.Nil(t, acc.Device)
	require.NotNil(t, acc.Accelerator)
	assert.Equal(t, uint64(0xf500001), *acc.Accelerator.ObjectID)
}

func TestResourceInfo_BDF(t *testing.T) {
	assert.Equal(t, "?:?:?.?", ResourceInfo{}.BDF())

	seg, bus, dev, fn := uint16(1), uint8(0xd8), uint8(0), uint8(1)
	info := ResourceInfo{Segment: &seg, Bus: &bus, Device: &dev, Function: &fn}
	assert.Equal(t, "0001:d8:00.1", info.BDF())
}
