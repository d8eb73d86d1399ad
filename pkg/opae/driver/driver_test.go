package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_String(t *testing.T) {
	assert.Equal(t, "success", OK.String())
	assert.Equal(t, "not found", NotFound.String())
	assert.Equal(t, "invalid parameter", InvalidParam.String())
	assert.Equal(t, "reconfiguration error", ReconfError.String())
	assert.Equal(t, "unknown result 42", Result(42).String())
	assert.True(t, OK.OK())
	assert.False(t, Busy.OK())
}

func TestField_Fits(t *testing.T) {
	testCases := []struct {
		field Field
		value uint64
		fits  bool
	}{
		{FieldBus, 0xff, true},
		{FieldBus, 0x100, false},
		{FieldVendorID, 0x8086, true},
		{FieldVendorID, 0x18086, false},
		{FieldNumMMIO, 1 << 32, false},
		{FieldObjectID, ^uint64(0), true},
		{FieldGUID, 1, false},
		{Field(99), 1, false},
	}

	for _, tc := range testCases {
		t.Run(tc.field.String(), func(t *testing.T) {
			assert.Equal(t, tc.fits, tc.field.Fits(tc.value))
		})
	}
}

func TestField_Allowed(t *testing.T) {
	assert.True(t, FieldGUID.Allowed(DeviceObject))
	assert.True(t, FieldGUID.Allowed(AcceleratorObject))
	assert.True(t, FieldBBSID.Allowed(DeviceObject))
	assert.False(t, FieldBBSID.Allowed(AcceleratorObject))
	assert.True(t, FieldNumMMIO.Allowed(AcceleratorObject))
	assert.False(t, FieldNumMMIO.Allowed(DeviceObject))
}

func TestFields(t *testing.T) {
	all := Fields()
	assert.Len(t, all, 20)
	for _, f := range all {
		assert.True(t, f.Valid())
		assert.NotContains(t, f.String(), "field(")
	}
}

func TestParseObjectType(t *testing.T) {
	v, err := ParseObjectType("Accelerator")
	require.NoError(t, err)
	assert.Equal(t, AcceleratorObject, v)

	v, err = ParseObjectType("device")
	require.NoError(t, err)
	assert.Equal(t, DeviceObject, v)

	_, err = ParseObjectType("gpu")
	assert.Error(t, err)

	var ot ObjectType
	require.NoError(t, ot.UnmarshalText([]byte("accelerator")))
	assert.Equal(t, AcceleratorObject, ot)
	text, err := ot.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "accelerator", string(text))
}

func TestParseAcceleratorState(t *testing.T) {
	s, err := ParseAcceleratorState("assigned")
	require.NoError(t, err)
	assert.Equal(t, AcceleratorAssigned, s)

	s, err = ParseAcceleratorState(" UNASSIGNED ")
	require.NoError(t, err)
	assert.Equal(t, AcceleratorUnassigned, s)

	_, err = ParseAcceleratorState("busy")
	assert.Error(t, err)
}
