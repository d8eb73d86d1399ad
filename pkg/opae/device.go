package opae

import (
	"github.com/fxnlabs/fpga/pkg/opae/driver"
)

// Device is an FPGA device: the physical card and its FPGA interface
// manager.
type Device struct {
	resource
}

func (d *Device) ObjectType() driver.ObjectType {
	return driver.DeviceObject
}

// BBSID returns the id of the blue bitstream (FPGA interface manager).
func (d *Device) BBSID() (uint64, error) {
	return d.props.BBSID()
}

func (d *Device) BBSVersion() (driver.Version, error) {
	return d.props.BBSVersion()
}

func (d *Device) Capabilities() (uint64, error) {
	return d.props.Capabilities()
}

func (d *Device) LocalMemorySize() (uint64, error) {
	return d.props.LocalMemorySize()
}

func (d *Device) Model() (string, error) {
	return d.props.Model()
}

// NumSlots returns the number of accelerator slots on the device.
func (d *Device) NumSlots() (uint32, error) {
	return d.props.NumSlots()
}

// Info reads every attribute of d, leaving out the ones that fail.
func (d *Device) Info() DeviceInfo {
	return DeviceInfo{
		ResourceInfo:    d.info(),
		BBSID:           keep(d.BBSID()),
		BBSVersion:      keep(d.BBSVersion()),
		Capabilities:    keep(d.Capabilities()),
		LocalMemorySize: keep(d.LocalMemorySize()),
		Model:           keep(d.Model()),
		NumSlots:        keep(d.NumSlots()),
	}
}
