package opae

import (
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"go.uber.org/zap"
)

// Accelerator is an accelerator function unit hosted by a Device.
type Accelerator struct {
	resource
}

func (a *Accelerator) ObjectType() driver.ObjectType {
	return driver.AcceleratorObject
}

// IsAssigned reports whether a process has the accelerator open.
func (a *Accelerator) IsAssigned() (bool, error) {
	state, err := a.props.AcceleratorState()
	if err != nil {
		return false, err
	}
	return state == driver.AcceleratorAssigned, nil
}

func (a *Accelerator) IsUnassigned() (bool, error) {
	assigned, err := a.IsAssigned()
	if err != nil {
		return false, err
	}
	return !assigned, nil
}

// NumErrors returns the number of error registers.
func (a *Accelerator) NumErrors() (uint32, error) {
	return a.props.NumErrors()
}

func (a *Accelerator) NumInterrupts() (uint32, error) {
	return a.props.NumInterrupts()
}

// NumMMIO returns the number of MMIO spaces.
func (a *Accelerator) NumMMIO() (uint32, error) {
	return a.props.NumMMIO()
}

// Device looks up the device hosting a: the first device with the same PCI
// device id. It returns false when the id cannot be read or no device
// matches. The caller owns the returned device.
func (a *Accelerator) Device() (*Device, bool) {
	rt := a.token.rt
	id, err := a.DeviceID()
	if err != nil {
		rt.log.Debug("Cannot read accelerator device id", zap.Error(err))
		return nil, false
	}
	r, err := rt.First(NewFilter().WithDeviceObject().WithDeviceID(id))
	if err != nil {
		rt.log.Debug("No device found for accelerator", zap.Uint16("device_id", id), zap.Error(err))
		return nil, false
	}
	d, ok := r.(*Device)
	if !ok {
		_ = r.Close()
		return nil, false
	}
	return d, true
}

// Info reads every attribute of a, leaving out the ones that fail.
func (a *Accelerator) Info() AcceleratorInfo {
	return AcceleratorInfo{
		ResourceInfo:  a.info(),
		Assigned:      keep(a.IsAssigned()),
		NumErrors:     keep(a.NumErrors()),
		NumInterrupts: keep(a.NumInterrupts()),
		NumMMIO:       keep(a.NumMMIO()),
	}
}
