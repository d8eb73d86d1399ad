package opae

import (
	"fmt"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// PlatformName identifies this platform among FPGA runtimes.
const PlatformName = "OPAE"

// Platform is one selected accelerator together with the device hosting
// it, when that device can be found.
type Platform struct {
	accelerator *Accelerator
	device      *Device
}

// Discover selects the first accelerator in the system.
func (rt *Runtime) Discover() (*Platform, error) {
	return rt.Open(NewFilter().WithAcceleratorObject())
}

// Open selects the first accelerator matching f. A filter without an object
// type is narrowed to accelerators; a filter selecting devices is rejected
// without calling into the driver.
func (rt *Runtime) Open(f Filter) (*Platform, error) {
	if f.ObjectType == nil {
		return rt.Open(f.WithAcceleratorObject())
	}
	if *f.ObjectType != driver.AcceleratorObject {
		return nil, fmt.Errorf("platform filter must select accelerators, got %s: %w",
			*f.ObjectType, rt.check(driver.InvalidParam))
	}

	r, err := rt.First(f)
	if err != nil {
		return nil, err
	}
	acc, ok := r.(*Accelerator)
	if !ok {
		_ = r.Close()
		return nil, &ClassificationError{ObjectType: r.ObjectType()}
	}

	p := &Platform{accelerator: acc}
	if dev, ok := acc.Device(); ok {
		p.device = dev
	}
	rt.log.Info("Opened platform",
		zap.String("platform", PlatformName),
		zap.Stringer("accelerator", p.AcceleratorInfo()),
		zap.Bool("has_device", p.device != nil))
	return p, nil
}

// Name returns PlatformName.
func (p *Platform) Name() string {
	return PlatformName
}

func (p *Platform) Accelerator() *Accelerator {
	return p.accelerator
}

// Device returns the device hosting the accelerator, if it was found.
func (p *Platform) Device() (*Device, bool) {
	return p.device, p.device != nil
}

func (p *Platform) AcceleratorInfo() AcceleratorInfo {
	return p.accelerator.Info()
}

func (p *Platform) DeviceInfo() (DeviceInfo, bool) {
	if p.device == nil {
		return DeviceInfo{}, false
	}
	return p.device.Info(), true
}

func (p *Platform) String() string {
	var w fieldWriter
	w.begin(PlatformName)
	if info, ok := p.DeviceInfo(); ok {
		w.field("device", info.String())
	}
	w.field("accelerator", p.AcceleratorInfo().String())
	return w.end()
}

// Close releases the accelerator and the device.
func (p *Platform) Close() error {
	var err error
	if p.device != nil {
		err = multierr.Append(err, p.device.Close())
	}
	return multierr.Append(err, p.accelerator.Close())
}
