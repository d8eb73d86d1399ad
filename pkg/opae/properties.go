package opae

import (
	"fmt"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Properties owns one native property object: either the attributes of a
// token, or the match criteria compiled from a Filter.
type Properties struct {
	rt       *Runtime
	raw      driver.Properties
	released bool
}

func (rt *Runtime) adoptProperties(raw driver.Properties) *Properties {
	rt.observer.HandleAcquired(PropertiesHandle)
	return &Properties{rt: rt, raw: raw}
}

// PropertiesFromToken reads the attributes of the resource t refers to.
func (rt *Runtime) PropertiesFromToken(t *Token) (*Properties, error) {
	if t.released {
		return nil, fmt.Errorf("get properties of released token: %w", rt.check(driver.InvalidParam))
	}
	raw, r := rt.drv.GetProperties(t.raw)
	if err := rt.check(r); err != nil {
		return nil, fmt.Errorf("get properties: %w", err)
	}
	return rt.adoptProperties(raw), nil
}

// PropertiesFromFilter compiles f into a fresh property object. The object
// type is applied before any other attribute so kind specific attributes are
// checked against it. The first attribute the driver rejects aborts the
// compilation.
func (rt *Runtime) PropertiesFromFilter(f Filter) (*Properties, error) {
	raw, r := rt.drv.GetProperties(0)
	if err := rt.check(r); err != nil {
		return nil, fmt.Errorf("allocate properties: %w", err)
	}
	p := rt.adoptProperties(raw)
	if err := f.apply(p); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Raw returns the native handle. It stays owned by p.
func (p *Properties) Raw() driver.Properties {
	return p.raw
}

// MatchCount probes how many resources currently match p. Any driver error
// yields zero; the result is only good for sizing a token buffer.
func (p *Properties) MatchCount() int {
	if p.released {
		return 0
	}
	n, r := p.rt.drv.Enumerate([]driver.Properties{p.raw}, nil)
	if r != driver.OK {
		p.rt.log.Debug("Match count probe failed", zap.Stringer("result", r))
		return 0
	}
	return int(n)
}

// Clone returns an independently owned copy of p.
func (p *Properties) Clone() (*Properties, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	raw, r := p.rt.drv.CloneProperties(p.raw)
	if err := p.rt.check(r); err != nil {
		return nil, fmt.Errorf("clone properties: %w", err)
	}
	return p.rt.adoptProperties(raw), nil
}

// Close destroys the native property object. Only the first call reaches
// the driver; a driver failure is logged and returned.
func (p *Properties) Close() error {
	if p == nil || p.released {
		return nil
	}
	p.released = true
	p.rt.observer.HandleReleased(PropertiesHandle)

	p.rt.log.Debug("Destroying properties", zap.Uintptr("properties", uintptr(p.raw)))
	if err := p.rt.check(p.rt.drv.DestroyProperties(p.raw)); err != nil {
		p.rt.log.Error("Failed to destroy properties", zap.Uintptr("properties", uintptr(p.raw)), zap.Error(err))
		return fmt.Errorf("destroy properties: %w", err)
	}
	return nil
}

func (p *Properties) usable() error {
	if p.released {
		return fmt.Errorf("use of released properties: %w", p.rt.check(driver.InvalidParam))
	}
	return nil
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func getUint[T unsigned](p *Properties, field driver.Field) (T, error) {
	if err := p.usable(); err != nil {
		return 0, err
	}
	v, r := p.rt.drv.GetUint(p.raw, field)
	if err := p.rt.check(r); err != nil {
		return 0, fmt.Errorf("get %s: %w", field, err)
	}
	return T(v), nil
}

func (p *Properties) setUint(field driver.Field, v uint64) error {
	if err := p.usable(); err != nil {
		return err
	}
	if err := p.rt.check(p.rt.drv.SetUint(p.raw, field, v)); err != nil {
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

func (p *Properties) setGUID(id uuid.UUID) error {
	if err := p.usable(); err != nil {
		return err
	}
	if err := p.rt.check(p.rt.drv.SetGUID(p.raw, driver.GUID(id))); err != nil {
		return fmt.Errorf("set %s: %w", driver.FieldGUID, err)
	}
	return nil
}

func (p *Properties) setModel(model string) error {
	if err := p.usable(); err != nil {
		return err
	}
	if err := p.rt.check(p.rt.drv.SetModel(p.raw, model)); err != nil {
		return fmt.Errorf("set %s: %w", driver.FieldModel, err)
	}
	return nil
}

func (p *Properties) setBBSVersion(v driver.Version) error {
	if err := p.usable(); err != nil {
		return err
	}
	if err := p.rt.check(p.rt.drv.SetBBSVersion(p.raw, v)); err != nil {
		return fmt.Errorf("set %s: %w", driver.FieldBBSVersion, err)
	}
	return nil
}

func (p *Properties) ObjectType() (driver.ObjectType, error) {
	return getUint[driver.ObjectType](p, driver.FieldObjectType)
}

func (p *Properties) Segment() (uint16, error) {
	return getUint[uint16](p, driver.FieldSegment)
}

func (p *Properties) Bus() (uint8, error) {
	return getUint[uint8](p, driver.FieldBus)
}

// Device returns the PCI device number.
func (p *Properties) Device() (uint8, error) {
	return getUint[uint8](p, driver.FieldDevice)
}

func (p *Properties) Function() (uint8, error) {
	return getUint[uint8](p, driver.FieldFunction)
}

func (p *Properties) SocketID() (uint8, error) {
	return getUint[uint8](p, driver.FieldSocketID)
}

func (p *Properties) VendorID() (uint16, error) {
	return getUint[uint16](p, driver.FieldVendorID)
}

// DeviceID returns the PCI device id.
func (p *Properties) DeviceID() (uint16, error) {
	return getUint[uint16](p, driver.FieldDeviceID)
}

func (p *Properties) GUID() (uuid.UUID, error) {
	if err := p.usable(); err != nil {
		return uuid.Nil, err
	}
	g, r := p.rt.drv.GetGUID(p.raw)
	if err := p.rt.check(r); err != nil {
		return uuid.Nil, fmt.Errorf("get %s: %w", driver.FieldGUID, err)
	}
	return uuid.UUID(g), nil
}

func (p *Properties) ObjectID() (uint64, error) {
	return getUint[uint64](p, driver.FieldObjectID)
}

func (p *Properties) BBSID() (uint64, error) {
	return getUint[uint64](p, driver.FieldBBSID)
}

func (p *Properties) BBSVersion() (driver.Version, error) {
	if err := p.usable(); err != nil {
		return driver.Version{}, err
	}
	v, r := p.rt.drv.GetBBSVersion(p.raw)
	if err := p.rt.check(r); err != nil {
		return driver.Version{}, fmt.Errorf("get %s: %w", driver.FieldBBSVersion, err)
	}
	return v, nil
}

func (p *Properties) Capabilities() (uint64, error) {
	return getUint[uint64](p, driver.FieldCapabilities)
}

func (p *Properties) LocalMemorySize() (uint64, error) {
	return getUint[uint64](p, driver.FieldLocalMemorySize)
}

func (p *Properties) Model() (string, error) {
	if err := p.usable(); err != nil {
		return "", err
	}
	m, r := p.rt.drv.GetModel(p.raw)
	if err := p.rt.check(r); err != nil {
		return "", fmt.Errorf("get %s: %w", driver.FieldModel, err)
	}
	return m, nil
}

func (p *Properties) NumSlots() (uint32, error) {
	return getUint[uint32](p, driver.FieldNumSlots)
}

func (p *Properties) AcceleratorState() (driver.AcceleratorState, error) {
	return getUint[driver.AcceleratorState](p, driver.FieldAcceleratorState)
}

func (p *Properties) NumErrors() (uint32, error) {
	return getUint[uint32](p, driver.FieldNumErrors)
}

func (p *Properties) NumInterrupts() (uint32, error) {
	return getUint[uint32](p, driver.FieldNumInterrupts)
}

func (p *Properties) NumMMIO() (uint32, error) {
	return getUint[uint32](p, driver.FieldNumMMIO)
}
