package opae

import (
	"fmt"
	"strings"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/google/uuid"
)

// Filter describes the resources a query should match. Every field is
// optional; a nil field places no constraint. Builder methods return a
// modified copy and never write through an existing pointer, so copies of a
// Filter are independent.
type Filter struct {
	AcceleratorState *driver.AcceleratorState
	BBSID            *uint64
	BBSVersion       *driver.Version
	Capabilities     *uint64
	DeviceID         *uint16
	GUID             *uuid.UUID
	LocalMemorySize  *uint64
	Model            *string
	NumErrors        *uint32
	NumInterrupts    *uint32
	NumMMIO          *uint32
	NumSlots         *uint32
	ObjectType       *driver.ObjectType
	ObjectID         *uint64
	Bus              *uint8
	Device           *uint8
	Function         *uint8
	Segment          *uint16
	SocketID         *uint8
	VendorID         *uint16
}

// NewFilter returns a filter matching every resource.
func NewFilter() Filter {
	return Filter{}
}

func ptr[T any](v T) *T {
	return &v
}

func (f Filter) WithAcceleratorAssigned() Filter {
	f.AcceleratorState = ptr(driver.AcceleratorAssigned)
	return f
}

func (f Filter) WithAcceleratorUnassigned() Filter {
	f.AcceleratorState = ptr(driver.AcceleratorUnassigned)
	return f
}

func (f Filter) WithBBSID(id uint64) Filter {
	f.BBSID = ptr(id)
	return f
}

func (f Filter) WithBBSVersion(major, minor uint8, patch uint16) Filter {
	f.BBSVersion = &driver.Version{Major: major, Minor: minor, Patch: patch}
	return f
}

func (f Filter) WithCapabilities(capabilities uint64) Filter {
	f.Capabilities = ptr(capabilities)
	return f
}

// WithDeviceID matches the PCI device id.
func (f Filter) WithDeviceID(id uint16) Filter {
	f.DeviceID = ptr(id)
	return f
}

func (f Filter) WithGUID(id uuid.UUID) Filter {
	f.GUID = ptr(id)
	return f
}

func (f Filter) WithLocalMemorySize(size uint64) Filter {
	f.LocalMemorySize = ptr(size)
	return f
}

func (f Filter) WithModel(model string) Filter {
	f.Model = ptr(model)
	return f
}

func (f Filter) WithNumErrors(n uint32) Filter {
	f.NumErrors = ptr(n)
	return f
}

func (f Filter) WithNumInterrupts(n uint32) Filter {
	f.NumInterrupts = ptr(n)
	return f
}

func (f Filter) WithNumMMIO(n uint32) Filter {
	f.NumMMIO = ptr(n)
	return f
}

func (f Filter) WithNumSlots(n uint32) Filter {
	f.NumSlots = ptr(n)
	return f
}

// WithAcceleratorObject restricts the query to accelerators.
func (f Filter) WithAcceleratorObject() Filter {
	f.ObjectType = ptr(driver.AcceleratorObject)
	return f
}

// WithDeviceObject restricts the query to devices.
func (f Filter) WithDeviceObject() Filter {
	f.ObjectType = ptr(driver.DeviceObject)
	return f
}

func (f Filter) WithObjectID(id uint64) Filter {
	f.ObjectID = ptr(id)
	return f
}

func (f Filter) WithBus(bus uint8) Filter {
	f.Bus = ptr(bus)
	return f
}

// WithDevice matches the PCI device number.
func (f Filter) WithDevice(device uint8) Filter {
	f.Device = ptr(device)
	return f
}

func (f Filter) WithFunction(function uint8) Filter {
	f.Function = ptr(function)
	return f
}

func (f Filter) WithSegment(segment uint16) Filter {
	f.Segment = ptr(segment)
	return f
}

func (f Filter) WithSocketID(id uint8) Filter {
	f.SocketID = ptr(id)
	return f
}

func (f Filter) WithVendorID(id uint16) Filter {
	f.VendorID = ptr(id)
	return f
}

// apply sets every present attribute of f on p, object type first.
func (f Filter) apply(p *Properties) error {
	if f.ObjectType != nil {
		if err := p.setUint(driver.FieldObjectType, uint64(*f.ObjectType)); err != nil {
			return err
		}
	}

	uints := []struct {
		field driver.Field
		value *uint64
	}{
		{driver.FieldBus, widen(f.Bus)},
		{driver.FieldDevice, widen(f.Device)},
		{driver.FieldFunction, widen(f.Function)},
		{driver.FieldSegment, widen(f.Segment)},
		{driver.FieldSocketID, widen(f.SocketID)},
		{driver.FieldVendorID, widen(f.VendorID)},
		{driver.FieldDeviceID, widen(f.DeviceID)},
		{driver.FieldObjectID, f.ObjectID},
		{driver.FieldBBSID, f.BBSID},
		{driver.FieldCapabilities, f.Capabilities},
		{driver.FieldLocalMemorySize, f.LocalMemorySize},
		{driver.FieldNumSlots, widen(f.NumSlots)},
		{driver.FieldAcceleratorState, widen(f.AcceleratorState)},
		{driver.FieldNumErrors, widen(f.NumErrors)},
		{driver.FieldNumInterrupts, widen(f.NumInterrupts)},
		{driver.FieldNumMMIO, widen(f.NumMMIO)},
	}
	for _, u := range uints {
		if u.value == nil {
			continue
		}
		if err := p.setUint(u.field, *u.value); err != nil {
			return err
		}
	}

	if f.GUID != nil {
		if err := p.setGUID(*f.GUID); err != nil {
			return err
		}
	}
	if f.Model != nil {
		if err := p.setModel(*f.Model); err != nil {
			return err
		}
	}
	if f.BBSVersion != nil {
		if err := p.setBBSVersion(*f.BBSVersion); err != nil {
			return err
		}
	}
	return nil
}

func widen[T unsigned](v *T) *uint64 {
	if v == nil {
		return nil
	}
	w := uint64(*v)
	return &w
}

// String lists the attributes that are set, e.g.
// "Filter{objtype: accelerator, vendor_id: 0x8086}".
func (f Filter) String() string {
	var b fieldWriter
	b.begin("Filter")
	if f.ObjectType != nil {
		b.field("objtype", f.ObjectType.String())
	}
	if f.AcceleratorState != nil {
		b.field("accelerator_state", f.AcceleratorState.String())
	}
	b.hex("segment", widen(f.Segment))
	b.hex("bus", widen(f.Bus))
	b.hex("device", widen(f.Device))
	b.hex("function", widen(f.Function))
	b.dec("socket_id", widen(f.SocketID))
	b.hex("vendor_id", widen(f.VendorID))
	b.hex("device_id", widen(f.DeviceID))
	if f.GUID != nil {
		b.field("guid", f.GUID.String())
	}
	b.hex("object_id", f.ObjectID)
	b.hex("bbs_id", f.BBSID)
	if f.BBSVersion != nil {
		b.field("bbs_version", versionString(*f.BBSVersion))
	}
	b.hex("capabilities", f.Capabilities)
	b.dec("local_memory_size", f.LocalMemorySize)
	if f.Model != nil {
		b.field("model", fmt.Sprintf("%q", *f.Model))
	}
	b.dec("num_slots", widen(f.NumSlots))
	b.dec("num_errors", widen(f.NumErrors))
	b.dec("num_interrupts", widen(f.NumInterrupts))
	b.dec("num_mmio", widen(f.NumMMIO))
	return b.end()
}

func versionString(v driver.Version) string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// fieldWriter renders "Name{key: value, ...}" skipping absent values.
type fieldWriter struct {
	sb strings.Builder
	n  int
}

func (w *fieldWriter) begin(name string) {
	w.sb.WriteString(name)
	w.sb.WriteByte('{')
}

func (w *fieldWriter) field(key, value string) {
	if w.n > 0 {
		w.sb.WriteString(", ")
	}
	w.n++
	w.sb.WriteString(key)
	w.sb.WriteString(": ")
	w.sb.WriteString(value)
}

func (w *fieldWriter) hex(key string, v *uint64) {
	if v != nil {
		w.field(key, fmt.Sprintf("%#x", *v))
	}
}

func (w *fieldWriter) dec(key string, v *uint64) {
	if v != nil {
		w.field(key, fmt.Sprintf("%d", *v))
	}
}

func (w *fieldWriter) end() string {
	w.sb.WriteByte('}')
	return w.sb.String()
}
