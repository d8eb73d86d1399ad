package opae

import (
	"fmt"
	"strconv"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/google/uuid"
)

// ResourceInfo is a best effort snapshot of the attributes shared by devices
// and accelerators. A nil field could not be read.
type ResourceInfo struct {
	Segment  *uint16    `json:"segment,omitempty" yaml:"segment,omitempty" cbor:"segment,omitempty"`
	Bus      *uint8     `json:"bus,omitempty" yaml:"bus,omitempty" cbor:"bus,omitempty"`
	Device   *uint8     `json:"device,omitempty" yaml:"device,omitempty" cbor:"device,omitempty"`
	Function *uint8     `json:"function,omitempty" yaml:"function,omitempty" cbor:"function,omitempty"`
	SocketID *uint8     `json:"socketId,omitempty" yaml:"socketId,omitempty" cbor:"socketId,omitempty"`
	VendorID *uint16    `json:"vendorId,omitempty" yaml:"vendorId,omitempty" cbor:"vendorId,omitempty"`
	DeviceID *uint16    `json:"deviceId,omitempty" yaml:"deviceId,omitempty" cbor:"deviceId,omitempty"`
	GUID     *uuid.UUID `json:"guid,omitempty" yaml:"guid,omitempty" cbor:"guid,omitempty"`
	ObjectID *uint64    `json:"objectId,omitempty" yaml:"objectId,omitempty" cbor:"objectId,omitempty"`
}

// DeviceInfo is a best effort snapshot of a Device.
type DeviceInfo struct {
	ResourceInfo `yaml:",inline"`

	BBSID           *uint64         `json:"bbsId,omitempty" yaml:"bbsId,omitempty" cbor:"bbsId,omitempty"`
	BBSVersion      *driver.Version `json:"bbsVersion,omitempty" yaml:"bbsVersion,omitempty" cbor:"bbsVersion,omitempty"`
	Capabilities    *uint64         `json:"capabilities,omitempty" yaml:"capabilities,omitempty" cbor:"capabilities,omitempty"`
	LocalMemorySize *uint64         `json:"localMemorySize,omitempty" yaml:"localMemorySize,omitempty" cbor:"localMemorySize,omitempty"`
	Model           *string         `json:"model,omitempty" yaml:"model,omitempty" cbor:"model,omitempty"`
	NumSlots        *uint32         `json:"numSlots,omitempty" yaml:"numSlots,omitempty" cbor:"numSlots,omitempty"`
}

// AcceleratorInfo is a best effort snapshot of an Accelerator.
type AcceleratorInfo struct {
	ResourceInfo `yaml:",inline"`

	Assigned      *bool   `json:"assigned,omitempty" yaml:"assigned,omitempty" cbor:"assigned,omitempty"`
	NumErrors     *uint32 `json:"numErrors,omitempty" yaml:"numErrors,omitempty" cbor:"numErrors,omitempty"`
	NumInterrupts *uint32 `json:"numInterrupts,omitempty" yaml:"numInterrupts,omitempty" cbor:"numInterrupts,omitempty"`
	NumMMIO       *uint32 `json:"numMmio,omitempty" yaml:"numMmio,omitempty" cbor:"numMmio,omitempty"`
}

// Snapshot is the info of one resource tagged with its kind.
type Snapshot struct {
	Kind        driver.ObjectType `json:"kind" yaml:"kind" cbor:"kind"`
	Device      *DeviceInfo       `json:"device,omitempty" yaml:"device,omitempty" cbor:"device,omitempty"`
	Accelerator *AcceleratorInfo  `json:"accelerator,omitempty" yaml:"accelerator,omitempty" cbor:"accelerator,omitempty"`
}

// SnapshotOf reads the info of r.
func SnapshotOf(r Resource) Snapshot {
	s := Snapshot{Kind: r.ObjectType()}
	switch v := r.(type) {
	case *Device:
		info := v.Info()
		s.Device = &info
	case *Accelerator:
		info := v.Info()
		s.Accelerator = &info
	}
	return s
}

// BDF formats the PCI address as segment:bus:device.function, using "?"
// for parts that could not be read.
func (i ResourceInfo) BDF() string {
	part := func(v *uint64, width int) string {
		if v == nil {
			return "?"
		}
		return fmt.Sprintf("%0*x", width, *v)
	}
	return fmt.Sprintf("%s:%s:%s.%s",
		part(widen(i.Segment), 4), part(widen(i.Bus), 2),
		part(widen(i.Device), 2), part(widen(i.Function), 1))
}

func (i ResourceInfo) write(w *fieldWriter) {
	w.hex("segment", widen(i.Segment))
	w.hex("bus", widen(i.Bus))
	w.hex("device", widen(i.Device))
	w.hex("function", widen(i.Function))
	w.dec("socket_id", widen(i.SocketID))
	w.hex("vendor_id", widen(i.VendorID))
	w.hex("device_id", widen(i.DeviceID))
	if i.GUID != nil {
		w.field("guid", i.GUID.String())
	}
	w.hex("object_id", i.ObjectID)
}

func (i ResourceInfo) String() string {
	var w fieldWriter
	w.begin("ResourceInfo")
	i.write(&w)
	return w.end()
}

func (i DeviceInfo) String() string {
	var w fieldWriter
	w.begin("DeviceInfo")
	i.ResourceInfo.write(&w)
	w.hex("bbs_id", i.BBSID)
	if i.BBSVersion != nil {
		w.field("bbs_version", versionString(*i.BBSVersion))
	}
	w.hex("capabilities", i.Capabilities)
	w.dec("local_memory_size", i.LocalMemorySize)
	if i.Model != nil {
		w.field("model", strconv.Quote(*i.Model))
	}
	w.dec("num_slots", widen(i.NumSlots))
	return w.end()
}

func (i AcceleratorInfo) String() string {
	var w fieldWriter
	w.begin("AcceleratorInfo")
	i.ResourceInfo.write(&w)
	if i.Assigned != nil {
		w.field("assigned", strconv.FormatBool(*i.Assigned))
	}
	w.dec("num_errors", widen(i.NumErrors))
	w.dec("num_interrupts", widen(i.NumInterrupts))
	w.dec("num_mmio", widen(i.NumMMIO))
	return w.end()
}

func (s Snapshot) String() string {
	switch {
	case s.Device != nil:
		return s.Device.String()
	case s.Accelerator != nil:
		return s.Accelerator.String()
	}
	return s.Kind.String()
}
