package driver

import (
	"fmt"
	"strings"
)

// ObjectType is the kind of resource a token or property object describes.
type ObjectType uint32

const (
	DeviceObject ObjectType = iota
	AcceleratorObject
)

func (t ObjectType) String() string {
	switch t {
	case DeviceObject:
		return "device"
	case AcceleratorObject:
		return "accelerator"
	}
	return fmt.Sprintf("objtype(%d)", uint32(t))
}

// MarshalText encodes the object type by name.
func (t ObjectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (t *ObjectType) UnmarshalText(text []byte) error {
	v, err := ParseObjectType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseObjectType parses "device" or "accelerator".
func ParseObjectType(s string) (ObjectType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "device", "fpga_device":
		return DeviceObject, nil
	case "accelerator", "fpga_accelerator":
		return AcceleratorObject, nil
	}
	return 0, fmt.Errorf("unknown object type %q", s)
}

// AcceleratorState tells whether an accelerator is opened exclusively by a
// process.
type AcceleratorState uint32

const (
	AcceleratorAssigned AcceleratorState = iota
	AcceleratorUnassigned
)

func (s AcceleratorState) String() string {
	switch s {
	case AcceleratorAssigned:
		return "assigned"
	case AcceleratorUnassigned:
		return "unassigned"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// ParseAcceleratorState parses "assigned" or "unassigned".
func ParseAcceleratorState(s string) (AcceleratorState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assigned":
		return AcceleratorAssigned, nil
	case "unassigned":
		return AcceleratorUnassigned, nil
	}
	return 0, fmt.Errorf("unknown accelerator state %q", s)
}

// Field identifies one attribute of a property object.
type Field int

const (
	FieldObjectType Field = iota
	FieldSegment
	FieldBus
	FieldDevice
	FieldFunction
	FieldSocketID
	FieldVendorID
	FieldDeviceID
	FieldGUID
	FieldObjectID
	FieldBBSID
	FieldBBSVersion
	FieldCapabilities
	FieldLocalMemorySize
	FieldModel
	FieldNumSlots
	FieldAcceleratorState
	FieldNumErrors
	FieldNumInterrupts
	FieldNumMMIO

	numFields
)

// Kind is the value type stored in a field.
type Kind int

const (
	KindUint Kind = iota
	KindGUID
	KindString
	KindVersion
)

// Scope restricts a field to one object type.
type Scope int

const (
	ScopeCommon Scope = iota
	ScopeDevice
	ScopeAccelerator
)

type fieldInfo struct {
	name  string
	kind  Kind
	bits  int
	scope Scope
}

var fields = [numFields]fieldInfo{
	FieldObjectType:       {"objtype", KindUint, 32, ScopeCommon},
	FieldSegment:          {"segment", KindUint, 16, ScopeCommon},
	FieldBus:              {"bus", KindUint, 8, ScopeCommon},
	FieldDevice:           {"device", KindUint, 8, ScopeCommon},
	FieldFunction:         {"function", KindUint, 8, ScopeCommon},
	FieldSocketID:         {"socket_id", KindUint, 8, ScopeCommon},
	FieldVendorID:         {"vendor_id", KindUint, 16, ScopeCommon},
	FieldDeviceID:         {"device_id", KindUint, 16, ScopeCommon},
	FieldGUID:             {"guid", KindGUID, 128, ScopeCommon},
	FieldObjectID:         {"object_id", KindUint, 64, ScopeCommon},
	FieldBBSID:            {"bbs_id", KindUint, 64, ScopeDevice},
	FieldBBSVersion:       {"bbs_version", KindVersion, 32, ScopeDevice},
	FieldCapabilities:     {"capabilities", KindUint, 64, ScopeDevice},
	FieldLocalMemorySize:  {"local_memory_size", KindUint, 64, ScopeDevice},
	FieldModel:            {"model", KindString, 0, ScopeDevice},
	FieldNumSlots:         {"num_slots", KindUint, 32, ScopeDevice},
	FieldAcceleratorState: {"accelerator_state", KindUint, 32, ScopeAccelerator},
	FieldNumErrors:        {"num_errors", KindUint, 32, ScopeAccelerator},
	FieldNumInterrupts:    {"num_interrupts", KindUint, 32, ScopeAccelerator},
	FieldNumMMIO:          {"num_mmio", KindUint, 32, ScopeAccelerator},
}

// Fields returns every known field in declaration order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Valid reports whether f names a known field.
func (f Field) Valid() bool {
	return f >= 0 && f < numFields
}

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fields[f].name
}

// Kind returns the value type of f.
func (f Field) Kind() Kind {
	return fields[f].kind
}

// Scope returns the object type f is restricted to, if any.
func (f Field) Scope() Scope {
	return fields[f].scope
}

// Bits returns the storage width of an integer field.
func (f Field) Bits() int {
	return fields[f].bits
}

// Fits reports whether v can be stored in the integer field f.
func (f Field) Fits(v uint64) bool {
	if !f.Valid() || f.Kind() != KindUint {
		return false
	}
	bits := f.Bits()
	return bits >= 64 || v>>uint(bits) == 0
}

// Allowed reports whether f may be read or written on an object of type t.
func (f Field) Allowed(t ObjectType) bool {
	switch f.Scope() {
	case ScopeDevice:
		return t == DeviceObject
	case ScopeAccelerator:
		return t == AcceleratorObject
	}
	return true
}
