package opae

import (
	"fmt"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Resource is a classified enumeration result: a *Device or an
// *Accelerator. Its kind is fixed when it is created and always equals the
// object type recorded in its properties.
type Resource interface {
	ObjectType() driver.ObjectType
	Token() *Token
	Properties() *Properties
	// Close releases the properties and the token.
	Close() error

	base() *resource
}

// ResourceFromToken reads the properties of t and classifies it. On success
// the returned resource owns t; on failure t is still owned by the caller.
func (rt *Runtime) ResourceFromToken(t *Token) (Resource, error) {
	props, err := rt.PropertiesFromToken(t)
	if err != nil {
		return nil, err
	}
	kind, err := props.ObjectType()
	if err != nil {
		_ = props.Close()
		return nil, fmt.Errorf("classify resource: %w", err)
	}

	switch kind {
	case driver.DeviceObject:
		return &Device{resource{token: t, props: props}}, nil
	case driver.AcceleratorObject:
		return &Accelerator{resource{token: t, props: props}}, nil
	}
	_ = props.Close()
	return nil, &ClassificationError{ObjectType: kind}
}

// IsDevice reports whether r is a device.
func IsDevice(r Resource) bool {
	_, ok := r.(*Device)
	return ok
}

// AsDevice returns r as a device.
func AsDevice(r Resource) (*Device, bool) {
	d, ok := r.(*Device)
	return d, ok
}

// AsAccelerator returns r as an accelerator.
func AsAccelerator(r Resource) (*Accelerator, bool) {
	a, ok := r.(*Accelerator)
	return a, ok
}

// resource holds what devices and accelerators share: the token, its
// properties and the common attributes.
type resource struct {
	token *Token
	props *Properties
}

func (r *resource) base() *resource {
	return r
}

func (r *resource) Token() *Token {
	return r.token
}

func (r *resource) Properties() *Properties {
	return r.props
}

func (r *resource) Close() error {
	return multierr.Append(r.props.Close(), r.token.Close())
}

func (r *resource) Segment() (uint16, error) {
	return r.props.Segment()
}

func (r *resource) Bus() (uint8, error) {
	return r.props.Bus()
}

// PCIDevice returns the PCI device number.
func (r *resource) PCIDevice() (uint8, error) {
	return r.props.Device()
}

func (r *resource) Function() (uint8, error) {
	return r.props.Function()
}

func (r *resource) SocketID() (uint8, error) {
	return r.props.SocketID()
}

func (r *resource) VendorID() (uint16, error) {
	return r.props.VendorID()
}

// DeviceID returns the PCI device id.
func (r *resource) DeviceID() (uint16, error) {
	return r.props.DeviceID()
}

func (r *resource) GUID() (uuid.UUID, error) {
	return r.props.GUID()
}

func (r *resource) ObjectID() (uint64, error) {
	return r.props.ObjectID()
}

func (r *resource) info() ResourceInfo {
	return ResourceInfo{
		Segment:  keep(r.Segment()),
		Bus:      keep(r.Bus()),
		Device:   keep(r.PCIDevice()),
		Function: keep(r.Function()),
		SocketID: keep(r.SocketID()),
		VendorID: keep(r.VendorID()),
		DeviceID: keep(r.DeviceID()),
		GUID:     keep(r.GUID()),
		ObjectID: keep(r.ObjectID()),
	}
}

// keep keeps a successful read and drops a failed one.
func keep[T any](v T, err error) *T {
	if err != nil {
		return nil
	}
	return &v
}
