package sim

import (
	"fmt"
	"os"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Topology describes the FPGA devices a simulated runtime exposes.
type Topology struct {
	Devices []DeviceSpec `yaml:"devices"`
}

// DeviceSpec describes one FPGA device and the accelerators it hosts.
// Empty GUID and Model leave the attribute unset.
type DeviceSpec struct {
	ObjectID        uint64         `yaml:"objectId"`
	Segment         uint16         `yaml:"segment"`
	Bus             uint8          `yaml:"bus"`
	Device          uint8          `yaml:"device"`
	Function        uint8          `yaml:"function"`
	SocketID        uint8          `yaml:"socketId"`
	VendorID        uint16         `yaml:"vendorId"`
	DeviceID        uint16         `yaml:"deviceId"`
	GUID            string         `yaml:"guid"`
	BBSID           uint64         `yaml:"bbsId"`
	BBSVersion      driver.Version `yaml:"bbsVersion"`
	Capabilities    uint64         `yaml:"capabilities"`
	LocalMemorySize uint64         `yaml:"localMemorySize"`
	Model           string         `yaml:"model"`
	NumSlots        *uint32        `yaml:"numSlots"`

	Accelerators []AcceleratorSpec `yaml:"accelerators"`
}

// AcceleratorSpec describes an accelerator function. It inherits the PCI
// address and ids of its device unless Function is set.
type AcceleratorSpec struct {
	ObjectID      uint64 `yaml:"objectId"`
	Function      *uint8 `yaml:"function"`
	GUID          string `yaml:"guid"`
	State         string `yaml:"state"`
	NumErrors     uint32 `yaml:"numErrors"`
	NumInterrupts uint32 `yaml:"numInterrupts"`
	NumMMIO       uint32 `yaml:"numMmio"`
}

// LoadTopology reads a YAML topology file.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTopology(data)
}

// ParseTopology decodes a YAML topology document.
func ParseTopology(data []byte) (*Topology, error) {
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}
	return &t, nil
}

func (t *Topology) objects() ([]*object, error) {
	var out []*object
	seen := make(map[uint64]bool)
	claim := func(id uint64) error {
		if seen[id] {
			return fmt.Errorf("duplicate object id %#x", id)
		}
		seen[id] = true
		return nil
	}

	for _, d := range t.Devices {
		if err := claim(d.ObjectID); err != nil {
			return nil, err
		}
		dev := newObject(d.ObjectID, driver.DeviceObject)
		dev.fields[driver.FieldSegment] = uint64(d.Segment)
		dev.fields[driver.FieldBus] = uint64(d.Bus)
		dev.fields[driver.FieldDevice] = uint64(d.Device)
		dev.fields[driver.FieldFunction] = uint64(d.Function)
		dev.fields[driver.FieldSocketID] = uint64(d.SocketID)
		dev.fields[driver.FieldVendorID] = uint64(d.VendorID)
		dev.fields[driver.FieldDeviceID] = uint64(d.DeviceID)
		dev.fields[driver.FieldBBSID] = d.BBSID
		dev.fields[driver.FieldBBSVersion] = d.BBSVersion
		dev.fields[driver.FieldCapabilities] = d.Capabilities
		dev.fields[driver.FieldLocalMemorySize] = d.LocalMemorySize
		slots := uint32(len(d.Accelerators))
		if d.NumSlots != nil {
			slots = *d.NumSlots
		}
		dev.fields[driver.FieldNumSlots] = uint64(slots)
		if d.Model != "" {
			dev.fields[driver.FieldModel] = d.Model
		}
		if err := setGUID(dev, d.GUID); err != nil {
			return nil, fmt.Errorf("device %#x: %w", d.ObjectID, err)
		}
		out = append(out, dev)

		for _, a := range d.Accelerators {
			if err := claim(a.ObjectID); err != nil {
				return nil, err
			}
			acc := newObject(a.ObjectID, driver.AcceleratorObject)
			for _, f := range []driver.Field{
				driver.FieldSegment, driver.FieldBus, driver.FieldDevice, driver.FieldFunction,
				driver.FieldSocketID, driver.FieldVendorID, driver.FieldDeviceID,
			} {
				acc.fields[f] = dev.fields[f]
			}
			if a.Function != nil {
				acc.fields[driver.FieldFunction] = uint64(*a.Function)
			}
			state := driver.AcceleratorUnassigned
			if a.State != "" {
				s, err := driver.ParseAcceleratorState(a.State)
				if err != nil {
					return nil, fmt.Errorf("accelerator %#x: %w", a.ObjectID, err)
				}
				state = s
			}
			acc.fields[driver.FieldAcceleratorState] = uint64(state)
			acc.fields[driver.FieldNumErrors] = uint64(a.NumErrors)
			acc.fields[driver.FieldNumInterrupts] = uint64(a.NumInterrupts)
			acc.fields[driver.FieldNumMMIO] = uint64(a.NumMMIO)
			if err := setGUID(acc, a.GUID); err != nil {
				return nil, fmt.Errorf("accelerator %#x: %w", a.ObjectID, err)
			}
			out = append(out, acc)
		}
	}
	return out, nil
}

func setGUID(o *object, s string) error {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid guid %q: %w", s, err)
	}
	o.fields[driver.FieldGUID] = driver.GUID(id)
	return nil
}
