package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
		// Encoding is "json" or "console".
		Encoding string `yaml:"encoding"`
	} `yaml:"logger"`
	Driver   DriverConfig `yaml:"driver"`
	Filter   FilterConfig `yaml:"filter"`
	Exporter struct {
		ListenAddress string        `yaml:"listenAddress"`
		PollInterval  time.Duration `yaml:"pollInterval"`
	} `yaml:"exporter"`
}

// DriverConfig selects the runtime the resource model talks to.
type DriverConfig struct {
	// Name is "native", "sim" or "auto".
	Name string `yaml:"name"`
	// ConfigFile is handed to the native runtime's initializer.
	ConfigFile string `yaml:"configFile"`
	// Topology is the simulated system description used by "sim" and by
	// "auto" when no native runtime is available.
	Topology string `yaml:"topology"`
}

// FilterConfig is the YAML form of an opae.Filter. Absent keys place no
// constraint.
type FilterConfig struct {
	Kind            string  `yaml:"kind"`
	State           string  `yaml:"state"`
	Segment         *uint16 `yaml:"segment"`
	Bus             *uint8  `yaml:"bus"`
	Device          *uint8  `yaml:"device"`
	Function        *uint8  `yaml:"function"`
	SocketID        *uint8  `yaml:"socketId"`
	VendorID        *uint16 `yaml:"vendorId"`
	DeviceID        *uint16 `yaml:"deviceId"`
	GUID            string  `yaml:"guid"`
	ObjectID        *uint64 `yaml:"objectId"`
	BBSID           *uint64 `yaml:"bbsId"`
	BBSVersion      string  `yaml:"bbsVersion"`
	Capabilities    *uint64 `yaml:"capabilities"`
	LocalMemorySize *uint64 `yaml:"localMemorySize"`
	Model           *string `yaml:"model"`
	NumSlots        *uint32 `yaml:"numSlots"`
	NumErrors       *uint32 `yaml:"numErrors"`
	NumInterrupts   *uint32 `yaml:"numInterrupts"`
	NumMMIO         *uint32 `yaml:"numMmio"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	var c Config
	c.Logger.Verbosity = "info"
	c.Logger.Encoding = "json"
	c.Driver.Name = "native"
	c.Filter.Kind = "accelerator"
	c.Exporter.ListenAddress = ":9464"
	c.Exporter.PollInterval = 30 * time.Second
	return &c
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Filter validates c and converts it into an opae.Filter.
func (c FilterConfig) Filter() (opae.Filter, error) {
	f := opae.NewFilter()

	if c.Kind != "" {
		kind, err := driver.ParseObjectType(c.Kind)
		if err != nil {
			return f, err
		}
		if kind == driver.DeviceObject {
			f = f.WithDeviceObject()
		} else {
			f = f.WithAcceleratorObject()
		}
	}
	if c.State != "" {
		state, err := driver.ParseAcceleratorState(c.State)
		if err != nil {
			return f, err
		}
		if state == driver.AcceleratorAssigned {
			f = f.WithAcceleratorAssigned()
		} else {
			f = f.WithAcceleratorUnassigned()
		}
	}
	if c.GUID != "" {
		id, err := uuid.Parse(c.GUID)
		if err != nil {
			return f, fmt.Errorf("invalid guid %q: %w", c.GUID, err)
		}
		f = f.WithGUID(id)
	}
	if c.BBSVersion != "" {
		var major, minor uint8
		var patch uint16
		if _, err := fmt.Sscanf(c.BBSVersion, "%d.%d.%d", &major, &minor, &patch); err != nil {
			return f, fmt.Errorf("invalid bbs version %q: want major.minor.patch", c.BBSVersion)
		}
		f = f.WithBBSVersion(major, minor, patch)
	}

	// The remaining keys map one to one onto filter fields.
	f.Segment = c.Segment
	f.Bus = c.Bus
	f.Device = c.Device
	f.Function = c.Function
	f.SocketID = c.SocketID
	f.VendorID = c.VendorID
	f.DeviceID = c.DeviceID
	f.ObjectID = c.ObjectID
	f.BBSID = c.BBSID
	f.Capabilities = c.Capabilities
	f.LocalMemorySize = c.LocalMemorySize
	f.Model = c.Model
	f.NumSlots = c.NumSlots
	f.NumErrors = c.NumErrors
	f.NumInterrupts = c.NumInterrupts
	f.NumMMIO = c.NumMMIO
	return f, nil
}
