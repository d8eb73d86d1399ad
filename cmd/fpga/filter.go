package main

import (
	"fmt"
	"strconv"

	"github.com/fxnlabs/fpga/internal/config"
	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/urfave/cli/v2"
)

type numericFlag struct {
	name  string
	usage string
	bits  int
	set   func(fc *config.FilterConfig, v uint64)
}

// numericFlags accept decimal or 0x-prefixed hex values.
var numericFlags = []numericFlag{
	{"segment", "PCI segment", 16, func(fc *config.FilterConfig, v uint64) { fc.Segment = ptr(uint16(v)) }},
	{"bus", "PCI bus", 8, func(fc *config.FilterConfig, v uint64) { fc.Bus = ptr(uint8(v)) }},
	{"device", "PCI device", 8, func(fc *config.FilterConfig, v uint64) { fc.Device = ptr(uint8(v)) }},
	{"function", "PCI function", 8, func(fc *config.FilterConfig, v uint64) { fc.Function = ptr(uint8(v)) }},
	{"socket-id", "socket id", 8, func(fc *config.FilterConfig, v uint64) { fc.SocketID = ptr(uint8(v)) }},
	{"vendor-id", "PCI vendor id", 16, func(fc *config.FilterConfig, v uint64) { fc.VendorID = ptr(uint16(v)) }},
	{"device-id", "PCI device id", 16, func(fc *config.FilterConfig, v uint64) { fc.DeviceID = ptr(uint16(v)) }},
	{"object-id", "runtime object id", 64, func(fc *config.FilterConfig, v uint64) { fc.ObjectID = ptr(v) }},
	{"bbs-id", "blue bitstream id", 64, func(fc *config.FilterConfig, v uint64) { fc.BBSID = ptr(v) }},
	{"capabilities", "device capability bits", 64, func(fc *config.FilterConfig, v uint64) { fc.Capabilities = ptr(v) }},
	{"local-memory-size", "local memory size in bytes", 64, func(fc *config.FilterConfig, v uint64) { fc.LocalMemorySize = ptr(v) }},
	{"num-slots", "number of accelerator slots", 32, func(fc *config.FilterConfig, v uint64) { fc.NumSlots = ptr(uint32(v)) }},
	{"num-errors", "number of error registers", 32, func(fc *config.FilterConfig, v uint64) { fc.NumErrors = ptr(uint32(v)) }},
	{"num-interrupts", "number of interrupts", 32, func(fc *config.FilterConfig, v uint64) { fc.NumInterrupts = ptr(uint32(v)) }},
	{"num-mmio", "number of MMIO spaces", 32, func(fc *config.FilterConfig, v uint64) { fc.NumMMIO = ptr(uint32(v)) }},
}

func ptr[T any](v T) *T {
	return &v
}

func filterFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "kind", Usage: "device or accelerator"},
		&cli.StringFlag{Name: "state", Usage: "assigned or unassigned"},
		&cli.StringFlag{Name: "guid", Usage: "accelerator or interface manager GUID"},
		&cli.StringFlag{Name: "bbs-version", Usage: "blue bitstream version as major.minor.patch"},
		&cli.StringFlag{Name: "model", Usage: "device model name"},
	}
	for _, f := range numericFlags {
		flags = append(flags, &cli.StringFlag{Name: f.name, Usage: f.usage})
	}
	return flags
}

// filterFromFlags builds a filter from the filter flags. ok is false when no
// filter flag was given.
func filterFromFlags(c *cli.Context) (f opae.Filter, ok bool, err error) {
	var fc config.FilterConfig
	for _, name := range []string{"kind", "state", "guid", "bbs-version", "model"} {
		ok = ok || c.IsSet(name)
	}
	fc.Kind = c.String("kind")
	fc.State = c.String("state")
	fc.GUID = c.String("guid")
	fc.BBSVersion = c.String("bbs-version")
	if c.IsSet("model") {
		fc.Model = ptr(c.String("model"))
	}
	for _, nf := range numericFlags {
		if !c.IsSet(nf.name) {
			continue
		}
		v, err := strconv.ParseUint(c.String(nf.name), 0, nf.bits)
		if err != nil {
			return f, false, fmt.Errorf("invalid --%s: %w", nf.name, err)
		}
		nf.set(&fc, v)
		ok = true
	}
	f, err = fc.Filter()
	return f, ok, err
}
