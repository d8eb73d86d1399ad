//go:build opae
// +build opae

package opae

import (
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/fxnlabs/fpga/pkg/opae/driver/libopae"
)

// NativeDriver returns the libopae-c binding. The package was built with the
// opae tag.
func NativeDriver() (driver.Driver, error) {
	return libopae.New(), nil
}
