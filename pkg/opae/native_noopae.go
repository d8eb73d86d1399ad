//go:build !opae
// +build !opae

package opae

import (
	"fmt"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
)

// NativeDriver returns the libopae-c binding. This build has none: it was
// compiled without the opae tag.
func NativeDriver() (driver.Driver, error) {
	return nil, fmt.Errorf("built without the opae tag: %w", ErrNoDriver)
}
