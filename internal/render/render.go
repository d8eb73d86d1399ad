// Package render writes resource snapshots in the formats the CLI and the
// exporter offer.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/fxnlabs/fpga/pkg/opae"
	"gopkg.in/yaml.v3"
)

const (
	Text = "text"
	JSON = "json"
	YAML = "yaml"
	CBOR = "cbor"
)

// Formats lists every supported format name.
var Formats = []string{Text, JSON, YAML, CBOR}

// encMode encodes snapshots deterministically so equal inventories produce
// equal bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}
}

// Valid reports whether format is supported.
func Valid(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ContentType returns the HTTP media type for format.
func ContentType(format string) string {
	switch format {
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	case CBOR:
		return "application/cbor"
	}
	return "text/plain; charset=utf-8"
}

// Snapshots writes snapshots to w in format. Text output is one line per
// snapshot; the other formats encode the list as a single document.
func Snapshots(w io.Writer, format string, snapshots []opae.Snapshot) error {
	if snapshots == nil {
		snapshots = []opae.Snapshot{}
	}
	switch format {
	case Text, "":
		for _, s := range snapshots {
			if _, err := fmt.Fprintln(w, s.String()); err != nil {
				return err
			}
		}
		return nil
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshots)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snapshots); err != nil {
			return err
		}
		return enc.Close()
	case CBOR:
		return encMode.NewEncoder(w).Encode(snapshots)
	}
	return fmt.Errorf("unknown output format %q", format)
}
