package driver

import "fmt"

// Result is a status code returned by every driver call.
type Result int32

const (
	OK Result = iota
	InvalidParam
	Busy
	Exception
	NotFound
	NoMemory
	NotSupported
	NoDriver
	NoDaemon
	NoAccess
	ReconfError
)

var resultMessages = [...]string{
	OK:           "success",
	InvalidParam: "invalid parameter",
	Busy:         "resource busy",
	Exception:    "exception",
	NotFound:     "not found",
	NoMemory:     "no memory",
	NotSupported: "not supported",
	NoDriver:     "no driver available",
	NoDaemon:     "no fpga daemon running",
	NoAccess:     "insufficient privileges",
	ReconfError:  "reconfiguration error",
}

// String returns the message the reference runtime uses for r.
func (r Result) String() string {
	if r >= 0 && int(r) < len(resultMessages) {
		return resultMessages[r]
	}
	return fmt.Sprintf("unknown result %d", int32(r))
}

// OK reports whether r is the success status.
func (r Result) OK() bool {
	return r == OK
}
