// Package driver defines the narrow boundary between the resource model and
// a vendor FPGA runtime. Everything behind it (enumeration, property objects,
// token bookkeeping) is owned by the runtime; callers only ever hold opaque
// handles and status codes.
package driver

// Token is an opaque reference to a runtime object identifying one
// discoverable resource. The zero Token is the null handle.
type Token uintptr

// Properties is an opaque reference to a runtime property object.
// The zero Properties is the null handle.
type Properties uintptr

// GUID is the 16 byte identifier of an accelerator function or FPGA
// interface manager.
type GUID [16]byte

// Version is a board support stack version.
type Version struct {
	Major uint8  `json:"major" yaml:"major" cbor:"major"`
	Minor uint8  `json:"minor" yaml:"minor" cbor:"minor"`
	Patch uint16 `json:"patch" yaml:"patch" cbor:"patch"`
}

// Driver is the set of calls the resource model makes into a vendor runtime.
//
// Implementations must treat every handle as owned by the caller: a handle
// returned from GetProperties, CloneProperties, Enumerate or CloneToken is
// released exactly once by the matching Destroy call.
type Driver interface {
	// Initialize prepares the runtime. It may be called more than once.
	Initialize(configFile string) Result

	// GetProperties returns a property object describing token. A zero
	// token returns a fresh, empty property object.
	GetProperties(token Token) (Properties, Result)
	CloneProperties(props Properties) (Properties, Result)
	DestroyProperties(props Properties) Result

	// Enumerate writes up to len(tokens) matching tokens and returns the
	// total number of matches. A resource matches when it matches any of
	// filters. An empty tokens slice is a valid probe-only call.
	Enumerate(filters []Properties, tokens []Token) (uint32, Result)

	CloneToken(token Token) (Token, Result)
	DestroyToken(token Token) Result

	// GetUint and SetUint access the integer typed fields, including
	// FieldObjectType and FieldAcceleratorState.
	GetUint(props Properties, field Field) (uint64, Result)
	SetUint(props Properties, field Field, value uint64) Result

	GetGUID(props Properties) (GUID, Result)
	SetGUID(props Properties, guid GUID) Result

	GetModel(props Properties) (string, Result)
	SetModel(props Properties, model string) Result

	GetBBSVersion(props Properties) (Version, Result)
	SetBBSVersion(props Properties, version Version) Result

	// ErrStr returns the runtime's message for a status code.
	ErrStr(r Result) string
}
