//go:build opae
// +build opae

// Package libopae binds driver.Driver to the OPAE C library (libopae-c).
package libopae

/*
#cgo LDFLAGS: -lopae-c
#include <stdlib.h>
#include <string.h>
#include <opae/fpga.h>

#define MODEL_LENGTH 256
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
)

// handles maps the integer ids handed to Go callers to the C pointers the
// library returned. Go code never converts ids back into pointers itself.
type handles struct {
	mu   sync.Mutex
	next uintptr
	ptrs map[uintptr]unsafe.Pointer
}

func (h *handles) put(p unsafe.Pointer) uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.ptrs[h.next] = p
	return h.next
}

func (h *handles) get(id uintptr) (unsafe.Pointer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.ptrs[id]
	return p, ok
}

func (h *handles) take(id uintptr) (unsafe.Pointer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.ptrs[id]
	delete(h.ptrs, id)
	return p, ok
}

// Driver calls into libopae-c.
type Driver struct {
	tokens handles
	props  handles
}

var _ driver.Driver = (*Driver)(nil)

// New returns a driver bound to the linked libopae-c.
func New() *Driver {
	return &Driver{
		tokens: handles{ptrs: make(map[uintptr]unsafe.Pointer)},
		props:  handles{ptrs: make(map[uintptr]unsafe.Pointer)},
	}
}

func result(r C.fpga_result) driver.Result {
	return driver.Result(r)
}

func (d *Driver) Initialize(configFile string) driver.Result {
	if configFile == "" {
		return result(C.fpgaInitialize(nil))
	}
	cs := C.CString(configFile)
	defer C.free(unsafe.Pointer(cs))
	return result(C.fpgaInitialize(cs))
}

func (d *Driver) GetProperties(token driver.Token) (driver.Properties, driver.Result) {
	var tok C.fpga_token
	if token != 0 {
		p, ok := d.tokens.get(uintptr(token))
		if !ok {
			return 0, driver.InvalidParam
		}
		tok = C.fpga_token(p)
	}
	var prop C.fpga_properties
	if r := result(C.fpgaGetProperties(tok, &prop)); !r.OK() {
		return 0, r
	}
	return driver.Properties(d.props.put(unsafe.Pointer(prop))), driver.OK
}

func (d *Driver) CloneProperties(props driver.Properties) (driver.Properties, driver.Result) {
	src, ok := d.props.get(uintptr(props))
	if !ok {
		return 0, driver.InvalidParam
	}
	var dst C.fpga_properties
	if r := result(C.fpgaCloneProperties(C.fpga_properties(src), &dst)); !r.OK() {
		return 0, r
	}
	return driver.Properties(d.props.put(unsafe.Pointer(dst))), driver.OK
}

func (d *Driver) DestroyProperties(props driver.Properties) driver.Result {
	p, ok := d.props.take(uintptr(props))
	if !ok {
		return driver.InvalidParam
	}
	prop := C.fpga_properties(p)
	return result(C.fpgaDestroyProperties(&prop))
}

func (d *Driver) Enumerate(filters []driver.Properties, tokens []driver.Token) (uint32, driver.Result) {
	var cfilters *C.fpga_properties
	if len(filters) > 0 {
		cfilters = (*C.fpga_properties)(C.malloc(C.size_t(len(filters)) * C.size_t(unsafe.Sizeof(C.fpga_properties(nil)))))
		defer C.free(unsafe.Pointer(cfilters))
		fs := unsafe.Slice(cfilters, len(filters))
		for i, f := range filters {
			p, ok := d.props.get(uintptr(f))
			if !ok {
				return 0, driver.InvalidParam
			}
			fs[i] = C.fpga_properties(p)
		}
	}

	var ctokens *C.fpga_token
	if len(tokens) > 0 {
		ctokens = (*C.fpga_token)(C.calloc(C.size_t(len(tokens)), C.size_t(unsafe.Sizeof(C.fpga_token(nil)))))
		defer C.free(unsafe.Pointer(ctokens))
	}

	var matches C.uint32_t
	r := result(C.fpgaEnumerate(cfilters, C.uint32_t(len(filters)), ctokens, C.uint32_t(len(tokens)), &matches))
	if !r.OK() {
		return 0, r
	}
	if ctokens != nil {
		ts := unsafe.Slice(ctokens, len(tokens))
		n := min(int(matches), len(tokens))
		for i := 0; i < n; i++ {
			tokens[i] = driver.Token(d.tokens.put(unsafe.Pointer(ts[i])))
		}
	}
	return uint32(matches), driver.OK
}

func (d *Driver) CloneToken(token driver.Token) (driver.Token, driver.Result) {
	src, ok := d.tokens.get(uintptr(token))
	if !ok {
		return 0, driver.InvalidParam
	}
	var dst C.fpga_token
	if r := result(C.fpgaCloneToken(C.fpga_token(src), &dst)); !r.OK() {
		return 0, r
	}
	return driver.Token(d.tokens.put(unsafe.Pointer(dst))), driver.OK
}

func (d *Driver) DestroyToken(token driver.Token) driver.Result {
	p, ok := d.tokens.take(uintptr(token))
	if !ok {
		return driver.InvalidParam
	}
	tok := C.fpga_token(p)
	return result(C.fpgaDestroyToken(&tok))
}

func (d *Driver) prop(props driver.Properties) (C.fpga_properties, bool) {
	p, ok := d.props.get(uintptr(props))
	return C.fpga_properties(p), ok
}

func (d *Driver) GetUint(props driver.Properties, field driver.Field) (uint64, driver.Result) {
	p, ok := d.prop(props)
	if !ok {
		return 0, driver.InvalidParam
	}
	var r C.fpga_result
	switch field {
	case driver.FieldObjectType:
		var v C.fpga_objtype
		r = C.fpgaPropertiesGetObjectType(p, &v)
		return uint64(v), result(r)
	case driver.FieldSegment:
		var v C.uint16_t
		r = C.fpgaPropertiesGetSegment(p, &v)
		return uint64(v), result(r)
	case driver.FieldBus:
		var v C.uint8_t
		r = C.fpgaPropertiesGetBus(p, &v)
		return uint64(v), result(r)
	case driver.FieldDevice:
		var v C.uint8_t
		r = C.fpgaPropertiesGetDevice(p, &v)
		return uint64(v), result(r)
	case driver.FieldFunction:
		var v C.uint8_t
		r = C.fpgaPropertiesGetFunction(p, &v)
		return uint64(v), result(r)
	case driver.FieldSocketID:
		var v C.uint8_t
		r = C.fpgaPropertiesGetSocketID(p, &v)
		return uint64(v), result(r)
	case driver.FieldVendorID:
		var v C.uint16_t
		r = C.fpgaPropertiesGetVendorID(p, &v)
		return uint64(v), result(r)
	case driver.FieldDeviceID:
		var v C.uint16_t
		r = C.fpgaPropertiesGetDeviceID(p, &v)
		return uint64(v), result(r)
	case driver.FieldObjectID:
		var v C.uint64_t
		r = C.fpgaPropertiesGetObjectID(p, &v)
		return uint64(v), result(r)
	case driver.FieldBBSID:
		var v C.uint64_t
		r = C.fpgaPropertiesGetBBSID(p, &v)
		return uint64(v), result(r)
	case driver.FieldCapabilities:
		var v C.uint64_t
		r = C.fpgaPropertiesGetCapabilities(p, &v)
		return uint64(v), result(r)
	case driver.FieldLocalMemorySize:
		var v C.uint64_t
		r = C.fpgaPropertiesGetLocalMemorySize(p, &v)
		return uint64(v), result(r)
	case driver.FieldNumSlots:
		var v C.uint32_t
		r = C.fpgaPropertiesGetNumSlots(p, &v)
		return uint64(v), result(r)
	case driver.FieldAcceleratorState:
		var v C.fpga_accelerator_state
		r = C.fpgaPropertiesGetAcceleratorState(p, &v)
		return uint64(v), result(r)
	case driver.FieldNumErrors:
		var v C.uint32_t
		r = C.fpgaPropertiesGetNumErrors(p, &v)
		return uint64(v), result(r)
	case driver.FieldNumInterrupts:
		var v C.uint32_t
		r = C.fpgaPropertiesGetNumInterrupts(p, &v)
		return uint64(v), result(r)
	case driver.FieldNumMMIO:
		var v C.uint32_t
		r = C.fpgaPropertiesGetNumMMIO(p, &v)
		return uint64(v), result(r)
	}
	return 0, driver.InvalidParam
}

func (d *Driver) SetUint(props driver.Properties, field driver.Field, value uint64) driver.Result {
	p, ok := d.prop(props)
	if !ok || !field.Fits(value) {
		return driver.InvalidParam
	}
	switch field {
	case driver.FieldObjectType:
		return result(C.fpgaPropertiesSetObjectType(p, C.fpga_objtype(value)))
	case driver.FieldSegment:
		return result(C.fpgaPropertiesSetSegment(p, C.uint16_t(value)))
	case driver.FieldBus:
		return result(C.fpgaPropertiesSetBus(p, C.uint8_t(value)))
	case driver.FieldDevice:
		return result(C.fpgaPropertiesSetDevice(p, C.uint8_t(value)))
	case driver.FieldFunction:
		return result(C.fpgaPropertiesSetFunction(p, C.uint8_t(value)))
	case driver.FieldSocketID:
		return result(C.fpgaPropertiesSetSocketID(p, C.uint8_t(value)))
	case driver.FieldVendorID:
		return result(C.fpgaPropertiesSetVendorID(p, C.uint16_t(value)))
	case driver.FieldDeviceID:
		return result(C.fpgaPropertiesSetDeviceID(p, C.uint16_t(value)))
	case driver.FieldObjectID:
		return result(C.fpgaPropertiesSetObjectID(p, C.uint64_t(value)))
	case driver.FieldBBSID:
		return result(C.fpgaPropertiesSetBBSID(p, C.uint64_t(value)))
	case driver.FieldCapabilities:
		return result(C.fpgaPropertiesSetCapabilities(p, C.uint64_t(value)))
	case driver.FieldLocalMemorySize:
		return result(C.fpgaPropertiesSetLocalMemorySize(p, C.uint64_t(value)))
	case driver.FieldNumSlots:
		return result(C.fpgaPropertiesSetNumSlots(p, C.uint32_t(value)))
	case driver.FieldAcceleratorState:
		return result(C.fpgaPropertiesSetAcceleratorState(p, C.fpga_accelerator_state(value)))
	case driver.FieldNumErrors:
		return result(C.fpgaPropertiesSetNumErrors(p, C.uint32_t(value)))
	case driver.FieldNumInterrupts:
		return result(C.fpgaPropertiesSetNumInterrupts(p, C.uint32_t(value)))
	case driver.FieldNumMMIO:
		return result(C.fpgaPropertiesSetNumMMIO(p, C.uint32_t(value)))
	}
	return driver.InvalidParam
}

func (d *Driver) GetGUID(props driver.Properties) (driver.GUID, driver.Result) {
	var g driver.GUID
	p, ok := d.prop(props)
	if !ok {
		return g, driver.InvalidParam
	}
	var cg C.fpga_guid
	if r := result(C.fpgaPropertiesGetGUID(p, &cg)); !r.OK() {
		return g, r
	}
	C.memcpy(unsafe.Pointer(&g[0]), unsafe.Pointer(&cg[0]), C.size_t(len(g)))
	return g, driver.OK
}

func (d *Driver) SetGUID(props driver.Properties, guid driver.GUID) driver.Result {
	p, ok := d.prop(props)
	if !ok {
		return driver.InvalidParam
	}
	var cg C.fpga_guid
	C.memcpy(unsafe.Pointer(&cg[0]), unsafe.Pointer(&guid[0]), C.size_t(len(guid)))
	return result(C.fpgaPropertiesSetGUID(p, &cg[0]))
}

func (d *Driver) GetModel(props driver.Properties) (string, driver.Result) {
	p, ok := d.prop(props)
	if !ok {
		return "", driver.InvalidParam
	}
	buf := (*C.char)(C.calloc(C.MODEL_LENGTH, 1))
	defer C.free(unsafe.Pointer(buf))
	if r := result(C.fpgaPropertiesGetModel(p, buf)); !r.OK() {
		return "", r
	}
	return C.GoStringN(buf, C.int(C.strnlen(buf, C.MODEL_LENGTH-1))), driver.OK
}

func (d *Driver) SetModel(props driver.Properties, model string) driver.Result {
	p, ok := d.prop(props)
	if !ok || len(model) >= C.MODEL_LENGTH {
		return driver.InvalidParam
	}
	cs := C.CString(model)
	defer C.free(unsafe.Pointer(cs))
	return result(C.fpgaPropertiesSetModel(p, cs))
}

func (d *Driver) GetBBSVersion(props driver.Properties) (driver.Version, driver.Result) {
	p, ok := d.prop(props)
	if !ok {
		return driver.Version{}, driver.InvalidParam
	}
	var v C.fpga_version
	if r := result(C.fpgaPropertiesGetBBSVersion(p, &v)); !r.OK() {
		return driver.Version{}, r
	}
	return driver.Version{Major: uint8(v.major), Minor: uint8(v.minor), Patch: uint16(v.patch)}, driver.OK
}

func (d *Driver) SetBBSVersion(props driver.Properties, version driver.Version) driver.Result {
	p, ok := d.prop(props)
	if !ok {
		return driver.InvalidParam
	}
	v := C.fpga_version{
		major: C.uint8_t(version.Major),
		minor: C.uint8_t(version.Minor),
		patch: C.uint16_t(version.Patch),
	}
	return result(C.fpgaPropertiesSetBBSVersion(p, v))
}

func (d *Driver) ErrStr(r driver.Result) string {
	return C.GoString(C.fpgaErrStr(C.fpga_result(r)))
}
