// Package sim implements driver.Driver over an in-memory FPGA topology.
//
// It follows the reference runtime's contract closely enough to stand in for
// it on hosts without FPGA hardware, and adds hooks for failure injection and
// handle accounting. A Sim is safe for concurrent use.
package sim

import (
	"strings"
	"sync"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
)

// Op names a class of driver call for counting and failure injection.
type Op int

const (
	OpInitialize Op = iota
	OpGetProperties
	OpCloneProperties
	OpDestroyProperties
	OpEnumerate
	OpCloneToken
	OpDestroyToken
	OpGet
	OpSet
)

// maxModelLength mirrors the buffer the runtime reserves for model names.
const maxModelLength = 255

type object struct {
	id     uint64
	fields map[driver.Field]any
}

func newObject(id uint64, t driver.ObjectType) *object {
	return &object{
		id: id,
		fields: map[driver.Field]any{
			driver.FieldObjectType: uint64(t),
			driver.FieldObjectID:   id,
		},
	}
}

// Sim is a simulated FPGA runtime.
type Sim struct {
	mu          sync.Mutex
	objects     []*object
	tokens      map[driver.Token]*object
	props       map[driver.Properties]map[driver.Field]any
	next        uintptr
	initialized bool

	calls       map[Op]int
	failOps     map[Op]driver.Result
	failFields  map[driver.Field]driver.Result
	failObjects map[uint64]driver.Result
	onEnumerate func(capacity int)
}

var _ driver.Driver = (*Sim)(nil)

// New returns a simulated runtime exposing the resources of t.
func New(t Topology) (*Sim, error) {
	objects, err := t.objects()
	if err != nil {
		return nil, err
	}
	return &Sim{
		objects:     objects,
		tokens:      make(map[driver.Token]*object),
		props:       make(map[driver.Properties]map[driver.Field]any),
		calls:       make(map[Op]int),
		failOps:     make(map[Op]driver.Result),
		failFields:  make(map[driver.Field]driver.Result),
		failObjects: make(map[uint64]driver.Result),
	}, nil
}

// Load returns a simulated runtime for the topology file at path.
func Load(path string) (*Sim, error) {
	t, err := LoadTopology(path)
	if err != nil {
		return nil, err
	}
	return New(*t)
}

// FailOperation makes every subsequent call of class op return r.
// Passing driver.OK clears the failure.
func (s *Sim) FailOperation(op Op, r driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == driver.OK {
		delete(s.failOps, op)
		return
	}
	s.failOps[op] = r
}

// FailField makes reads of field return r. Passing driver.OK clears it.
func (s *Sim) FailField(field driver.Field, r driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == driver.OK {
		delete(s.failFields, field)
		return
	}
	s.failFields[field] = r
}

// FailObject makes GetProperties fail with r for tokens of the object
// with the given id. Passing driver.OK clears it.
func (s *Sim) FailObject(objectID uint64, r driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == driver.OK {
		delete(s.failObjects, objectID)
		return
	}
	s.failObjects[objectID] = r
}

// OnEnumerate registers fn to run at the start of every Enumerate call with
// the capacity of the token buffer. fn may call Remove.
func (s *Sim) OnEnumerate(fn func(capacity int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnumerate = fn
}

// Remove drops the object with the given id from future enumerations.
// Existing tokens for it stay valid.
func (s *Sim) Remove(objectID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.objects {
		if o.id == objectID {
			s.objects = append(s.objects[:i:i], s.objects[i+1:]...)
			return true
		}
	}
	return false
}

// LiveTokens returns the number of tokens not yet destroyed.
func (s *Sim) LiveTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// LiveProperties returns the number of property objects not yet destroyed.
func (s *Sim) LiveProperties() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.props)
}

// Calls returns how many calls of class op were made.
func (s *Sim) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Initialized reports whether Initialize succeeded at least once.
func (s *Sim) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// enter records a call and returns an injected failure for it, if any.
// The caller must hold s.mu.
func (s *Sim) enter(op Op) driver.Result {
	s.calls[op]++
	if r, ok := s.failOps[op]; ok {
		return r
	}
	return driver.OK
}

func (s *Sim) handle() uintptr {
	s.next++
	return s.next
}

func (s *Sim) Initialize(configFile string) driver.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.enter(OpInitialize); r != driver.OK {
		return r
	}
	s.initialized = true
	return driver.OK
}

func (s *Sim) GetProperties(token driver.Token) (driver.Properties, driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.enter(OpGetProperties); r != driver.OK {
		return 0, r
	}

	fields := make(map[driver.Field]any)
	if token != 0 {
		o, ok := s.tokens[token]
		if !ok {
			return 0, driver.InvalidParam
		}
		if r, ok := s.failObjects[o.id]; ok {
			return 0, r
		}
		for f, v := range o.fields {
			fields[f] = v
		}
	}

	p := driver.Properties(s.handle())
	s.props[p] = fields
	return p, driver.OK
}

func (s *Sim) CloneProperties(props driver.Properties) (driver.Properties, driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.enter(OpCloneProperties); r != driver.OK {
		return 0, r
	}
	src, ok := s.props[props]
	if !ok {
		return 0, driver.InvalidParam
	}
	dst := make(map[driver.Field]any, len(src))
	for f, v := range src {
		dst[f] = v
	}
	p := driver.Properties(s.handle())
	s.props[p] = dst
	return p, driver.OK
}

func (s *Sim) DestroyProperties(props driver.Properties) driver.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.enter(OpDestroyProperties); r != driver.OK {
		return r
	}
	if _, ok := s.props[props]; !ok {
		return driver.InvalidParam
	}
	delete(s.props, props)
	return driver.OK
}

func (s *Sim) Enumerate(filters []driver.Properties, tokens []driver.Token) (uint32, driver.Result) {
	s.mu.Lock()
	hook := s.onEnumerate
	s.mu.Unlock()
	if hook != nil {
		hook(len(tokens))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.enter(OpEnumerate); r != driver.OK {
		return 0, r
	}

	criteria := make([]map[driver.Field]any, 0, len(filters))
	for _, f := range filters {
		fields, ok := s.props[f]
		if !ok {
			return 0, driver.InvalidParam
		}
		criteria = append(criteria, fields)
	}

	var matches []*object
	for _, o := range s.objects {
		if len(criteria) == 0 || matchesAny(o, criteria) {
			matches = append(matches, o)
		}
	}

	for i := 0; i < len(tokens) && i < len(matches); i++ {
		t := driver.Token(s.handle())
		s.tokens[t] = matches[i]
		tokens[i] = t
	}
	return uint32(len(matches)), driver.OK
}

func matchesAny(o *object, criteria []map[driver.Field]any) bool {
	for _, c := range criteria {
		if matches(o, c) {
			return true
		}
	}
	return false
}

func matches(o *object, criteria map[driver.Field]any) bool {
	for f, want := range criteria {
		got, ok := o.fields[f]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func (s *Sim) CloneToken(token driver.Token) (driver.Token, driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.enter(OpCloneToken); r != driver.OK {
		return 0, r
	}
	o, ok := s.tokens[token]
	if !ok {
		return 0, driver.InvalidParam
	}
	t := driver.Token(s.handle())
	s.tokens[t] = o
	return t, driver.OK
}

func (s *Sim) DestroyToken(token driver.Token) driver.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.enter(OpDestroyToken); r != driver.OK {
		return r
	}
	if _, ok := s.tokens[token]; !ok {
		return driver.InvalidParam
	}
	delete(s.tokens, token)
	return driver.OK
}

// read returns the raw value of field. The caller must hold s.mu.
func (s *Sim) read(props driver.Properties, field driver.Field, kind driver.Kind) (any, driver.Result) {
	if r := s.enter(OpGet); r != driver.OK {
		return nil, r
	}
	fields, ok := s.props[props]
	if !ok || !field.Valid() || field.Kind() != kind {
		return nil, driver.InvalidParam
	}
	if r, ok := s.failFields[field]; ok {
		return nil, r
	}
	if t, ok := fields[driver.FieldObjectType]; ok && !field.Allowed(driver.ObjectType(t.(uint64))) {
		return nil, driver.InvalidParam
	}
	v, ok := fields[field]
	if !ok {
		return nil, driver.NotFound
	}
	return v, driver.OK
}

// write stores value in field. The caller must hold s.mu.
func (s *Sim) write(props driver.Properties, field driver.Field, kind driver.Kind, value any) driver.Result {
	if r := s.enter(OpSet); r != driver.OK {
		return r
	}
	fields, ok := s.props[props]
	if !ok || !field.Valid() || field.Kind() != kind {
		return driver.InvalidParam
	}
	if t, ok := fields[driver.FieldObjectType]; ok && !field.Allowed(driver.ObjectType(t.(uint64))) {
		return driver.InvalidParam
	}
	fields[field] = value
	return driver.OK
}

func (s *Sim) GetUint(props driver.Properties, field driver.Field) (uint64, driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, r := s.read(props, field, driver.KindUint)
	if r != driver.OK {
		return 0, r
	}
	return v.(uint64), driver.OK
}

func (s *Sim) SetUint(props driver.Properties, field driver.Field, value uint64) driver.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !field.Fits(value) {
		s.calls[OpSet]++
		return driver.InvalidParam
	}
	switch field {
	case driver.FieldObjectType:
		if value > uint64(driver.AcceleratorObject) {
			s.calls[OpSet]++
			return driver.InvalidParam
		}
	case driver.FieldAcceleratorState:
		if value > uint64(driver.AcceleratorUnassigned) {
			s.calls[OpSet]++
			return driver.InvalidParam
		}
	}
	return s.write(props, field, driver.KindUint, value)
}

func (s *Sim) GetGUID(props driver.Properties) (driver.GUID, driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, r := s.read(props, driver.FieldGUID, driver.KindGUID)
	if r != driver.OK {
		return driver.GUID{}, r
	}
	return v.(driver.GUID), driver.OK
}

func (s *Sim) SetGUID(props driver.Properties, guid driver.GUID) driver.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(props, driver.FieldGUID, driver.KindGUID, guid)
}

func (s *Sim) GetModel(props driver.Properties) (string, driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, r := s.read(props, driver.FieldModel, driver.KindString)
	if r != driver.OK {
		return "", r
	}
	return v.(string), driver.OK
}

func (s *Sim) SetModel(props driver.Properties, model string) driver.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(model) > maxModelLength || strings.IndexByte(model, 0) >= 0 {
		s.calls[OpSet]++
		return driver.InvalidParam
	}
	return s.write(props, driver.FieldModel, driver.KindString, model)
}

func (s *Sim) GetBBSVersion(props driver.Properties) (driver.Version, driver.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, r := s.read(props, driver.FieldBBSVersion, driver.KindVersion)
	if r != driver.OK {
		return driver.Version{}, r
	}
	return v.(driver.Version), driver.OK
}

func (s *Sim) SetBBSVersion(props driver.Properties, version driver.Version) driver.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(props, driver.FieldBBSVersion, driver.KindVersion, version)
}

func (s *Sim) ErrStr(r driver.Result) string {
	return r.String()
}
