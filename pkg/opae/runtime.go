// Package opae discovers FPGA devices and accelerators through an OPAE style
// driver and hands out owned, typed handles to them.
//
// A query is expressed as a Filter, compiled into a native property object,
// and run through a two phase enumeration. Each returned token is classified
// into a Device or an Accelerator that owns its token and property object
// until Close is called.
//
// Nothing in this package synchronizes access to native handles. A Token,
// Properties or Resource must not be used from more than one goroutine at a
// time; concurrent enumeration is only as safe as the driver beneath it.
package opae

import (
	"fmt"
	"time"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"go.uber.org/zap"
)

// HandleKind distinguishes the two kinds of native handle a Runtime tracks.
type HandleKind int

const (
	TokenHandle HandleKind = iota
	PropertiesHandle
)

func (k HandleKind) String() string {
	if k == TokenHandle {
		return "token"
	}
	return "properties"
}

// Observer receives lifecycle events from a Runtime.
type Observer interface {
	HandleAcquired(kind HandleKind)
	HandleReleased(kind HandleKind)
	// Enumerated reports a completed enumeration call. fetched is the
	// number of tokens handed to the caller.
	Enumerated(matches, fetched int, elapsed time.Duration, err error)
	Classified(kind driver.ObjectType)
	Dropped(err error)
}

type nopObserver struct{}

func (nopObserver) HandleAcquired(HandleKind)                 {}
func (nopObserver) HandleReleased(HandleKind)                 {}
func (nopObserver) Enumerated(int, int, time.Duration, error) {}
func (nopObserver) Classified(driver.ObjectType)              {}
func (nopObserver) Dropped(error)                             {}

// Runtime binds the resource model to one driver.
type Runtime struct {
	drv      driver.Driver
	log      *zap.Logger
	observer Observer
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for handle lifecycle messages.
func WithLogger(log *zap.Logger) Option {
	return func(rt *Runtime) {
		if log != nil {
			rt.log = log
		}
	}
}

// WithObserver registers an observer for handle and enumeration events.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		if o != nil {
			rt.observer = o
		}
	}
}

// NewRuntime returns a Runtime calling into drv.
func NewRuntime(drv driver.Driver, opts ...Option) *Runtime {
	rt := &Runtime{
		drv:      drv,
		log:      zap.L(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Driver returns the driver rt calls into.
func (rt *Runtime) Driver() driver.Driver {
	return rt.drv
}

// Initialize initializes the underlying runtime. configFile may be empty.
func (rt *Runtime) Initialize(configFile string) error {
	if err := rt.check(rt.drv.Initialize(configFile)); err != nil {
		return fmt.Errorf("initialize driver: %w", err)
	}
	return nil
}
