package opae

import (
	"fmt"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
)

// Error is a non-OK status returned by the driver, carrying the driver's own
// message for it.
type Error struct {
	Result  driver.Result
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same status code, so callers can write
// errors.Is(err, opae.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Result == e.Result
}

var (
	// ErrNotFound is matched by errors reporting that nothing matched a query.
	ErrNotFound = &Error{Result: driver.NotFound, Message: driver.NotFound.String()}
	// ErrInvalidParam is matched by errors reporting a bad argument, such as
	// a filter selecting the wrong kind of object.
	ErrInvalidParam = &Error{Result: driver.InvalidParam, Message: driver.InvalidParam.String()}
	// ErrNoDriver is matched when no native runtime is available.
	ErrNoDriver = &Error{Result: driver.NoDriver, Message: driver.NoDriver.String()}
)

// ClassificationError reports a resource whose object type is neither a
// device nor an accelerator.
type ClassificationError struct {
	ObjectType driver.ObjectType
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify resource with object type %d", uint32(e.ObjectType))
}

// check converts a driver status into an error.
func (rt *Runtime) check(r driver.Result) error {
	if r == driver.OK {
		return nil
	}
	return &Error{Result: r, Message: rt.drv.ErrStr(r)}
}
