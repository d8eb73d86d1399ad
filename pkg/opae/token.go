package opae

import (
	"fmt"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"go.uber.org/zap"
)

// Token owns one native token. The zero value is not usable; tokens come
// from enumeration or Clone.
type Token struct {
	rt       *Runtime
	raw      driver.Token
	released bool
}

// adoptToken takes ownership of a token the driver just handed out.
func (rt *Runtime) adoptToken(raw driver.Token) *Token {
	rt.observer.HandleAcquired(TokenHandle)
	return &Token{rt: rt, raw: raw}
}

// Raw returns the native handle. It stays owned by t.
func (t *Token) Raw() driver.Token {
	return t.raw
}

// Clone asks the driver for a new, independently owned token referring to
// the same resource.
func (t *Token) Clone() (*Token, error) {
	if t.released {
		return nil, fmt.Errorf("clone released token: %w", t.rt.check(driver.InvalidParam))
	}
	raw, r := t.rt.drv.CloneToken(t.raw)
	if err := t.rt.check(r); err != nil {
		return nil, fmt.Errorf("clone token: %w", err)
	}
	return t.rt.adoptToken(raw), nil
}

// MustClone is like Clone but panics if the driver cannot clone the token.
func (t *Token) MustClone() *Token {
	c, err := t.Clone()
	if err != nil {
		panic("opae: " + err.Error())
	}
	return c
}

// Close destroys the native token. Only the first call reaches the driver;
// a driver failure is logged and returned, and the token is considered
// released either way.
func (t *Token) Close() error {
	if t == nil || t.released {
		return nil
	}
	t.released = true
	t.rt.observer.HandleReleased(TokenHandle)

	t.rt.log.Debug("Destroying token", zap.Uintptr("token", uintptr(t.raw)))
	if err := t.rt.check(t.rt.drv.DestroyToken(t.raw)); err != nil {
		t.rt.log.Error("Failed to destroy token", zap.Uintptr("token", uintptr(t.raw)), zap.Error(err))
		return fmt.Errorf("destroy token: %w", err)
	}
	return nil
}
