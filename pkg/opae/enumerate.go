package opae

import (
	"fmt"
	"iter"
	"time"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Enumeration is the single pass result of running a Filter. Tokens are
// classified lazily as the caller advances; tokens whose properties cannot
// be read are destroyed and skipped. Close releases whatever was not
// consumed.
type Enumeration struct {
	rt     *Runtime
	tokens []driver.Token
	next   int
}

// Enumerate runs f against the driver in two phases: a probe for the number
// of matches, then a fetch into a buffer of exactly that size. If the system
// changed in between, the count returned by the fetch wins and the buffer is
// truncated to it; there is no retry.
func (rt *Runtime) Enumerate(f Filter) (*Enumeration, error) {
	start := time.Now()
	e, matches, err := rt.enumerate(f)
	fetched := 0
	if e != nil {
		fetched = len(e.tokens)
	}
	rt.observer.Enumerated(matches, fetched, time.Since(start), err)
	return e, err
}

func (rt *Runtime) enumerate(f Filter) (*Enumeration, int, error) {
	props, err := rt.PropertiesFromFilter(f)
	if err != nil {
		return nil, 0, fmt.Errorf("compile filter: %w", err)
	}
	defer props.Close()

	capacity := props.MatchCount()
	tokens := make([]driver.Token, capacity)
	n, r := rt.drv.Enumerate([]driver.Properties{props.raw}, tokens)
	if err := rt.check(r); err != nil {
		return nil, 0, fmt.Errorf("enumerate: %w", err)
	}
	if int(n) < len(tokens) {
		tokens = tokens[:n]
	}
	for range tokens {
		rt.observer.HandleAcquired(TokenHandle)
	}

	rt.log.Debug("Enumerated resources",
		zap.Stringer("filter", f),
		zap.Int("capacity", capacity),
		zap.Uint32("matches", n))
	return &Enumeration{rt: rt, tokens: tokens}, int(n), nil
}

// Len returns the number of tokens not yet consumed.
func (e *Enumeration) Len() int {
	return len(e.tokens) - e.next
}

// Next classifies and returns the next resource. The caller owns it.
func (e *Enumeration) Next() (Resource, bool) {
	for e.next < len(e.tokens) {
		t := &Token{rt: e.rt, raw: e.tokens[e.next]}
		e.tokens[e.next] = 0
		e.next++

		r, err := e.rt.ResourceFromToken(t)
		if err != nil {
			e.rt.log.Debug("Dropping unclassifiable token", zap.Uintptr("token", uintptr(t.raw)), zap.Error(err))
			e.rt.observer.Dropped(err)
			_ = t.Close()
			continue
		}
		e.rt.observer.Classified(r.ObjectType())
		return r, true
	}
	return nil, false
}

// All returns an iterator over the remaining resources. Stopping early
// leaves the rest for Close.
func (e *Enumeration) All() iter.Seq[Resource] {
	return func(yield func(Resource) bool) {
		for {
			r, ok := e.Next()
			if !ok || !yield(r) {
				return
			}
		}
	}
}

// Close destroys the tokens that were never consumed.
func (e *Enumeration) Close() error {
	var err error
	for ; e.next < len(e.tokens); e.next++ {
		t := &Token{rt: e.rt, raw: e.tokens[e.next]}
		e.tokens[e.next] = 0
		err = multierr.Append(err, t.Close())
	}
	return err
}

// First returns the first resource matching f, releasing any other matches.
func (rt *Runtime) First(f Filter) (Resource, error) {
	e, err := rt.Enumerate(f)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	r, ok := e.Next()
	if !ok {
		return nil, fmt.Errorf("no resource matches %s: %w", f, rt.check(driver.NotFound))
	}
	return r, nil
}

// Collect enumerates f and returns every classified resource. The caller
// owns and must close them.
func (rt *Runtime) Collect(f Filter) ([]Resource, error) {
	e, err := rt.Enumerate(f)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	var out []Resource
	for r := range e.All() {
		out = append(out, r)
	}
	return out, nil
}
