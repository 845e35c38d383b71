package streaming

import (
	"sync"

	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/types"
)

// ValueOp identifies the shape of a ValueChange.
type ValueOp int

const (
	ValueSet ValueOp = iota
	ValueDestroyed
)

// ValueChange is published on every Set and on Destroy.
type ValueChange struct {
	Op    ValueOp
	Value *types.Value // meaningful for ValueSet
}

// ValueStream holds at most one current value and broadcasts every Set and
// the terminal Destroy. It has no back-channel: a scalar has nothing for a
// guest to page through.
type ValueStream struct {
	mu        sync.RWMutex
	typ       *types.Type
	current   *types.Value // nil once destroyed, or while no value is set
	changes   *Broadcaster[ValueChange]
	destroyed bool
}

// NewValueStream creates a stream, optionally seeded with initial (pass nil
// for an empty stream). initial, if non-nil, must be well-formed against
// typ.
func NewValueStream(typ *types.Type, initial *types.Value) (*ValueStream, error) {
	if initial != nil {
		if err := types.Check(typ, initial); err != nil {
			return nil, err
		}
	}
	return &ValueStream{
		typ:     typ,
		current: initial,
		changes: NewBroadcaster[ValueChange](DefaultChangeBuffer),
	}, nil
}

// Type reports the stream's declared type.
func (s *ValueStream) Type() *types.Type { return s.typ }

// Snapshot returns the current value, or nil if none has been set (or the
// stream was destroyed).
func (s *ValueStream) Snapshot() *types.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the current value, rejecting anything not well-formed
// against the stream's type, then broadcasts ValueSet.
func (s *ValueStream) Set(v *types.Value) error {
	if err := types.Check(s.typ, v); err != nil {
		return err
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errs.New(errs.Destroyed, "value stream destroyed")
	}
	s.current = v
	s.mu.Unlock()
	s.changes.Publish(ValueChange{Op: ValueSet, Value: v})
	return nil
}

// Destroy clears the current value, broadcasts ValueDestroyed, and closes
// the change broadcast so blocked subscribers wake with a cancellation.
// Further Set calls fail with errs.Destroyed.
func (s *ValueStream) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.current = nil
	s.mu.Unlock()
	s.changes.Publish(ValueChange{Op: ValueDestroyed})
	s.changes.CloseAll()
}

// Subscribe returns a cursor over future value changes and a cancel func to
// detach it.
func (s *ValueStream) Subscribe() (*Subscription[ValueChange], func()) {
	return s.changes.Subscribe()
}
