// Package bridge translates a guest's resource operations into registry and
// DataStream operations: it is the concrete implementation of the
// guest-facing capability surface a sandboxed program receives when
// instantiated (add*Output, the symmetric input readers, and the polling
// cursors both sides observe each other through).
//
// Grounded on the teacher's capability-surface style for contract-facing
// host calls (see core/virtual_machine.go's gas-metered opcode dispatch):
// every guest-visible operation here is a narrow, typed method with no
// hidden state beyond the registry and stream it wraps.
package bridge

import (
	"github.com/fluxbench/commander/core/handles"
	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

// Bridge wires a single run's registry to the guest-facing add*/open*
// operations. A Run holds exactly one Bridge.
type Bridge struct {
	reg *registry.Registry
}

// New creates a Bridge over reg.
func New(reg *registry.Registry) *Bridge {
	return &Bridge{reg: reg}
}

// AddValueOutput registers a fresh Value stream the guest owns and writes
// to, seeded with initial (nil means unset).
func (b *Bridge) AddValueOutput(name, description string, typ *types.Type, initial *types.Value) (handles.Handle, error) {
	vs, err := streaming.NewValueStream(typ, initial)
	if err != nil {
		return handles.Handle{}, err
	}
	id := b.reg.Add(name, description, typ, registry.KindValue, vs)
	return handles.New(b.reg, id, registry.KindValue, typ), nil
}

// AddListOutput registers a fresh, empty List stream the guest owns.
func (b *Bridge) AddListOutput(name, description string, elem *types.Type) handles.Handle {
	ls := streaming.NewListStream(elem)
	id := b.reg.Add(name, description, elem, registry.KindList, ls)
	return handles.New(b.reg, id, registry.KindList, elem)
}

// AddTreeOutput registers a fresh, empty Tree stream the guest owns.
func (b *Bridge) AddTreeOutput(name, description string, elem *types.Type) handles.Handle {
	ts := streaming.NewTreeStream(elem)
	id := b.reg.Add(name, description, elem, registry.KindTree, ts)
	return handles.New(b.reg, id, registry.KindTree, elem)
}

// AddValueInput registers a placeholder Value entry the host will later
// bind to some other run's output via handles.ValueRef.Bind.
func (b *Bridge) AddValueInput(name, description string, typ *types.Type) (handles.Handle, error) {
	vs, err := streaming.NewValueStream(typ, nil)
	if err != nil {
		return handles.Handle{}, err
	}
	id := b.reg.Add(name, description, typ, registry.KindValue, vs)
	return handles.New(b.reg, id, registry.KindValue, typ), nil
}

// AddListInput registers a placeholder, empty List entry awaiting a bind.
func (b *Bridge) AddListInput(name, description string, elem *types.Type) handles.Handle {
	ls := streaming.NewListStream(elem)
	id := b.reg.Add(name, description, elem, registry.KindList, ls)
	return handles.New(b.reg, id, registry.KindList, elem)
}

// AddTreeInput registers a placeholder, empty Tree entry awaiting a bind.
func (b *Bridge) AddTreeInput(name, description string, elem *types.Type) handles.Handle {
	ts := streaming.NewTreeStream(elem)
	id := b.reg.Add(name, description, elem, registry.KindTree, ts)
	return handles.New(b.reg, id, registry.KindTree, elem)
}

// OpenValueChanges opens a guest-facing cursor over h's change stream,
// multiplexing rebinds transparently.
func (b *Bridge) OpenValueChanges(h handles.Handle) (*ValueChangeStream, error) {
	return newValueChangeStream(h)
}

// OpenListChanges opens a guest-facing cursor over h's change stream.
func (b *Bridge) OpenListChanges(h handles.Handle) (*ListChangeStream, error) {
	return newListChangeStream(h)
}

// OpenTreeChanges opens a guest-facing cursor over h's change stream.
func (b *Bridge) OpenTreeChanges(h handles.Handle) (*TreeChangeStream, error) {
	return newTreeChangeStream(h)
}

// ListRequests opens the page-request back-channel for a List output h
// owns. Back-channels need no rebind multiplexing: they belong to outputs
// the guest itself created, which are never rebound.
func (b *Bridge) ListRequests(h handles.Handle) (*RequestStream[uint32], error) {
	ref, err := h.LoadList()
	if err != nil {
		return nil, err
	}
	sub, cancel := ref.InnerDataStream().SubscribeRequests()
	return newRequestStream(sub, cancel), nil
}

// TreeRequests opens the expand-children back-channel for a Tree output h
// owns.
func (b *Bridge) TreeRequests(h handles.Handle) (*RequestStream[streaming.NodeID], error) {
	ref, err := h.LoadTree()
	if err != nil {
		return nil, err
	}
	sub, cancel := ref.InnerDataStream().SubscribeRequests()
	return newRequestStream(sub, cancel), nil
}
