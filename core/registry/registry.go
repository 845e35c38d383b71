// Package registry implements the per-run collection of DataStreams: an
// id-keyed map with monotonic allocation, metadata lookup, and a
// resource-change broadcast (Added/Removed/StreamReplaced) that lets
// observers holding a stable id detect when the underlying stream behind it
// has been torn down or swapped out from under them.
//
// Grounded on the teacher's registry-style state maps (see core's account
// and validator registries guarded by sync.RWMutex): a single lock protects
// the id→entry map; entries themselves carry their own locking.
package registry

import (
	"sync"

	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

// Kind identifies which stream shape a registry entry wraps.
type Kind int

const (
	KindValue Kind = iota
	KindList
	KindTree
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "Value"
	case KindList:
		return "List"
	case KindTree:
		return "Tree"
	default:
		return "Unknown"
	}
}

// Metadata describes a registry entry independent of its current stream
// reference.
type Metadata struct {
	ID          uint64
	Name        string
	Description string
	Type        *types.Type
	Kind        Kind
}

// Stream is implemented by *streaming.ValueStream, *streaming.ListStream,
// and *streaming.TreeStream: the common surface the registry needs to tear
// a stream down on removal.
type Stream interface {
	Destroy()
}

type entry struct {
	mu     sync.RWMutex
	meta   Metadata
	stream Stream
}

// ChangeOp identifies the shape of a Change.
type ChangeOp int

const (
	Added ChangeOp = iota
	Removed
	StreamReplaced
)

// Change is published whenever the registry's membership or a stream
// reference changes. Meta is populated for Added.
type Change struct {
	Op   ChangeOp
	ID   uint64
	Meta Metadata
}

// Registry is an id-keyed collection of DataStreams for a single run.
type Registry struct {
	mu      sync.RWMutex
	entries map[uint64]*entry
	nextID  uint64
	changes *streaming.Broadcaster[Change]
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[uint64]*entry),
		changes: streaming.NewBroadcaster[Change](streaming.DefaultChangeBuffer),
	}
}

// Add registers a new stream, allocating the next id (one past the highest id
// ever allocated, starting at 0, so ids of removed entries are never reused),
// and broadcasts Added.
func (r *Registry) Add(name, description string, typ *types.Type, kind Kind, initial Stream) uint64 {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	meta := Metadata{ID: id, Name: name, Description: description, Type: typ, Kind: kind}
	r.entries[id] = &entry{meta: meta, stream: initial}
	r.mu.Unlock()
	r.changes.Publish(Change{Op: Added, ID: id, Meta: meta})
	return id
}

// Get returns the metadata and current stream reference for id.
func (r *Registry) Get(id uint64) (Metadata, Stream, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return Metadata{}, nil, errs.Newf(errs.NotFound, "no registry entry with id %d", id)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meta, e.stream, nil
}

// Snapshot returns the metadata for every currently registered entry.
func (r *Registry) Snapshot() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.entries))
	for _, e := range r.entries {
		e.mu.RLock()
		out = append(out, e.meta)
		e.mu.RUnlock()
	}
	return out
}

// ChangeDataStream replaces id's underlying stream reference with
// replacement, preserving id, name, description, and declared Type, then
// broadcasts StreamReplaced(id). It fails with NotFound if id is absent.
func (r *Registry) ChangeDataStream(id uint64, replacement Stream) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return errs.Newf(errs.NotFound, "no registry entry with id %d", id)
	}
	e.mu.Lock()
	e.stream = replacement
	e.mu.Unlock()
	r.changes.Publish(Change{Op: StreamReplaced, ID: id})
	return nil
}

// Remove tears down id's stream (Destroy) and drops it from the registry,
// then broadcasts Removed. It reports whether id was present; removing an
// absent id is not an error.
func (r *Registry) Remove(id uint64) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.RLock()
	stream := e.stream
	e.mu.RUnlock()
	stream.Destroy()
	r.changes.Publish(Change{Op: Removed, ID: id})
	return true
}

// Subscribe returns a cursor over future registry changes.
func (r *Registry) Subscribe() (*streaming.Subscription[Change], func()) {
	return r.changes.Subscribe()
}
