// Package handles implements the typed locator and borrowing-view API a
// host uses to read, mutate, and subscribe to registry-held DataStreams,
// plus binding: redirecting an input's underlying stream to an output's.
//
// A Handle is a cheap, cloneable value carrying a registry, a resource id,
// a kind, and a declared Type — no lock, no live stream reference. Calling
// Load resolves the current registry entry into a short-lived Ref bound
// directly to whichever stream was live at that moment; per the registry's
// StreamReplaced contract, a Ref obtained before a rebind keeps observing
// the stream it was loaded against, not whatever the id is redirected to
// afterwards.
package handles

import (
	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/types"
)

// Handle is a typed, cloneable, lock-free locator for a registry entry.
type Handle struct {
	Registry     *registry.Registry
	ID           uint64
	Kind         registry.Kind
	DeclaredType *types.Type
}

// New constructs a Handle. It does not touch the registry; Kind/DeclaredType
// are the caller's declared expectations, verified against the live entry
// on Load.
func New(reg *registry.Registry, id uint64, kind registry.Kind, declared *types.Type) Handle {
	return Handle{Registry: reg, ID: id, Kind: kind, DeclaredType: declared}
}

func (h Handle) resolve(wantKind registry.Kind) (registry.Metadata, registry.Stream, error) {
	meta, stream, err := h.Registry.Get(h.ID)
	if err != nil {
		return registry.Metadata{}, nil, err
	}
	if meta.Kind != wantKind {
		return registry.Metadata{}, nil, errs.Newf(errs.TypeMismatch, "handle %d is %s, not %s", h.ID, meta.Kind, wantKind)
	}
	if !meta.Type.Equal(h.DeclaredType) {
		return registry.Metadata{}, nil, errs.Newf(errs.TypeMismatch, "handle %d declares %s, entry holds %s", h.ID, types.Print(h.DeclaredType), types.Print(meta.Type))
	}
	return meta, stream, nil
}
