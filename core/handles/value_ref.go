package handles

import (
	"context"

	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

// ValueRef is a borrowing view over a Handle of kind Value.
type ValueRef struct {
	handle Handle
	meta   registry.Metadata
	stream *streaming.ValueStream
}

// LoadValue resolves h against its registry as a Value entry.
func (h Handle) LoadValue() (*ValueRef, error) {
	meta, stream, err := h.resolve(registry.KindValue)
	if err != nil {
		return nil, err
	}
	vs, ok := stream.(*streaming.ValueStream)
	if !ok {
		return nil, errs.Newf(errs.TypeMismatch, "handle %d did not resolve to a ValueStream", h.ID)
	}
	return &ValueRef{handle: h, meta: meta, stream: vs}, nil
}

// Metadata returns this ref's entry metadata as of Load.
func (r *ValueRef) Metadata() registry.Metadata { return r.meta }

// Snapshot returns the current value, or nil if none is set.
func (r *ValueRef) Snapshot() *types.Value { return r.stream.Snapshot() }

// Set replaces the current value.
func (r *ValueRef) Set(v *types.Value) error { return r.stream.Set(v) }

// Destroy tears down the underlying stream.
func (r *ValueRef) Destroy() { r.stream.Destroy() }

// Updates returns an unbounded cursor over change events occurring after
// this call.
func (r *ValueRef) Updates() (*streaming.Subscription[streaming.ValueChange], func()) {
	return r.stream.Subscribe()
}

// Values returns a snapshot-stream: the current snapshot, then a freshly
// re-derived snapshot after every subsequent change.
func (r *ValueRef) Values() *ValueSnapshotStream {
	sub, cancel := r.stream.Subscribe()
	return &ValueSnapshotStream{stream: r.stream, sub: sub, cancel: cancel, first: true}
}

// InnerDataStream exposes the underlying stream reference, used when this
// ref plays the Output side of a binding.
func (r *ValueRef) InnerDataStream() *streaming.ValueStream { return r.stream }

// Bind replaces this ref's registry entry (the Input side) with output's
// underlying stream, provided their declared Types are equal. It leaves the
// input unchanged and returns TypeMismatch otherwise.
func (r *ValueRef) Bind(output *ValueRef) error {
	if !r.meta.Type.Equal(output.meta.Type) {
		return errs.Newf(errs.TypeMismatch, "cannot bind %s to %s", types.Print(output.meta.Type), types.Print(r.meta.Type))
	}
	return r.handle.Registry.ChangeDataStream(r.handle.ID, output.stream)
}

// ValueSnapshotStream is the Values() cursor: each Next call yields the
// current full state rather than a delta.
type ValueSnapshotStream struct {
	stream *streaming.ValueStream
	sub    *streaming.Subscription[streaming.ValueChange]
	cancel func()
	first  bool
}

// Next blocks until a fresh snapshot is available. The very first call
// returns immediately with the snapshot at Values() time.
func (s *ValueSnapshotStream) Next(ctx context.Context) (*types.Value, error) {
	if s.first {
		s.first = false
		return s.stream.Snapshot(), nil
	}
	if _, err := s.sub.Next(ctx); err != nil {
		return nil, err
	}
	return s.stream.Snapshot(), nil
}

// Close detaches the underlying change subscription.
func (s *ValueSnapshotStream) Close() { s.cancel() }
