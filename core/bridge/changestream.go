package bridge

import (
	"context"

	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/streaming"
)

// WireNode is the over-the-wire form of a tree node: its codec-encoded
// payload instead of a typed Value, its hasChildren hint, and (in a
// flattened forest, as encodeForest produces for TreeChangeReplace) the
// parent it hung from, nil for a root.
type WireNode struct {
	ID          streaming.NodeID
	ParentID    *streaming.NodeID
	Bytes       []byte
	HasChildren bool
}

// ListChangeOp identifies the shape of a ListChangeRecord.
type ListChangeOp int

const (
	ListChangeAppend ListChangeOp = iota
	ListChangePop
	ListChangeReplace
	ListChangeHasMorePages
)

// ListChangeRecord is the wire projection of a list input's change stream.
type ListChangeRecord struct {
	Op      ListChangeOp
	Bytes   []byte   // ListChangeAppend
	Items   [][]byte // ListChangeReplace
	HasMore bool     // ListChangeHasMorePages
}

// TreeChangeOp identifies the shape of a TreeChangeRecord.
type TreeChangeOp int

const (
	TreeChangeAppend TreeChangeOp = iota
	TreeChangeRemove
	TreeChangeReplace
)

// TreeChangeRecord is the wire projection of a tree input's change stream.
type TreeChangeRecord struct {
	Op         TreeChangeOp
	Parent     *streaming.NodeID // TreeChangeAppend
	Nodes      []WireNode        // TreeChangeAppend, TreeChangeReplace
	RemovedIDs []streaming.NodeID // TreeChangeRemove
}

// ValueChangeRecord is the wire projection of a value input's change
// stream: an optional codec blob, where Cleared means "no current value"
// (the wire-format "None" case).
type ValueChangeRecord struct {
	Bytes   []byte
	Cleared bool
}

// registryWatcher filters a registry's change broadcast down to
// StreamReplaced events for one resource id, so a change-stream cursor can
// tell when the stream it is tracking has been swapped out from under it.
type registryWatcher struct {
	resourceID uint64
	sub        *streaming.Subscription[registry.Change]
	cancel     func()
}

func newRegistryWatcher(reg *registry.Registry, id uint64) *registryWatcher {
	sub, cancel := reg.Subscribe()
	return &registryWatcher{resourceID: id, sub: sub, cancel: cancel}
}

// pollReplaced reports, without blocking, whether a StreamReplaced(id) has
// already arrived for this watcher's resource.
func (w *registryWatcher) pollReplaced() bool {
	for {
		d, ok := w.sub.Poll()
		if !ok {
			return false
		}
		if d.Event.ID == w.resourceID && d.Event.Op == registry.StreamReplaced {
			return true
		}
	}
}

// waitReplaced blocks until a StreamReplaced(id) for this watcher's
// resource arrives, or ctx is done.
func (w *registryWatcher) waitReplaced(ctx context.Context) error {
	for {
		d, err := w.sub.Next(ctx)
		if err != nil {
			return err
		}
		if d.Event.ID == w.resourceID && d.Event.Op == registry.StreamReplaced {
			return nil
		}
	}
}

func (w *registryWatcher) close() { w.cancel() }

// raceReplaced blocks until either sub yields a delivery or watcher
// observes this resource's stream being replaced, whichever comes first.
// replaced reports which source won.
func raceReplaced[E any](ctx context.Context, sub *streaming.Subscription[E], watcher *registryWatcher) (delivery streaming.Delivery[E], replaced bool, err error) {
	innerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type streamResult struct {
		d   streaming.Delivery[E]
		err error
	}
	streamCh := make(chan streamResult, 1)
	replacedCh := make(chan error, 1)

	go func() {
		d, err := sub.Next(innerCtx)
		streamCh <- streamResult{d, err}
	}()
	go func() {
		replacedCh <- watcher.waitReplaced(innerCtx)
	}()

	select {
	case r := <-streamCh:
		cancel()
		<-replacedCh
		return r.d, false, r.err
	case rerr := <-replacedCh:
		cancel()
		<-streamCh
		if rerr != nil {
			return streaming.Delivery[E]{}, false, rerr
		}
		return streaming.Delivery[E]{}, true, nil
	}
}
