package streaming

import (
	"sync"

	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/types"
)

// NodeID identifies a node within a TreeStream.
type NodeID string

// Node is a single tree entry as passed into Add: an id, its typed payload,
// and a hint that it has children the producer has chosen not to
// materialize yet (the consumer may RequestChildren to ask for them).
type Node struct {
	ID          NodeID
	Value       *types.Value
	HasChildren bool
}

// SnapshotNode is a Node plus its currently-known children, as returned by
// Snapshot.
type SnapshotNode struct {
	Node
	Children []SnapshotNode
}

// TreeOp identifies the shape of a TreeChange.
type TreeOp int

const (
	TreeAdd TreeOp = iota
	TreeRemove
	TreeClear
	TreeDestroyed
)

// TreeChange is published for every tree mutation. Parent/Children are
// meaningful for TreeAdd; Removed is meaningful for TreeRemove.
type TreeChange struct {
	Op       TreeOp
	Parent   *NodeID
	Children []Node
	Removed  NodeID
}

type treeNode struct {
	value       *types.Value
	hasChildren bool
	parent      *NodeID
	children    []NodeID
}

// TreeStream holds a forest of typed nodes (all node values share one
// element type) addressed by NodeID, with parent/child structure maintained
// alongside a flat lookup table. It broadcasts shape changes forward and
// expand-children requests backward.
type TreeStream struct {
	mu        sync.RWMutex
	elem      *types.Type
	nodes     map[NodeID]*treeNode
	roots     []NodeID
	changes   *Broadcaster[TreeChange]
	requests  *Broadcaster[NodeID]
	destroyed bool
}

// NewTreeStream creates an empty tree of elem-typed node values.
func NewTreeStream(elem *types.Type) *TreeStream {
	return &TreeStream{
		elem:     elem,
		nodes:    make(map[NodeID]*treeNode),
		changes:  NewBroadcaster[TreeChange](DefaultChangeBuffer),
		requests: NewBroadcaster[NodeID](DefaultRequestBuffer),
	}
}

// Type reports the node element type.
func (s *TreeStream) Type() *types.Type { return s.elem }

// Add inserts children under parent (nil for the forest root). It fails
// with errs.NotFound if parent is non-nil and does not exist, and with
// errs.InvalidOperation if any child id is already in use (in this batch or
// already present in the tree).
func (s *TreeStream) Add(parent *NodeID, children []Node) error {
	for _, c := range children {
		if c.ID == "" {
			return errs.New(errs.InvalidOperation, "node id must not be empty")
		}
		if err := types.Check(s.elem, c.Value); err != nil {
			return err
		}
	}
	seen := make(map[NodeID]struct{}, len(children))
	for _, c := range children {
		if _, dup := seen[c.ID]; dup {
			return errs.Newf(errs.InvalidOperation, "duplicate node id %q in add batch", c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errs.New(errs.Destroyed, "tree stream destroyed")
	}
	if parent != nil {
		if _, ok := s.nodes[*parent]; !ok {
			s.mu.Unlock()
			return errs.Newf(errs.NotFound, "parent node %q not found", *parent)
		}
	}
	for _, c := range children {
		if _, exists := s.nodes[c.ID]; exists {
			s.mu.Unlock()
			return errs.Newf(errs.InvalidOperation, "node %q already exists", c.ID)
		}
	}
	for _, c := range children {
		s.nodes[c.ID] = &treeNode{value: c.Value, hasChildren: c.HasChildren, parent: parent}
		if parent == nil {
			s.roots = append(s.roots, c.ID)
		} else {
			s.nodes[*parent].children = append(s.nodes[*parent].children, c.ID)
		}
	}
	s.mu.Unlock()
	s.changes.Publish(TreeChange{Op: TreeAdd, Parent: parent, Children: children})
	return nil
}

// Remove deletes a node and its entire subtree (depth-first), publishing
// one TreeRemove event per deleted node in pre-order.
func (s *TreeStream) Remove(id NodeID) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errs.New(errs.Destroyed, "tree stream destroyed")
	}
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return errs.Newf(errs.NotFound, "node %q not found", id)
	}
	removed := s.collectSubtreeLocked(id)
	for _, d := range removed {
		delete(s.nodes, d)
	}
	if n.parent == nil {
		s.roots = removeID(s.roots, id)
	} else if p, ok := s.nodes[*n.parent]; ok {
		p.children = removeID(p.children, id)
	}
	s.mu.Unlock()
	for _, id := range removed {
		s.changes.Publish(TreeChange{Op: TreeRemove, Removed: id})
	}
	return nil
}

// collectSubtreeLocked returns id followed by every descendant, in
// pre-order. Caller must hold s.mu.
func (s *TreeStream) collectSubtreeLocked(id NodeID) []NodeID {
	out := []NodeID{id}
	n := s.nodes[id]
	for _, c := range n.children {
		out = append(out, s.collectSubtreeLocked(c)...)
	}
	return out
}

func removeID(ids []NodeID, target NodeID) []NodeID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Clear empties the node and edge maps and broadcasts TreeClear.
func (s *TreeStream) Clear() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errs.New(errs.Destroyed, "tree stream destroyed")
	}
	s.nodes = make(map[NodeID]*treeNode)
	s.roots = nil
	s.mu.Unlock()
	s.changes.Publish(TreeChange{Op: TreeClear})
	return nil
}

// Snapshot returns the forest rooted at "no parent" as a recursive node
// structure, in insertion order.
func (s *TreeStream) Snapshot() []SnapshotNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotChildrenLocked(s.roots)
}

func (s *TreeStream) snapshotChildrenLocked(ids []NodeID) []SnapshotNode {
	out := make([]SnapshotNode, 0, len(ids))
	for _, id := range ids {
		n := s.nodes[id]
		out = append(out, SnapshotNode{
			Node:     Node{ID: id, Value: n.value, HasChildren: n.hasChildren},
			Children: s.snapshotChildrenLocked(n.children),
		})
	}
	return out
}

// RequestChildren sends parentId on the back-channel and returns true,
// unless parentId is absent from the tree, in which case it returns false
// and sends nothing.
func (s *TreeStream) RequestChildren(parentID NodeID) bool {
	s.mu.RLock()
	_, ok := s.nodes[parentID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	s.requests.Publish(parentID)
	return true
}

// Destroy empties the tree, broadcasts TreeDestroyed, and closes both
// broadcasts.
func (s *TreeStream) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.nodes = nil
	s.roots = nil
	s.mu.Unlock()
	s.changes.Publish(TreeChange{Op: TreeDestroyed})
	s.changes.CloseAll()
	s.requests.CloseAll()
}

// Subscribe returns a cursor over future tree changes.
func (s *TreeStream) Subscribe() (*Subscription[TreeChange], func()) {
	return s.changes.Subscribe()
}

// SubscribeRequests returns a cursor over future expand-children requests.
func (s *TreeStream) SubscribeRequests() (*Subscription[NodeID], func()) {
	return s.requests.Subscribe()
}
