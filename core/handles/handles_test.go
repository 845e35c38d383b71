package handles

import (
	"context"
	"testing"
	"time"

	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

func TestValueRefSetAndSnapshot(t *testing.T) {
	reg := registry.New()
	vs, err := streaming.NewValueStream(types.NumberType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	id := reg.Add("v", "", types.NumberType(), registry.KindValue, vs)
	h := New(reg, id, registry.KindValue, types.NumberType())

	ref, err := h.LoadValue()
	if err != nil {
		t.Fatalf("LoadValue: %v", err)
	}
	if err := ref.Set(types.Num(7)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ref.Snapshot().Number() != 7 {
		t.Fatalf("want 7, got %v", ref.Snapshot())
	}
}

func TestLoadWrongKindFails(t *testing.T) {
	reg := registry.New()
	vs, err := streaming.NewValueStream(types.NumberType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	id := reg.Add("v", "", types.NumberType(), registry.KindValue, vs)
	h := New(reg, id, registry.KindValue, types.NumberType())

	if _, err := h.LoadList(); err == nil {
		t.Fatalf("expected LoadList on a Value handle to fail")
	}
}

func TestBindRejectsMismatchedTypes(t *testing.T) {
	reg := registry.New()
	in, err := streaming.NewValueStream(types.NumberType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	inID := reg.Add("in", "", types.NumberType(), registry.KindValue, in)
	inHandle := New(reg, inID, registry.KindValue, types.NumberType())
	inRef, err := inHandle.LoadValue()
	if err != nil {
		t.Fatalf("LoadValue: %v", err)
	}

	out, err := streaming.NewValueStream(types.StringType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	outID := reg.Add("out", "", types.StringType(), registry.KindValue, out)
	outHandle := New(reg, outID, registry.KindValue, types.StringType())
	outRef, err := outHandle.LoadValue()
	if err != nil {
		t.Fatalf("LoadValue: %v", err)
	}

	if err := inRef.Bind(outRef); err == nil {
		t.Fatalf("expected Bind to fail on mismatched declared types")
	}

	meta, stream, err := reg.Get(inID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stream != registry.Stream(in) || !meta.Type.Equal(types.NumberType()) {
		t.Fatalf("expected input entry unchanged after a failed bind")
	}
}

// TestBindTwoRunsScenario mirrors the canonical bind scenario: run A exposes
// a list<string> output, run B declares a list<string> input. A subscription
// taken on B's input before the bind stays on B's original stream and does
// not see A's write; a ref loaded after the bind does.
func TestBindTwoRunsScenario(t *testing.T) {
	elemType := types.StringType()
	listType := types.NewList(elemType)

	regA := registry.New()
	outStream := streaming.NewListStream(elemType)
	outID := regA.Add("Out", "", listType, registry.KindList, outStream)
	outHandle := New(regA, outID, registry.KindList, listType)
	outRef, err := outHandle.LoadList()
	if err != nil {
		t.Fatalf("LoadList: %v", err)
	}

	regB := registry.New()
	inStream := streaming.NewListStream(elemType)
	inID := regB.Add("In", "", listType, registry.KindList, inStream)
	inHandle := New(regB, inID, registry.KindList, listType)
	inRef, err := inHandle.LoadList()
	if err != nil {
		t.Fatalf("LoadList: %v", err)
	}

	// Subscribe before binding, as the registry contract requires a
	// pre-bind subscriber to keep observing whatever it already holds.
	preSub, preCancel := inRef.Updates()
	defer preCancel()

	if err := inRef.Bind(outRef); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	// The in-flight subscription was taken against the original stream, so
	// it never sees A's write; that is the registry's documented contract
	// for direct stream references obtained before a rebind.
	if err := outStream.Add(types.Str("x")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ctx, done := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer done()
	if _, err := preSub.Next(ctx); err == nil {
		t.Fatalf("expected the pre-bind subscription to time out, not see A's write")
	}

	// A freshly-loaded ref after the bind observes the new stream directly.
	postRef, err := inHandle.LoadList()
	if err != nil {
		t.Fatalf("LoadList after bind: %v", err)
	}
	if len(postRef.Snapshot()) != 1 || postRef.Snapshot()[0].Text() != "x" {
		t.Fatalf("expected the rebound input to see A's write, got %+v", postRef.Snapshot())
	}
}

func TestRebindReplacesPreviousReference(t *testing.T) {
	elemType := types.NumberType()
	reg := registry.New()
	inStream := streaming.NewListStream(elemType)
	inID := reg.Add("in", "", elemType, registry.KindList, inStream)
	inHandle := New(reg, inID, registry.KindList, elemType)
	inRef, err := inHandle.LoadList()
	if err != nil {
		t.Fatalf("LoadList: %v", err)
	}

	first := streaming.NewListStream(elemType)
	firstID := reg.Add("first-out", "", elemType, registry.KindList, first)
	firstRef, err := New(reg, firstID, registry.KindList, elemType).LoadList()
	if err != nil {
		t.Fatalf("LoadList: %v", err)
	}
	if err := inRef.Bind(firstRef); err != nil {
		t.Fatalf("Bind first: %v", err)
	}

	second := streaming.NewListStream(elemType)
	if err := second.Add(types.Num(9)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	secondID := reg.Add("second-out", "", elemType, registry.KindList, second)
	secondRef, err := New(reg, secondID, registry.KindList, elemType).LoadList()
	if err != nil {
		t.Fatalf("LoadList: %v", err)
	}
	if err := inRef.Bind(secondRef); err != nil {
		t.Fatalf("Bind second: %v", err)
	}

	reloaded, err := inHandle.LoadList()
	if err != nil {
		t.Fatalf("LoadList: %v", err)
	}
	if len(reloaded.Snapshot()) != 1 || reloaded.Snapshot()[0].Number() != 9 {
		t.Fatalf("expected rebind to silently replace the previous reference, got %+v", reloaded.Snapshot())
	}
}

func TestTreeRefAddRemove(t *testing.T) {
	elemType := types.StringType()
	reg := registry.New()
	ts := streaming.NewTreeStream(elemType)
	id := reg.Add("tree", "", elemType, registry.KindTree, ts)
	ref, err := New(reg, id, registry.KindTree, elemType).LoadTree()
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if err := ref.Add(nil, []streaming.Node{{ID: "a", Value: types.Str("x")}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(ref.Snapshot()) != 1 {
		t.Fatalf("expected one root node")
	}
	if err := ref.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(ref.Snapshot()) != 0 {
		t.Fatalf("expected empty forest after remove")
	}
}
