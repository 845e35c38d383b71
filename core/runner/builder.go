package runner

import (
	"context"
	"encoding/json"

	"github.com/fluxbench/commander/core/bridge"
	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/handles"
	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/sandbox"
	"github.com/fluxbench/commander/core/streaming"
	"github.com/fluxbench/commander/core/types"
)

// RunBuilder instantiates a guest against a loader, reads its schema, and
// accumulates argument configuration before spawning the run as a
// background task.
type RunBuilder struct {
	inst      sandbox.Instance
	schema    Schema
	inputsReg *registry.Registry
	inBridge  *bridge.Bridge
	handles   map[string]handles.Handle
}

// NewRunBuilder instantiates code against loader and fetches its schema.
func NewRunBuilder(ctx context.Context, loader sandbox.Loader, code []byte) (*RunBuilder, error) {
	inst, err := loader.Instantiate(ctx, code)
	if err != nil {
		return nil, err
	}
	out, err := inst.Invoke(ctx, "get-schema", nil)
	if err != nil {
		inst.Close()
		return nil, err
	}
	if len(out) != 1 {
		inst.Close()
		return nil, errs.Newf(errs.GuestFailed, "get-schema returned %d buffers, want 1", len(out))
	}
	schema, err := parseSchema(out[0])
	if err != nil {
		inst.Close()
		return nil, err
	}
	reg := registry.New()
	return &RunBuilder{
		inst:      inst,
		schema:    schema,
		inputsReg: reg,
		inBridge:  bridge.New(reg),
		handles:   make(map[string]handles.Handle),
	}, nil
}

// Schema returns the guest's declared schema.
func (b *RunBuilder) Schema() Schema { return b.schema }

func (b *RunBuilder) requireUnconfigured(name string) (ArgumentSpec, error) {
	spec, ok := b.schema.spec(name)
	if !ok {
		return ArgumentSpec{}, errs.Newf(errs.NotFound, "no argument spec named %q", name)
	}
	if _, done := b.handles[name]; done {
		return ArgumentSpec{}, errs.Newf(errs.InvalidOperation, "argument %q already configured", name)
	}
	return spec, nil
}

// entryType maps a spec's full declared type (e.g. list<string>) onto the
// Type a registry entry of kind stores for it. List and Tree entries store
// their element type, never the list<T> wrapper — the same convention
// core/bridge's AddListInput/AddListOutput/AddTreeInput/AddTreeOutput use —
// so that handles.ListRef.Bind/TreeRef.Bind and the bridge's change-stream
// encoders all compare the same representation.
func entryType(declared *types.Type, kind registry.Kind) (*types.Type, error) {
	isListLike := kind == registry.KindList || kind == registry.KindTree
	if isListLike != (declared.Kind() == types.List) {
		return nil, errs.Newf(errs.TypeMismatch, "kind %s does not match declared type %s", kind, types.Print(declared))
	}
	if isListLike {
		return declared.Elem(), nil
	}
	return declared, nil
}

// BindArgument wires spec's input directly onto an existing output's
// underlying stream, the same way handles.ValueRef.Bind/ListRef.Bind
// redirect an input's registry entry.
func (b *RunBuilder) BindArgument(specName string, output handles.Handle) error {
	spec, err := b.requireUnconfigured(specName)
	if err != nil {
		return err
	}
	declared, err := types.Parse(spec.TypeString)
	if err != nil {
		return err
	}
	et, err := entryType(declared, output.Kind)
	if err != nil {
		return err
	}
	if !et.Equal(output.DeclaredType) {
		return errs.Newf(errs.TypeMismatch, "argument %q expects %s, output declares %s", specName, types.Print(et), types.Print(output.DeclaredType))
	}
	_, stream, err := output.Registry.Get(output.ID)
	if err != nil {
		return err
	}
	id := b.inputsReg.Add(spec.Name, spec.Description, et, output.Kind, stream)
	b.handles[specName] = handles.New(b.inputsReg, id, output.Kind, et)
	return nil
}

// SetValueArgument creates a freshly owned ValueStream seeded with v and
// registers it as spec's input.
func (b *RunBuilder) SetValueArgument(specName string, v *types.Value) error {
	spec, err := b.requireUnconfigured(specName)
	if err != nil {
		return err
	}
	declared, err := types.Parse(spec.TypeString)
	if err != nil {
		return err
	}
	vs, err := streaming.NewValueStream(declared, v)
	if err != nil {
		return err
	}
	id := b.inputsReg.Add(spec.Name, spec.Description, declared, registry.KindValue, vs)
	b.handles[specName] = handles.New(b.inputsReg, id, registry.KindValue, declared)
	return nil
}

// BuildArguments lets the caller construct an arbitrary stream per spec not
// yet configured, registering whatever build returns as that spec's input.
func (b *RunBuilder) BuildArguments(build func(spec ArgumentSpec) (registry.Stream, registry.Kind, error)) error {
	for _, spec := range b.schema.Arguments {
		if _, done := b.handles[spec.Name]; done {
			continue
		}
		declared, err := types.Parse(spec.TypeString)
		if err != nil {
			return err
		}
		stream, kind, err := build(spec)
		if err != nil {
			return err
		}
		et, err := entryType(declared, kind)
		if err != nil {
			return err
		}
		id := b.inputsReg.Add(spec.Name, spec.Description, et, kind, stream)
		b.handles[spec.Name] = handles.New(b.inputsReg, id, kind, et)
	}
	return nil
}

// Start auto-creates a default stream for every argument spec left
// unconfigured — a generic list<T> input for list-typed specs, otherwise an
// empty ValueStream — then invokes the guest's run entry point as a
// background task.
func (b *RunBuilder) Start(ctx context.Context) (*Run, error) {
	for _, spec := range b.schema.Arguments {
		if _, done := b.handles[spec.Name]; done {
			continue
		}
		declared, err := types.Parse(spec.TypeString)
		if err != nil {
			return nil, err
		}
		var id uint64
		var kind registry.Kind
		var et *types.Type
		if declared.Kind() == types.List {
			et = declared.Elem()
			ls := streaming.NewListStream(et)
			kind = registry.KindList
			id = b.inputsReg.Add(spec.Name, spec.Description, et, kind, ls)
		} else {
			et = declared
			vs, err := streaming.NewValueStream(et, nil)
			if err != nil {
				return nil, err
			}
			kind = registry.KindValue
			id = b.inputsReg.Add(spec.Name, spec.Description, et, kind, vs)
		}
		b.handles[spec.Name] = handles.New(b.inputsReg, id, kind, et)
	}

	argIDs := make(map[string]uint64, len(b.handles))
	for name, h := range b.handles {
		argIDs[name] = h.ID
	}
	argBytes, err := json.Marshal(argIDs)
	if err != nil {
		return nil, errs.Wrap(errs.CodecDecode, err, "encoding argument handle map")
	}

	outputsReg := registry.New()
	run := &Run{
		inst:       b.inst,
		inputsReg:  b.inputsReg,
		outputsReg: outputsReg,
		inBridge:   b.inBridge,
		outBridge:  bridge.New(outputsReg),
		finished:   make(chan struct{}),
	}
	go run.invoke(ctx, argBytes)
	return run, nil
}
