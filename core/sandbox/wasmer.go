package sandbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/fluxbench/commander/core/errs"
)

// WasmerLoader instantiates guest components on a single shared Wasmer
// engine. Grounded on the teacher's HeavyVM: one *wasmer.Engine compiles
// every module, a fresh *wasmer.Store per instance isolates their state.
type WasmerLoader struct {
	engine *wasmer.Engine
}

// NewWasmerLoader creates a loader backed by a fresh Wasmer engine.
func NewWasmerLoader() *WasmerLoader {
	return &WasmerLoader{engine: wasmer.NewEngine()}
}

// Instantiate compiles code and instantiates it against a fresh store. The
// guest is expected to export "memory", an "alloc(len i32) -> i32" guest
// allocator, and its entry points with the (ptr i32, len i32) -> (ptr i32,
// len i32) calling convention used by Invoke.
func (l *WasmerLoader) Instantiate(ctx context.Context, code []byte) (Instance, error) {
	store := wasmer.NewStore(l.engine)
	mod, err := wasmer.NewModule(store, code)
	if err != nil {
		return nil, errs.Wrap(errs.GuestFailed, err, "compiling guest module")
	}

	memHolder := &memoryHolder{}
	imports := wasmer.NewImportObject()
	imports.Register("env", map[string]wasmer.IntoExtern{
		"host_log": hostLogFunction(store, memHolder),
	})

	inst, err := wasmer.NewInstance(mod, imports)
	if err != nil {
		return nil, errs.Wrap(errs.GuestFailed, err, "instantiating guest module")
	}

	mem, err := inst.Exports.GetMemory("memory")
	if err != nil {
		return nil, errs.Wrap(errs.GuestFailed, err, "guest module has no exported memory")
	}
	memHolder.mem = mem
	alloc, err := inst.Exports.GetFunction("alloc")
	if err != nil {
		return nil, errs.Wrap(errs.GuestFailed, err, "guest module has no exported alloc")
	}

	id := uuid.New()
	logrus.WithField("instance", id).Debug("guest module instantiated")
	return &wasmerInstance{id: id, store: store, instance: inst, memory: mem, alloc: alloc}, nil
}

// memoryHolder lets host_log close over the instance's memory export before
// it exists: NewInstance must run before GetMemory, but the import object
// passed to NewInstance is built first. Grounded on the teacher's hostCtx,
// whose mem field is likewise populated after instance creation.
type memoryHolder struct {
	mem *wasmer.Memory
}

// hostLogFunction is the one guest-callable host import this loader wires:
// host_log(ptr, len) lets a guest forward a message to the host's logger.
// The rest of the bridge's capability surface (creating outputs, polling
// changes, requesting pages) is not wired as host imports, and Invoke only
// calls guest exports, so a guest cannot reach it; it is used from the host
// side through core/bridge. See DESIGN.md.
func hostLogFunction(store *wasmer.Store, mem *memoryHolder) *wasmer.Function {
	return wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32)),
			wasmer.NewValueTypes(),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			ptr, length := args[0].I32(), args[1].I32()
			msg := make([]byte, length)
			copy(msg, mem.mem.Data()[ptr:ptr+length])
			logrus.WithField("source", "guest").Info(string(msg))
			return nil, nil
		},
	)
}

type wasmerInstance struct {
	id       uuid.UUID
	store    *wasmer.Store
	instance *wasmer.Instance
	memory   *wasmer.Memory
	alloc    *wasmer.Function
}

// writeBytes copies data into guest memory via the guest's own allocator and
// returns the pointer it was written at.
func (w *wasmerInstance) writeBytes(data []byte) (int32, error) {
	res, err := w.alloc(int32(len(data)))
	if err != nil {
		return 0, errs.Wrap(errs.GuestFailed, err, "guest alloc trapped")
	}
	ptr, ok := res.(int32)
	if !ok {
		return 0, errs.Newf(errs.GuestFailed, "guest alloc returned unexpected type %T", res)
	}
	copy(w.memory.Data()[ptr:], data)
	return ptr, nil
}

func (w *wasmerInstance) readBytes(ptr, length int32) []byte {
	out := make([]byte, length)
	copy(out, w.memory.Data()[ptr:ptr+length])
	return out
}

// Invoke calls a guest export of the form (ptr i32, len i32, ...) -> (ptr
// i32, len i32), concatenating multiple args as successive (ptr, len)
// pairs, and returns the guest's single (ptr, len) result as one buffer.
func (w *wasmerInstance) Invoke(ctx context.Context, function string, args [][]byte) ([][]byte, error) {
	fn, err := w.instance.Exports.GetFunction(function)
	if err != nil {
		return nil, errs.Wrap(errs.GuestFailed, err, fmt.Sprintf("guest export %q not found", function))
	}

	type outcome struct {
		result interface{}
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		callArgs := make([]interface{}, 0, len(args)*2)
		for _, a := range args {
			ptr, err := w.writeBytes(a)
			if err != nil {
				done <- outcome{err: err}
				return
			}
			callArgs = append(callArgs, ptr, int32(len(a)))
		}
		res, err := fn(callArgs...)
		done <- outcome{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		if o.err != nil {
			logrus.WithError(o.err).WithField("instance", w.id).WithField("function", function).Warn("guest entry point trapped")
			return nil, errs.Wrap(errs.GuestFailed, o.err, "guest entry point trapped")
		}
		vals, ok := o.result.([]interface{})
		if !ok || len(vals) != 2 {
			return nil, errs.Newf(errs.GuestFailed, "guest export %q returned unexpected shape", function)
		}
		ptr, ok1 := vals[0].(int32)
		length, ok2 := vals[1].(int32)
		if !ok1 || !ok2 {
			return nil, errs.Newf(errs.GuestFailed, "guest export %q returned non-i32 result", function)
		}
		return [][]byte{w.readBytes(ptr, length)}, nil
	}
}

func (w *wasmerInstance) Close() error {
	return nil
}
