package runner

import (
	"context"
	"encoding/json"

	"github.com/fluxbench/commander/core/bridge"
	"github.com/fluxbench/commander/core/errs"
	"github.com/fluxbench/commander/core/handles"
	"github.com/fluxbench/commander/core/registry"
	"github.com/fluxbench/commander/core/sandbox"
)

// Run is a live or completed guest invocation. Its inputs and outputs
// registries outlive the guest task so a host may still inspect the
// terminal snapshot after completion.
type Run struct {
	inst       sandbox.Instance
	inputsReg  *registry.Registry
	outputsReg *registry.Registry
	inBridge   *bridge.Bridge
	outBridge  *bridge.Bridge
	finished   chan struct{}
	result     Result
}

func (r *Run) finish(res Result) {
	r.result = res
	close(r.finished)
}

func (r *Run) invoke(ctx context.Context, argBytes []byte) {
	out, err := r.inst.Invoke(ctx, "run", [][]byte{argBytes})
	if err != nil {
		r.finish(Result{Outcome: SandboxTrap, Message: err.Error()})
		return
	}
	if len(out) != 1 {
		r.finish(Result{Outcome: SandboxTrap, Message: "run returned an unexpected number of buffers"})
		return
	}
	var wr wireResult
	if err := json.Unmarshal(out[0], &wr); err != nil {
		r.finish(Result{Outcome: SandboxTrap, Message: "run returned a malformed result"})
		return
	}
	if wr.Ok {
		r.finish(Result{Outcome: Success, Message: wr.Message})
	} else {
		r.finish(Result{Outcome: GuestError, Message: wr.Message})
	}
}

// Inputs is the Run's façade onto its input registry: the arguments bound
// or auto-created at Start.
type Inputs struct {
	reg    *registry.Registry
	bridge *bridge.Bridge
}

// Lookup returns a Handle for the input named name.
func (in *Inputs) Lookup(name string) (handles.Handle, error) {
	for _, m := range in.reg.Snapshot() {
		if m.Name == name {
			return handles.New(in.reg, m.ID, m.Kind, m.Type), nil
		}
	}
	return handles.Handle{}, errs.Newf(errs.NotFound, "no input named %q", name)
}

// List returns metadata for every registered input.
func (in *Inputs) List() []registry.Metadata { return in.reg.Snapshot() }

// Bridge exposes the guest-facing read surface over these inputs.
func (in *Inputs) Bridge() *bridge.Bridge { return in.bridge }

// Outputs is the Run's façade onto its output registry: streams the guest
// creates via the bridge as it executes.
type Outputs struct {
	reg    *registry.Registry
	bridge *bridge.Bridge
}

// Lookup returns a Handle for the output named name.
func (out *Outputs) Lookup(name string) (handles.Handle, error) {
	for _, m := range out.reg.Snapshot() {
		if m.Name == name {
			return handles.New(out.reg, m.ID, m.Kind, m.Type), nil
		}
	}
	return handles.Handle{}, errs.Newf(errs.NotFound, "no output named %q", name)
}

// List returns metadata for every registered output.
func (out *Outputs) List() []registry.Metadata { return out.reg.Snapshot() }

// Bridge exposes the guest-facing create surface over these outputs.
func (out *Outputs) Bridge() *bridge.Bridge { return out.bridge }

// Inputs returns the façade onto this run's input registry.
func (r *Run) Inputs() *Inputs { return &Inputs{reg: r.inputsReg, bridge: r.inBridge} }

// Outputs returns the façade onto this run's output registry.
func (r *Run) Outputs() *Outputs { return &Outputs{reg: r.outputsReg, bridge: r.outBridge} }

// GetResult suspends until the guest's run entry point returns, or ctx is
// done first.
func (r *Run) GetResult(ctx context.Context) (Result, error) {
	select {
	case <-r.finished:
		return r.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
