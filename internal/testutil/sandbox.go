// Package testutil collects small test helpers shared across the core
// packages: a scratch directory for guest bytecode fixtures and a fake
// sandbox.Loader that lets core/runner tests exercise the full RunBuilder
// lifecycle without a real Wasmer module.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluxbench/commander/core/sandbox"
)

// Workspace provides an isolated temporary directory for guest bytecode
// fixtures used by a test.
type Workspace struct {
	Root string
}

// NewWorkspace creates a Workspace rooted at a temporary directory.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "commander_test")
	if err != nil {
		return nil, err
	}
	return &Workspace{Root: dir}, nil
}

// Path returns the absolute path for a file within the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Root, name)
}

// WriteFile writes data to the named file inside the workspace.
func (w *Workspace) WriteFile(name string, data []byte) error {
	return os.WriteFile(w.Path(name), data, 0o600)
}

// Cleanup removes the workspace and everything inside it.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Root)
}

// FakeInstance is an in-process stand-in for a sandbox.Instance: tests
// register a Go closure per guest export name instead of compiling a real
// module.
type FakeInstance struct {
	Functions map[string]func(ctx context.Context, args [][]byte) ([][]byte, error)
	closed    bool
}

// Invoke dispatches to the registered closure for function.
func (f *FakeInstance) Invoke(ctx context.Context, function string, args [][]byte) ([][]byte, error) {
	fn, ok := f.Functions[function]
	if !ok {
		return nil, fmt.Errorf("fake instance: no function %q registered", function)
	}
	return fn(ctx, args)
}

// Close marks the instance closed. Safe to call more than once.
func (f *FakeInstance) Close() error {
	f.closed = true
	return nil
}

// FakeLoader always hands back the same pre-built FakeInstance, regardless
// of the bytecode passed to Instantiate.
type FakeLoader struct {
	Instance *FakeInstance
}

// Instantiate satisfies sandbox.Loader.
func (l *FakeLoader) Instantiate(ctx context.Context, code []byte) (sandbox.Instance, error) {
	return l.Instance, nil
}
