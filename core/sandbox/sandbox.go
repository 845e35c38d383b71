// Package sandbox defines the narrow surface the program runner needs from
// the component loader: instantiate a module from its compiled bytecode,
// invoke one of its exported functions asynchronously, and pass typed
// resource handles in and out as opaque byte buffers. The loader itself
// (filesystem/HTTP capability grants, the actual bytecode interpreter) is an
// external collaborator; core/runner and core/bridge depend only on this
// interface.
package sandbox

import "context"

// Instance is a single loaded guest module ready to receive calls.
type Instance interface {
	// Invoke calls a guest-exported function by name, passing args as
	// opaque byte buffers and returning its byte-buffer results. The call
	// runs as a background task; Invoke blocks the caller only until the
	// task completes or ctx is done, in which case the task is abandoned
	// and ctx.Err() is returned.
	Invoke(ctx context.Context, function string, args [][]byte) ([][]byte, error)
	// Close releases the instance's sandbox resources. Safe to call more
	// than once.
	Close() error
}

// Loader instantiates guest modules from their compiled bytecode.
type Loader interface {
	Instantiate(ctx context.Context, code []byte) (Instance, error)
}
