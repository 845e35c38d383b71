// Package runner implements the program runner (component G): it loads a
// guest module through core/sandbox, reads its schema, binds or
// auto-creates an input stream per argument spec in core/registry, and
// spawns the guest's run entry point as a background task whose inputs,
// outputs, and terminal result are exposed via a Run handle.
//
// Grounded on the teacher's builder-then-background-task style (see
// core/virtual_machine.go's Execute, which compiles, wires imports, then
// runs the guest as a bounded unit of work and reports a terminal Receipt).
package runner

import (
	"encoding/json"

	"github.com/fluxbench/commander/core/errs"
)

// ArgumentSpec describes one of a program's declared arguments.
type ArgumentSpec struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	TypeString      string `json:"typeString"`
	SupportsUpdates bool   `json:"supportsUpdates"`
}

// Schema is read from a guest's exported get-schema function.
type Schema struct {
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	PerformsStateChange bool           `json:"performsStateChange"`
	Arguments           []ArgumentSpec `json:"arguments"`
}

// parseSchema decodes a guest's get-schema result and validates that every
// argument name is unique.
func parseSchema(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return Schema{}, errs.Wrap(errs.CodecDecode, err, "decoding guest schema")
	}
	seen := make(map[string]bool, len(s.Arguments))
	for _, a := range s.Arguments {
		if seen[a.Name] {
			return Schema{}, errs.Newf(errs.InvalidOperation, "duplicate argument name %q in schema", a.Name)
		}
		seen[a.Name] = true
	}
	return s, nil
}

// spec looks up an argument spec by name.
func (s Schema) spec(name string) (ArgumentSpec, bool) {
	for _, a := range s.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return ArgumentSpec{}, false
}

// ArgumentSpec looks up a declared argument spec by name. Hosts use this to
// validate argument names before binding or setting them.
func (s Schema) ArgumentSpec(name string) (ArgumentSpec, bool) {
	return s.spec(name)
}
