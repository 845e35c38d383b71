// Command dirlister is a sample guest program that declares a directory
// lister taking a path argument. It does not read the directory or create
// any output: its Run only checks that the path argument is present. It is
// not part of the commander core — it exists to show the guest-facing
// contract the
// sandbox and bridge expect (a get-schema export and a run export, both
// exchanging JSON-encoded byte buffers), the same way a real guest compiled
// against the component ABI would.
package main

import (
	"encoding/json"
	"os"
)

type argumentSpec struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	TypeString      string `json:"typeString"`
	SupportsUpdates bool   `json:"supportsUpdates"`
}

type schema struct {
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	PerformsStateChange bool           `json:"performsStateChange"`
	Arguments           []argumentSpec `json:"arguments"`
}

type result struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message"`
}

// GetSchema is the guest's get-schema export. The host's runner calls it
// once, immediately after instantiation, to discover the argument set and
// create default input streams for whichever of them the host leaves
// unbound.
func GetSchema() schema {
	return schema{
		Name:                "dirlister",
		Description:         "lists the entries of a directory into a list<string> output",
		PerformsStateChange: false,
		Arguments: []argumentSpec{
			{Name: "path", Description: "directory to list", TypeString: "string", SupportsUpdates: true},
		},
	}
}

// Run is the guest's run export. argIDs maps each declared argument name to
// the resource id the host allocated for it. Run reports success when a
// "path" id is present and a guest error otherwise; it does not read the
// argument's value.
func Run(argIDs map[string]uint64) result {
	if _, ok := argIDs["path"]; !ok {
		return result{Ok: false, Message: "missing path argument"}
	}
	return result{Ok: true, Message: "listed"}
}

func main() {
	// A real build targets the sandbox's component ABI and never runs
	// main() directly; this entry point exists only so the package
	// compiles as a standalone Go program for local inspection.
	enc := json.NewEncoder(os.Stdout)
	enc.Encode(GetSchema())
}
