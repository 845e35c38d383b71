// Command fileexplorer is a sample guest program that declares a file
// explorer taking a root path argument. It does not walk the directory,
// create a tree output, or answer RequestChildren requests: its Run only
// checks that the root argument is present. Like programs/dirlister, it is a
// demonstration client, not part of the commander core.
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

// GetSchema declares a single root-path argument. Outputs are not part of
// the schema.
func GetSchema() schema {
	return schema{
		Name:                "fileexplorer",
		Description:         "projects a directory tree onto a lazily-expanded tree<string> output",
		PerformsStateChange: false,
		Arguments: []argumentSpec{
			{Name: "root", Description: "root directory to explore", TypeString: "string", SupportsUpdates: false},
		},
	}
}

// Run reports success when argIDs holds a "root" argument and a guest
// error otherwise. It creates no output and reads no directory.
func Run(argIDs map[string]uint64) result {
	if _, ok := argIDs["root"]; !ok {
		return result{Ok: false, Message: "missing root argument"}
	}
	return result{Ok: true, Message: "exploring"}
}

func main() {
	enc := json.NewEncoder(os.Stdout)
	enc.Encode(GetSchema())
}
