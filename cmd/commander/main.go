package main

import "github.com/fluxbench/commander/cmd/cli"

func main() {
	cli.Execute()
}
