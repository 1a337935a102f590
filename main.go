// Package main is the entry point for the lovmig CLI.
package main

import (
	"lovmig/cli/cmd"
)

func main() {
	cmd.Execute()
}
