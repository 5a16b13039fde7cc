// Package main is the entry point for the refmove CLI.
package main

import "refmove.dev/pkg/refmove/cmd"

func main() {
	cmd.Execute()
}
