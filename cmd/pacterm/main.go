// Package main is the entry point for the pacterm TUI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pacterm: %v\n", err)
		os.Exit(1)
	}
}
