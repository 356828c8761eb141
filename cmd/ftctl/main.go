// Command ftctl is a thin demonstrator CLI over the session façade: run a
// tiny arithmetic script, encode/decode a checkpoint, or generate a
// durability sidecar. It is not a conformance harness.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
