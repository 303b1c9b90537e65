// Command oed runs optimal experimental design studies.
//
// Usage:
//
//	oed config > pipeline.yaml
//	oed run --config pipeline.yaml
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
