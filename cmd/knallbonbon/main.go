// Command knallbonbon runs the registration and waitlist service for
// Knallbonbon events.
package main

import (
	"fmt"
	"os"
)

// Build information injected via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
