// Command shipshape serves the warehouse record store over HTTP and offers
// offline report and slot maintenance commands.
package main

import (
	"os"
)

// Version is set at build time with -ldflags "-X main.Version=v1.0.0"
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
