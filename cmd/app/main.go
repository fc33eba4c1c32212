// Photo Restoration Studio - desktop front-end for the old photo restoration pipeline
// License: MIT
// Version: 1.0.0

package main

import (
	"fmt"
	"os"
)

const (
	AppName    = "Photo Restoration Studio"
	AppID      = "com.photorestoration.studio"
	AppVersion = "1.0.0"
)

// BuildTag is shown in the window title. Overridden at link time with
// -ldflags "-X main.BuildTag=...".
var BuildTag = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
