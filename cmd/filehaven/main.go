// FileHaven - command-line client for the FileHaven storage service
package main

import (
	"os"

	"github.com/filehaven/filehaven/internal/cli"
	"github.com/filehaven/filehaven/internal/version"
)

// Version information, overridden at build time via -ldflags.
var (
	Version   = "v1.0.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
