// Package version provides build version information for the application.
// A separate package so any layer can report the version without importing
// the CLI.
package version

import "fmt"

// Version is the build version string, set by ldflags during build.
// Format: vX.Y.Z or vX.Y.Z-dev for development builds.
var Version = "v1.0.0-dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// String renders the version with its build timestamp.
func String() string {
	return fmt.Sprintf("%s (built %s)", Version, BuildTime)
}
