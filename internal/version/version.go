package version

import (
	"fmt"
	"runtime"
)

// Build-time variables injected by ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return Version
}

// GetFullVersionString returns a comprehensive version string
func GetFullVersionString() string {
	return fmt.Sprintf("Waypoint %s\nBuilt: %s\nGo: %s",
		Version, BuildTime, runtime.Version())
}
