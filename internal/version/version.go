// ABOUTME: Version information for the rtbridge binaries
// ABOUTME: Version is overridden at build time with -ldflags
package version

import "fmt"

// Version is set with -ldflags "-X github.com/Resonate-Protocol/rtbridge/internal/version.Version=v1.2.3"
var Version = "dev"

const (
	// Product is reported in monitor hellos and the TUI title
	Product = "rtbridge"
	// Manufacturer is reported in monitor hellos
	Manufacturer = "Resonate Protocol"
)

// String returns "rtbridge dev" style version text
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}
