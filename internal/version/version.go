// ABOUTME: Version and product identification
// ABOUTME: Reported in hello messages, the dashboard and CLI banners
package version

// Version is overridden at build time with -ldflags "-X .../version.Version=..."
var Version = "0.3.0"

const (
	Product      = "SRT Drift Tracer"
	Manufacturer = "Haivision SRT"
)
