// Package version exposes the build version stamped into release binaries.
package version

// Version is set at build time using ldflags:
// -ldflags "-X github.com/halcyon-lab/synthsignal/internal/version.Version=1.2.3"
// The default value "dev" indicates a development build.
var Version = "dev"

// GetVersion returns the version of this build.
func GetVersion() string {
	return Version
}
