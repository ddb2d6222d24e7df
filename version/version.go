// Package version exposes the SDK version reported to the SwanLab backend.
package version

// Version is the current swanlab-go release. Overridable at link time via
// -ldflags "-X github.com/swanhubx/swanlab-go/version.Version=...".
var Version = "0.1.0"

// unknown is reported when Version is emptied by a bad link-time override.
const unknown = "unknown"

// Get returns the SDK version string. It never returns an empty value.
func Get() string {
	if Version == "" {
		return unknown
	}
	return Version
}
