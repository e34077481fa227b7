// Package version exposes build metadata stamped in via ldflags.
package version

//nolint:revive // Overwritten at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns a single human-readable build identifier.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
