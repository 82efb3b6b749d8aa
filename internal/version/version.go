package version

import "fmt"

var (
	// Version is the bundler's semantic version, overridable via ldflags.
	Version = "1.0.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns the bare semantic version string.
func Short() string {
	return Version
}

// Full returns the version together with commit and build time,
// in the form the version subcommand prints.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
