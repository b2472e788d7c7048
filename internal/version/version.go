package version

import "fmt"

// Product names the binaries in User-Agent headers and logs.
const Product = "attendance-notifier"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("%s version: %s, commit: %s, built at: %s", Product, Version, Commit, BuildTime)
}

// UserAgent is sent with every messaging backend request.
func UserAgent() string {
	return Product + "/" + Version
}

// LogFields returns the build metadata as logger key-value pairs.
func LogFields() []any {
	return []any{"version", Version, "commit", Commit}
}
