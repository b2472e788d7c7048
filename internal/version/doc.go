// Package version exposes build metadata for the attendance binaries.
//
// Version, Commit and BuildTime are injected with ldflags. UserAgent tags
// outgoing messaging requests and LogFields adds the build to startup logs.
package version
