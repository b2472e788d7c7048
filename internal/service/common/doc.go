// Package common holds the start-up wiring shared by the notifier binaries.
//
// Bootstrap loads the configuration, opens the roster and builds the
// provider, dispatcher and metrics registry in one place so the monitor and
// the HTTP server run against identical components.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
