// Package config defines the single configuration document of the notifier
// and provides helpers to load, validate and save it in YAML format.
//
// The document carries the academy name, polling cadence, roster location,
// listen addresses and the messaging provider block. Values from the
// environment (optionally seeded from a .env file) override the file, which
// mirrors how the service is deployed on hosting platforms.
//
// A Config is loaded once at process start and must be treated as read-only.
package config
