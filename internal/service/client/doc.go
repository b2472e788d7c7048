// Package client implements the attendance-send command.
//
// The command loads the same configuration as the server, renders a manual
// message for one roster row and sends it once through the configured
// provider.
package client
