// Package attendance contains the core domain types of the notifier.
//
// It defines Record (one tracked student), Status (the closed two-state
// presence value with its lenient parsing rule), Snapshot (all records
// observed at one poll tick) and Transition (a status change between two
// consecutive snapshots).
package attendance
