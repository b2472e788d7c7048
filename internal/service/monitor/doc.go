// Package monitor polls the roster, detects presence transitions and hands
// them to the dispatcher.
//
// The first successful read is a baseline and never notifies. Later reads are
// compared with the previous snapshot; only CheckedOut <-> CheckedIn changes
// of records present in both snapshots count as transitions.
package monitor
