// Package dispatch renders notifications and hands them to the active
// provider. Every attempt, automatic or manual, produces an Outcome; there
// is no retry, a failed delivery is final for its transition.
package dispatch
