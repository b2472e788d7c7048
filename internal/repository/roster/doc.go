// Package roster implements the record store adapters.
//
// The Store interface is the only way the notifier reads and writes student
// records. FileRepository keeps the roster in a YAML document that operators
// can edit by hand; SQLiteRepository keeps it in a SQLite database. Both are
// last-writer-wins and offer no transactions across records.
package roster
