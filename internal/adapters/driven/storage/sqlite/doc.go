// Package sqlite implements the document ledger on SQLite using the
// pure-Go modernc.org/sqlite driver, so no cgo is required.
package sqlite
