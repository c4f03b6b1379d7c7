// Package local is the durable on-device store of the sync layer.
//
// Records of every kind live in one SQLite table keyed by (kind, id), with
// the record body kept as JSON and the sync flag and creation time as
// columns. Whole-kind reads and replaces are available next to point
// operations; Collection gives typed access per kind.
//
// The store also keeps pending remote deletes (tombstones) and a small
// key/value metadata table used for the login session.
//
// Every storage failure is reported wrapped in ErrLocalPersistence. A row
// whose body cannot be decoded is logged, purged and left out of results.
package local
