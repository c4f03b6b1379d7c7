// Package models defines the typed records handled by the sync layer:
// organizations, employees, visitors and admin users.
//
// Every record carries a client-minted identifier, a creation timestamp and
// a Synced flag. Synced=true means the backend holds a row with the same
// primary key; Synced=false means the record exists only in the local store
// and is waiting for reconciliation.
package models
