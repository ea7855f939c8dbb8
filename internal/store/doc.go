// Package store persists plate entries and resolves plate status.
//
// Two implementations satisfy Store: Postgres, backed by database/sql with
// the pgx driver, and Memory, used when no database is configured and in
// tests. DiskImages writes the plate crops that entries point to.
package store
