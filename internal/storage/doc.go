// Package storage provides JSON-based persistence for record snapshots.
//
// A snapshot holds the valid records of the last run for one profile and city,
// so the next run can report which records are new. Snapshots are stored as
// snapshot_<profile>_<city>.json inside the data directory, which defaults to
// ~/.city-events/.
package storage
