// Package store persists clock snapshots to SQLite.
//
// The causality core itself never touches storage; this package is the
// optional collaborator that saves a router's snapshot across process
// restarts. One row per node in clock_state, vector entries in
// vector_entries, replaced wholesale on each save.
package store
