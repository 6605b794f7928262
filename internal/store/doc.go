// Package store provides SQLite-backed archival storage for sample runs.
//
// A run is a completed Sample Store plus metadata:
//   - runs: id (UUIDv7), name, creation time, chain/draw/adaptation counts
//   - variables: identity (name + canonical JSON args) and event shape
//   - draws: one blob per (run, variable, chain)
//
// # Determinism
//
// Listing queries order by (created_at, id) and loading orders by
// (variable_id, chain), so identical archives produce identical results.
// Variable ids are the content-addressed ids from internal/ir.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
