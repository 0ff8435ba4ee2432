// Package repository defines the data access interfaces for netcore.
//
// Two backends implement Store: sqlite (modernc.org/sqlite, used for local
// deployments and tests) and postgres (pgx connection pool). Open picks one
// from a connection string.
//
// # Invariants
//
// Both backends enforce the same constraints in their schema:
//
//   - device ip_address is UNIQUE; inserts that collide return
//     domain.ErrDuplicateAddress
//   - links reference devices with ON DELETE CASCADE, so deleting a device
//     removes its links
//   - status updates from one monitor round are written in a single
//     transaction or batch
//
// Missing records are reported as domain.ErrNotFound.
package repository
