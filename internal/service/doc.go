// Package service implements the netcore import pipeline and inventory
// operations.
//
// # Services
//
// Importer merges a host discovery document with a port scan document by
// address, skips addresses already in the store, classifies and creates the
// rest, then runs the Linker. Imports are serialized.
//
// Linker connects every router to every other device, at most one link per
// unordered pair.
//
// InventoryService is the CRUD and export surface used by the HTTP API and
// the CLI.
//
// # Design Principles
//
// - Services own business logic and validation
// - Repository pattern for data access
// - Context-aware for cancellation and timeouts
package service
