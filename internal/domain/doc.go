// Package domain defines the core types of the netcore device inventory.
//
// # Core Types
//
// Device is a persisted network endpoint with an inferred Category (router,
// nas, server, ...) and a liveness Status written by the monitor.
//
// Link connects two devices. The topology linker only ever creates one link
// per unordered device pair, tracked with Pair and PairSet.
//
// HostObservation is what the scan parsers produce: one discovered endpoint
// with its hardware address, vendor, first hostname and open ports.
//
// This package has no database or network dependencies.
package domain
