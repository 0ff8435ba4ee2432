// Package monitor periodically probes every known device and records
// whether it answered.
//
// A round lists all (device, address) targets, probes them concurrently
// with one packet each under a per-probe timeout, then writes every result
// back to the store in one batch. Rounds never overlap and are separated by
// exactly the configured interval. A probe failure of any kind is recorded
// as unreachable; a store failure abandons the round but never stops the
// loop.
package monitor
