// Package archive persists confirmation records and session snapshots for
// the downstream reporting layer.
//
// A Record bundles the original detection with its stability result and
// risk score. The Redis-backed Store keeps records addressable by ID,
// ranks them by score, and announces each save on a pub/sub channel so
// reporters can stream confirmed findings as they land. The in-memory
// Store serves tests and single-process runs.
package archive
