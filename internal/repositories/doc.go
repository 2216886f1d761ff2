// Package repositories implements SQLite persistence for the reconciler.
//
// Key Implementations:
//   - [PlayRepository] : listening history written by the history sink, newest first
//   - [TrackRepository] : catalog lookups keyed by album reference and the title the player shows
//   - [TrackCacheAdapter] : the resolver's cache interface over [TrackRepository]
//
// Only successful lookups are cached. A failed lookup leaves no row behind, so the next poll
// retries the catalog from scratch.
//
// Sequence numbers provide stable ordering independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
