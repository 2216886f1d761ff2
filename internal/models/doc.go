// Package models defines the domain types shared by the reconciliation engine and its collaborators.
//
// The package contains three categories of types:
//
// 1. Observations: what a single poll reads from the embedded player
//   - [Snapshot] : raw transport state, nullable where the page may not report a value
//   - [Timing] : snapshot timings anchored to the wall clock
//
// 2. Reconciliation state: what the engine remembers and emits
//   - [ReconciledState] : the last successfully resolved change
//   - [ChangeReason] : classification of a snapshot against that state
//   - [ResolvedTrack] : catalog track and album plus the cover reference
//   - [Change] : the unit handed to every sink
//
// 3. Persistent entities: database-backed records implementing [Model]
//   - [Play] : one dispatched change in the listening history
//   - [CachedTrack] : a catalog lookup keyed by album reference and observed title
//
// [Credential] carries the artwork service OAuth2 token fields owned by the configuration store.
package models
