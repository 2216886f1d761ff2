// Package tasks is the track-state reconciliation engine.
//
// # Cycle
//
// [Engine.Tick] runs one cycle:
//
//  1. Sample the player through a [Sampler]
//  2. [Classify] the snapshot against the last reconciled state
//  3. Resolve the change into catalog metadata with a [MetadataResolver]
//  4. Store the new reconciled state and hand a [models.Change] to the [ChangeDispatcher]
//
// A cycle that classifies as [models.NoChange] stops after step 2. A cycle that fails
// in steps 1 or 3 is logged and dropped, leaving the reconciled state untouched, and the
// next tick starts over.
//
// # Scheduling
//
// [Engine.Run] ticks on a fixed interval. [Engine.Nudge] requests an extra forced tick,
// which classifies an otherwise unchanged snapshot as [models.TimeDrifted]. Ticks run
// concurrently and the last resolution to finish wins.
//
// # Classification
//
// [Classify] walks an ordered rule table and returns the first match:
// track changed, played, paused, forced, song length mismatch.
//
// # Resolution
//
// [Resolver] finds the track on its album in the catalog, then fetches the track and
// album records. Successful lookups go through an optional [TrackCache]. In listening
// mode the cover comes from the artwork service; any artwork failure triggers exactly
// one credential refresh and the change proceeds without a cover.
//
// # Dispatch
//
// [Dispatcher] sends every change to each [Sink] concurrently. [PresenceSink] renders
// [BuildActivity], [BroadcastSink] renders [BuildMessage] and [HistorySink] records a
// [models.Play]. One sink failing never blocks another.
//
// # Progress Reporting
//
// Cycle outcomes are reported as [Update] values on an optional channel. Sends use
// select with default, so a slow reader never stalls the loop.
package tasks
