package tasks

import "github.com/desertthunder/dzrpc/internal/models"

// rule is one row of the classification table.
type rule struct {
	reason models.ChangeReason
	match  func(prev *models.ReconciledState, snap models.Snapshot, forced bool) bool
}

// rules is evaluated top to bottom and the first match wins.
//
// Title and play state are checked before the timing rules so a track change
// or pause is never reported as a timing correction.
var rules = []rule{
	{
		reason: models.TrackChanged,
		match: func(prev *models.ReconciledState, snap models.Snapshot, _ bool) bool {
			return prev == nil || prev.TrackTitle != snap.Title()
		},
	},
	{
		reason: models.Played,
		match: func(prev *models.ReconciledState, snap models.Snapshot, _ bool) bool {
			return !prev.Playing && snap.Playing
		},
	},
	{
		reason: models.Paused,
		match: func(prev *models.ReconciledState, snap models.Snapshot, _ bool) bool {
			return prev.Playing && !snap.Playing
		},
	},
	{
		reason: models.TimeDrifted,
		match: func(_ *models.ReconciledState, _ models.Snapshot, forced bool) bool {
			return forced
		},
	},
	{
		reason: models.TimeMismatch,
		match: func(prev *models.ReconciledState, snap models.Snapshot, _ bool) bool {
			return prev.SongTimeMs != snap.SongTimeMs
		},
	},
}

// Classify compares snap against the last reconciled state.
//
// A nil prev means nothing has been resolved yet. forced marks an explicit
// seek by the user. Returns [models.NoChange] when no rule matches.
func Classify(prev *models.ReconciledState, snap models.Snapshot, forced bool) models.ChangeReason {
	for _, r := range rules {
		if r.match(prev, snap, forced) {
			return r.reason
		}
	}
	return models.NoChange
}
