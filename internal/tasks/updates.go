package tasks

import (
	"fmt"

	"github.com/desertthunder/dzrpc/internal/models"
)

// Update reports the outcome of one engine cycle.
//
// Used to send real-time status to the CLI layer for display.
type Update struct {
	Phase   Phase               // Where the cycle ended
	Reason  models.ChangeReason // Classification, [models.NoChange] if none was made
	Message string              // Human-readable message for display
	Err     error               // Set when the cycle failed
	Data    any                 // The dispatched [models.Change], when there is one
}

// Cycle phase enumeration
type Phase int

const (
	Sample Phase = iota
	Resolve
	Dispatch
)

func (p Phase) String() string {
	switch p {
	case Sample:
		return "sample"
	case Resolve:
		return "resolve"
	case Dispatch:
		return "dispatch"
	default:
		return ""
	}
}

func sampleFailedUpdate(err error) Update {
	return Update{
		Phase:   Sample,
		Message: "Could not read the player",
		Err:     err,
	}
}

func resolveFailedUpdate(reason models.ChangeReason, err error) Update {
	return Update{
		Phase:   Resolve,
		Reason:  reason,
		Message: fmt.Sprintf("Could not resolve change (%s)", reason),
		Err:     err,
	}
}

func dispatchedUpdate(change models.Change, err error) Update {
	r := change.Resolved
	return Update{
		Phase:   Dispatch,
		Reason:  change.Reason,
		Message: fmt.Sprintf("%s by %s (%s)", r.Track.Title, r.Track.Artists(models.ArtistsSeparator), change.Reason),
		Err:     err,
		Data:    change,
	}
}
