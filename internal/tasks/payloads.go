package tasks

import (
	"fmt"

	"github.com/desertthunder/dzrpc/internal/broadcast"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/presence"
	"github.com/desertthunder/dzrpc/internal/shared"
)

// Presence image keys and labels.
const (
	ArtworkPrefix = "spotify:"
	PlayImage     = "play"
	PauseImage    = "pause"
	PlayButton    = "Play on Deezer"
)

// BuildActivity renders change as a presence update.
//
// In listening mode a playing track carries start and end so the client draws
// a progress bar. In plain mode it carries the end only, which renders as a
// countdown. A paused track carries no timestamps.
func BuildActivity(change models.Change, listening bool, largeImageKey string) presence.Activity {
	r := change.Resolved
	a := presence.Activity{
		Details:   r.Track.Title,
		State:     r.Track.Artists(models.ArtistsSeparator),
		LargeText: r.Album.Title,
	}

	switch {
	case r.FromArtwork && r.Cover != "":
		a.LargeImage = ArtworkPrefix + r.Cover
	case r.Cover != "":
		a.LargeImage = r.Cover
	default:
		a.LargeImage = largeImageKey
	}

	if change.Playing {
		a.SmallImage, a.SmallText = PlayImage, "Playing"
		if change.Timing.Remaining > 0 {
			end := change.Timing.End()
			a.End = &end
			if listening {
				start := change.Timing.Start()
				a.Start = &start
			}
		}
	} else {
		a.SmallImage, a.SmallText = PauseImage, "Paused"
	}

	if r.Track.Link != "" {
		a.Buttons = []presence.Button{{Label: PlayButton, URL: r.Track.Link}}
	}
	return a
}

// BuildMessage renders change as a broadcast event.
//
// Play state changes carry the playing flag and timing changes carry the whole
// seconds remaining in the track.
func BuildMessage(change models.Change) (broadcast.Message, error) {
	r := change.Resolved
	track, album := r.Track, r.Album
	current := broadcast.TrackAlbum{Track: &track, Album: &album}

	switch change.Reason {
	case models.TrackChanged:
		var old broadcast.TrackAlbum
		if p := change.Previous; p != nil {
			prevTrack, prevAlbum := p.Track, p.Album
			old = broadcast.TrackAlbum{Track: &prevTrack, Album: &prevAlbum}
		}
		return broadcast.NewMessage(broadcast.EventTrackChanged, broadcast.TrackChanged{Old: old, New: current})
	case models.Paused, models.Played:
		playing := change.Playing
		return broadcast.NewMessage(broadcast.EventStateChanged, broadcast.StateChanged{
			TrackAlbum: current,
			Event:      broadcast.PlayerEvent{Playing: &playing},
		})
	case models.TimeDrifted, models.TimeMismatch:
		secs := change.Timing.RemainingSeconds()
		return broadcast.NewMessage(broadcast.EventStateChanged, broadcast.StateChanged{
			TrackAlbum: current,
			Event:      broadcast.PlayerEvent{Time: &secs},
		})
	default:
		return broadcast.Message{}, fmt.Errorf("%w: no event for %q", shared.ErrInvalidInput, change.Reason)
	}
}
