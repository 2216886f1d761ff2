package models

import (
	"strings"
	"time"
)

// ArtistsSeparator joins contributor names for display.
const ArtistsSeparator = ", "

// Snapshot is one poll's read of the embedded player.
//
// Pointer fields are nil when the page reports no track.
type Snapshot struct {
	AlbumRef    *string `json:"albumId"`
	TrackTitle  *string `json:"trackName"`
	Playing     bool    `json:"playing"`
	SongTimeMs  int64   `json:"songTime"`
	RemainingMs int64   `json:"timeLeft"`
}

// Title returns the observed track title or "".
func (s Snapshot) Title() string {
	if s.TrackTitle == nil {
		return ""
	}
	return *s.TrackTitle
}

// Album returns the observed album reference or "".
func (s Snapshot) Album() string {
	if s.AlbumRef == nil {
		return ""
	}
	return *s.AlbumRef
}

// HasTrack reports whether the page exposed both a title and an album reference.
func (s Snapshot) HasTrack() bool {
	return s.Title() != "" && s.Album() != ""
}

// Timing anchors the snapshot's durations at the given instant.
func (s Snapshot) Timing(at time.Time) Timing {
	return Timing{
		At:        at,
		SongTime:  time.Duration(s.SongTimeMs) * time.Millisecond,
		Remaining: time.Duration(s.RemainingMs) * time.Millisecond,
	}
}

// Timing is the playback position of a snapshot relative to the wall clock.
type Timing struct {
	At        time.Time
	SongTime  time.Duration
	Remaining time.Duration
}

// Elapsed returns how far into the track playback is, never negative.
func (t Timing) Elapsed() time.Duration {
	if t.Remaining > t.SongTime {
		return 0
	}
	return t.SongTime - t.Remaining
}

// Start is the instant the track would have started playing at its current position.
func (t Timing) Start() time.Time {
	return t.At.Add(-t.Elapsed())
}

// End is the instant the track will finish if playback continues.
func (t Timing) End() time.Time {
	return t.At.Add(t.Remaining)
}

// RemainingSeconds returns the whole seconds left in the track.
func (t Timing) RemainingSeconds() int64 {
	return int64(t.Remaining / time.Second)
}

// ReconciledState is the last successfully resolved change.
//
// TrackTitle, Playing and SongTimeMs are the observed values at resolution
// time, so the next classification compares like with like.
type ReconciledState struct {
	TrackID      int64
	TrackTitle   string
	TrackArtists string
	TrackLink    string
	AlbumRef     string
	AlbumTitle   string
	AlbumCover   string
	Playing      bool
	SongTimeMs   int64
}

// ChangeReason classifies a snapshot against the reconciled state.
type ChangeReason int

const (
	NoChange ChangeReason = iota
	TrackChanged
	Paused
	Played
	TimeDrifted
	TimeMismatch
)

func (r ChangeReason) String() string {
	switch r {
	case TrackChanged:
		return "music got changed"
	case Paused:
		return "music got paused"
	case Played:
		return "music got played"
	case TimeDrifted:
		return "current song time changed"
	case TimeMismatch:
		return "song time wasn't the right one"
	default:
		return "no change"
	}
}

// Credential holds the artwork service OAuth2 token fields.
type Credential struct {
	AccessToken  string
	TokenType    string
	ExpiresAt    time.Time
	RefreshToken string
}

// Contributor is an artist credited on a catalog track.
type Contributor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Track is a catalog track record.
type Track struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	TitleShort   string        `json:"title_short"`
	Link         string        `json:"link"`
	Duration     int           `json:"duration"`
	Contributors []Contributor `json:"contributors"`
}

// Artists joins contributor names with sep.
func (t Track) Artists(sep string) string {
	names := make([]string, 0, len(t.Contributors))
	for _, c := range t.Contributors {
		names = append(names, c.Name)
	}
	return strings.Join(names, sep)
}

// PrimaryArtist returns the first credited contributor, or "".
func (t Track) PrimaryArtist() string {
	if len(t.Contributors) == 0 {
		return ""
	}
	return t.Contributors[0].Name
}

// Album is a catalog album record.
type Album struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Cover       string `json:"cover"`
	CoverMedium string `json:"cover_medium"`
}

// ResolvedTrack is a snapshot enriched with catalog identity and a cover reference.
//
// Cover is an artwork service path fragment when FromArtwork is set, a catalog
// cover URL otherwise, and "" when no artwork could be resolved.
type ResolvedTrack struct {
	AlbumRef    string `json:"-"`
	Track       Track  `json:"track"`
	Album       Album  `json:"album"`
	Cover       string `json:"-"`
	FromArtwork bool   `json:"-"`
}

// State builds the reconciled state for this resolution and the snapshot it came from.
func (r *ResolvedTrack) State(snap Snapshot) ReconciledState {
	return ReconciledState{
		TrackID:      r.Track.ID,
		TrackTitle:   snap.Title(),
		TrackArtists: r.Track.Artists(ArtistsSeparator),
		TrackLink:    r.Track.Link,
		AlbumRef:     r.AlbumRef,
		AlbumTitle:   r.Album.Title,
		AlbumCover:   r.Cover,
		Playing:      snap.Playing,
		SongTimeMs:   snap.SongTimeMs,
	}
}

// Change is what the dispatcher hands to every sink.
//
// Previous is best-effort and nil when no earlier change was resolved.
type Change struct {
	ID       string
	Reason   ChangeReason
	Resolved *ResolvedTrack
	Previous *ResolvedTrack
	Playing  bool
	Timing   Timing
}
