package models

import (
	"fmt"
	"time"
)

// Play is a persisted record of a dispatched change.
type Play struct {
	id         string
	sequence   int
	trackID    int64
	title      string
	artists    string
	album      string
	link       string
	reason     ChangeReason
	playing    bool
	observedAt time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewPlay builds a Play from a dispatched change.
func NewPlay(sequence int, change Change) *Play {
	now := time.Now()
	p := &Play{
		sequence:   sequence,
		reason:     change.Reason,
		playing:    change.Playing,
		observedAt: change.Timing.At,
		createdAt:  now,
		updatedAt:  now,
	}
	if r := change.Resolved; r != nil {
		p.trackID = r.Track.ID
		p.title = r.Track.Title
		p.artists = r.Track.Artists(ArtistsSeparator)
		p.album = r.Album.Title
		p.link = r.Track.Link
	}
	if p.observedAt.IsZero() {
		p.observedAt = now
	}
	return p
}

// RestorePlay rebuilds a Play from stored columns.
func RestorePlay(id string, sequence int, trackID int64, title, artists, album, link string,
	reason ChangeReason, playing bool, observedAt, createdAt, updatedAt time.Time) *Play {
	return &Play{
		id:         id,
		sequence:   sequence,
		trackID:    trackID,
		title:      title,
		artists:    artists,
		album:      album,
		link:       link,
		reason:     reason,
		playing:    playing,
		observedAt: observedAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (p *Play) ID() string            { return p.id }
func (p *Play) Sequence() int         { return p.sequence }
func (p *Play) TrackID() int64        { return p.trackID }
func (p *Play) Title() string         { return p.title }
func (p *Play) Artists() string       { return p.artists }
func (p *Play) Album() string         { return p.album }
func (p *Play) Link() string          { return p.link }
func (p *Play) Reason() ChangeReason  { return p.reason }
func (p *Play) Playing() bool         { return p.playing }
func (p *Play) ObservedAt() time.Time { return p.observedAt }
func (p *Play) CreatedAt() time.Time  { return p.createdAt }
func (p *Play) UpdatedAt() time.Time  { return p.updatedAt }

func (p *Play) SetID(id string)          { p.id = id }
func (p *Play) SetSequence(s int)        { p.sequence = s }
func (p *Play) SetUpdatedAt(t time.Time) { p.updatedAt = t }

// Validate checks that the play identifies a track.
func (p *Play) Validate() error {
	if p.trackID == 0 {
		return fmt.Errorf("track id is required")
	}
	if p.title == "" {
		return fmt.Errorf("title is required")
	}
	if p.reason == NoChange {
		return fmt.Errorf("reason is required")
	}
	return nil
}

// CachedTrack is a resolved catalog lookup persisted by album reference and observed title.
type CachedTrack struct {
	id        string
	sequence  int
	albumRef  string
	title     string
	track     Track
	album     Album
	createdAt time.Time
	updatedAt time.Time
}

// NewCachedTrack wraps a catalog lookup for persistence.
func NewCachedTrack(sequence int, albumRef, title string, track Track, album Album) *CachedTrack {
	now := time.Now()
	return &CachedTrack{
		sequence:  sequence,
		albumRef:  albumRef,
		title:     title,
		track:     track,
		album:     album,
		createdAt: now,
		updatedAt: now,
	}
}

func (c *CachedTrack) ID() string           { return c.id }
func (c *CachedTrack) Sequence() int        { return c.sequence }
func (c *CachedTrack) AlbumRef() string     { return c.albumRef }
func (c *CachedTrack) Title() string        { return c.title }
func (c *CachedTrack) Track() Track         { return c.track }
func (c *CachedTrack) Album() Album         { return c.album }
func (c *CachedTrack) CreatedAt() time.Time { return c.createdAt }
func (c *CachedTrack) UpdatedAt() time.Time { return c.updatedAt }

func (c *CachedTrack) SetID(id string)          { c.id = id }
func (c *CachedTrack) SetUpdatedAt(t time.Time) { c.updatedAt = t }
func (c *CachedTrack) SetCreatedAt(t time.Time) { c.createdAt = t }

// Validate checks the cache key and the catalog identity.
func (c *CachedTrack) Validate() error {
	if c.albumRef == "" || c.title == "" {
		return fmt.Errorf("album reference and title are required")
	}
	if c.track.ID == 0 {
		return fmt.Errorf("track id is required")
	}
	return nil
}
