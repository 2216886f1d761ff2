package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/services"
	"github.com/desertthunder/dzrpc/internal/shared"
)

// Settings exposes the mode flags read on every cycle.
type Settings interface {
	ListeningMode() bool
	OnlyShowIfPlaying() bool
}

// TrackCache stores successful catalog lookups by album reference and observed title.
//
// Lookup wraps [shared.ErrNotFound] on a miss.
type TrackCache interface {
	Lookup(albumRef, title string) (*models.CachedTrack, error)
	Store(albumRef, title string, track models.Track, album models.Album) error
}

// Resolver enriches a snapshot with catalog identity and a cover reference.
type Resolver struct {
	catalog  services.Catalog
	artwork  services.Artwork
	cache    TrackCache
	settings Settings
	logger   *log.Logger
}

// NewResolver creates a resolver. artwork and cache may be nil.
func NewResolver(catalog services.Catalog, artwork services.Artwork, cache TrackCache, settings Settings, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{
		catalog:  catalog,
		artwork:  artwork,
		cache:    cache,
		settings: settings,
		logger:   shared.WithLogger(logger, "component", "resolver"),
	}
}

// Resolve looks up the track shown in snap.
//
// Catalog and album failures are returned and nothing is cached. In listening
// mode an artwork failure is not returned: it triggers one credential refresh
// and the change resolves without a cover.
func (r *Resolver) Resolve(ctx context.Context, snap models.Snapshot, reason models.ChangeReason) (*models.ResolvedTrack, error) {
	if !snap.HasTrack() {
		return nil, fmt.Errorf("%w: %w", shared.ErrCatalogLookup, shared.ErrNoTrack)
	}

	title, albumRef := snap.Title(), snap.Album()
	track, album, err := r.lookup(ctx, title, albumRef)
	if err != nil {
		return nil, err
	}

	resolved := &models.ResolvedTrack{AlbumRef: albumRef, Track: track, Album: album}

	if r.settings != nil && r.settings.ListeningMode() && r.artwork != nil {
		resolved.Cover = r.cover(ctx, track, album)
		resolved.FromArtwork = resolved.Cover != ""
	} else {
		resolved.Cover = album.CoverMedium
	}

	r.logger.Debug("resolved", "reason", reason, "track_id", track.ID, "album", album.Title, "cover", resolved.Cover)
	return resolved, nil
}

func (r *Resolver) lookup(ctx context.Context, title, albumRef string) (models.Track, models.Album, error) {
	if r.cache != nil {
		cached, err := r.cache.Lookup(albumRef, title)
		if err == nil {
			return cached.Track(), cached.Album(), nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			r.logger.Warn("track cache lookup failed", "album_ref", albumRef, "error", err)
		}
	}

	id, err := r.catalog.FindTrackInAlbum(ctx, title, albumRef)
	if err != nil {
		return models.Track{}, models.Album{}, err
	}

	track, err := r.catalog.Track(ctx, id)
	if err != nil {
		return models.Track{}, models.Album{}, err
	}

	album, err := r.catalog.Album(ctx, albumRef)
	if err != nil {
		return models.Track{}, models.Album{}, err
	}

	if r.cache != nil {
		if err := r.cache.Store(albumRef, title, *track, *album); err != nil {
			r.logger.Warn("failed to cache track", "track_id", id, "error", err)
		}
	}

	return *track, *album, nil
}

// cover returns the artwork fragment, or "" after one refresh attempt when the lookup fails.
// The original lookup is not retried; the refreshed token serves the next cycle.
func (r *Resolver) cover(ctx context.Context, track models.Track, album models.Album) string {
	frag, err := r.artwork.Cover(ctx, services.CoverQuery{
		Album:  album.Title,
		Title:  track.Title,
		Artist: track.PrimaryArtist(),
	})
	if err == nil {
		return frag
	}

	r.logger.Warn("artwork lookup failed, refreshing access token", "error", err)
	if err := r.artwork.Refresh(ctx); err != nil {
		r.logger.Error("access token refresh failed", "error", err)
	}
	return ""
}
