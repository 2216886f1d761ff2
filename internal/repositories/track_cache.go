package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/dzrpc/internal/models"
)

// TrackCacheAdapter implements tasks.TrackCache using TrackRepository.
//
// Duplicate keys from overlapping resolutions are silently ignored (UNIQUE constraint violations).
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// Lookup returns the cached catalog records for albumRef and title.
// A miss wraps [shared.ErrNotFound].
func (a *TrackCacheAdapter) Lookup(albumRef, title string) (*models.CachedTrack, error) {
	return a.repo.GetByKey(albumRef, title)
}

// Store caches a successful lookup. Returns nil if the key already exists.
func (a *TrackCacheAdapter) Store(albumRef, title string, track models.Track, album models.Album) error {
	if existing, err := a.repo.GetByKey(albumRef, title); err == nil && existing != nil {
		return nil
	}

	err := a.repo.Create(models.NewCachedTrack(0, albumRef, title, track, album))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}
