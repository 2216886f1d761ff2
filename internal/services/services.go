// package services defines the catalog and artwork collaborators of the metadata resolver
package services

import (
	"context"

	"github.com/desertthunder/dzrpc/internal/models"
)

// Catalog looks up track and album identity.
type Catalog interface {
	// FindTrackInAlbum returns the catalog ID of the track titled title on the album albumRef.
	FindTrackInAlbum(ctx context.Context, title, albumRef string) (int64, error)

	// Track retrieves a track with its contributors.
	Track(ctx context.Context, id int64) (*models.Track, error)

	// Album retrieves an album by its reference.
	Album(ctx context.Context, albumRef string) (*models.Album, error)
}

// Artwork resolves cover art through a credential-gated search API.
type Artwork interface {
	// Cover returns the opaque cover fragment for q, or "" when nothing matched.
	Cover(ctx context.Context, q CoverQuery) (string, error)

	// Refresh performs one refresh-token exchange and stores the new credential.
	Refresh(ctx context.Context) error
}

// CoverQuery identifies the artwork to search for.
type CoverQuery struct {
	Album  string
	Title  string
	Artist string // primary artist only
}
