// Package services implements the external collaborators of the metadata resolver.
//
// # Catalog
//
// [DeezerService] implements [Catalog] against the public Deezer API. A track is located by
// listing its album and matching the title the player shows, so the album reference from the
// page is the only identifier needed. Every request waits on a shared [rate.Limiter].
//
// The API reports missing records with a 200 status and an error object, decoded as [DeezerError].
//
// # Artwork
//
// [ArtworkService] implements [Artwork] with the Spotify search API through zmb3/spotify.
// It searches for the album first and retries with the track when no album matches, returning
// the last path segment of the first image URL.
//
// The access token is read from a [CredentialStore] on each call. [ArtworkService.Refresh] performs
// a single refresh-token exchange with [oauth2.AuthStyleInHeader] and writes the new token back.
// Deciding when to refresh belongs to the caller.
//
// # Errors
//
// Services wrap typed errors from the shared package:
//   - [shared.ErrCatalogLookup] : track listing or track record unavailable
//   - [shared.ErrAlbumLookup] : album record or listing unavailable, alongside ErrCatalogLookup for listings
//   - [shared.ErrArtworkLookup] : artwork search failed (possibly an expired token)
//   - [shared.ErrRefreshFailed] : refresh-token exchange failed
//   - [shared.ErrAPIRequest] : transport or non-2xx response
package services
