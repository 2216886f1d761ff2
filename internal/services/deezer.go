// Deezer public API implementation of [Catalog]
//
// Response shapes based on https://developers.deezer.com/api
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
	"golang.org/x/time/rate"
)

const (
	deezerBaseURL    = "https://api.deezer.com"
	albumTracksLimit = 100
)

// DeezerError is the error object the API returns with a 200 status.
type DeezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *DeezerError) Error() string {
	return fmt.Sprintf("deezer %s (%d): %s", e.Type, e.Code, e.Message)
}

// DeezerAlbumTrack is an entry of an album's track listing.
type DeezerAlbumTrack struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	TitleShort string `json:"title_short"`
	Link       string `json:"link"`
	Duration   int    `json:"duration"`
}

type deezerAlbumTracks struct {
	Data  []DeezerAlbumTrack `json:"data"`
	Total int                `json:"total"`
	Next  string             `json:"next"`
}

// DeezerService implements [Catalog] against the public catalog API.
//
// Requests share one token bucket so bursts of overlapping ticks cannot exceed the API quota.
type DeezerService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewDeezerService creates a catalog client from cfg. A nil client uses a 10s timeout client.
func NewDeezerService(cfg shared.CatalogConfig, client *http.Client) *DeezerService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = deezerBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &DeezerService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

func (s *DeezerService) Name() string {
	return "Deezer"
}

// doRequest performs a rate-limited GET and decodes the body into result.
//
// Endpoints may be paths or absolute URLs (pagination links).
func (s *DeezerService) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w: deezer status %d", shared.ErrAPIRequest, shared.ErrNotFound, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: deezer status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var envelope struct {
		Error *DeezerError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// AlbumTracks lists every track on the album, following pagination.
func (s *DeezerService) AlbumTracks(ctx context.Context, albumRef string) ([]DeezerAlbumTrack, error) {
	var tracks []DeezerAlbumTrack
	next := fmt.Sprintf("/album/%s/tracks?limit=%d", url.PathEscape(albumRef), albumTracksLimit)

	for next != "" {
		var page deezerAlbumTracks
		if err := s.doRequest(ctx, next, &page); err != nil {
			return nil, err
		}
		tracks = append(tracks, page.Data...)
		next = page.Next
	}

	return tracks, nil
}

// FindTrackInAlbum matches title against the album's listing, exact title first,
// then case-insensitive title, then the short title.
//
// An album the catalog does not know wraps [shared.ErrAlbumLookup] as well.
func (s *DeezerService) FindTrackInAlbum(ctx context.Context, title, albumRef string) (int64, error) {
	if title == "" || albumRef == "" {
		return 0, fmt.Errorf("%w: %w", shared.ErrCatalogLookup, shared.ErrNoTrack)
	}

	tracks, err := s.AlbumTracks(ctx, albumRef)
	var derr *DeezerError
	switch {
	case errors.As(err, &derr), errors.Is(err, shared.ErrNotFound):
		return 0, fmt.Errorf("%w: %w: album %s: %w", shared.ErrCatalogLookup, shared.ErrAlbumLookup, albumRef, err)
	case err != nil:
		return 0, fmt.Errorf("%w: album %s: %w", shared.ErrCatalogLookup, albumRef, err)
	}

	if id, ok := MatchTrack(tracks, title); ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q not found on album %s", shared.ErrCatalogLookup, title, albumRef)
}

// MatchTrack picks the listing entry for title.
func MatchTrack(tracks []DeezerAlbumTrack, title string) (int64, bool) {
	matchers := []func(DeezerAlbumTrack) bool{
		func(t DeezerAlbumTrack) bool { return t.Title == title },
		func(t DeezerAlbumTrack) bool { return strings.EqualFold(strings.TrimSpace(t.Title), strings.TrimSpace(title)) },
		func(t DeezerAlbumTrack) bool {
			return strings.EqualFold(strings.TrimSpace(t.TitleShort), strings.TrimSpace(title))
		},
	}

	for _, match := range matchers {
		for _, t := range tracks {
			if match(t) {
				return t.ID, true
			}
		}
	}
	return 0, false
}

// Track retrieves a track by ID.
func (s *DeezerService) Track(ctx context.Context, id int64) (*models.Track, error) {
	var track models.Track
	endpoint := "/track/" + strconv.FormatInt(id, 10)
	if err := s.doRequest(ctx, endpoint, &track); err != nil {
		return nil, fmt.Errorf("%w: track %d: %w", shared.ErrCatalogLookup, id, err)
	}
	if track.ID == 0 {
		return nil, fmt.Errorf("%w: track %d: empty record", shared.ErrCatalogLookup, id)
	}
	return &track, nil
}

// Album retrieves an album by reference.
func (s *DeezerService) Album(ctx context.Context, albumRef string) (*models.Album, error) {
	var album models.Album
	endpoint := "/album/" + url.PathEscape(albumRef)
	if err := s.doRequest(ctx, endpoint, &album); err != nil {
		return nil, fmt.Errorf("%w: album %s: %w", shared.ErrAlbumLookup, albumRef, err)
	}
	if album.ID == 0 {
		return nil, fmt.Errorf("%w: album %s: empty record", shared.ErrAlbumLookup, albumRef)
	}
	return &album, nil
}
