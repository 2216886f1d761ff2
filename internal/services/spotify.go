// Spotify Web API implementation of [Artwork]
package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1/"
)

// CredentialStore owns the artwork service token.
type CredentialStore interface {
	Credential() models.Credential
	SaveCredential(c models.Credential) error
}

// ArtworkOptions overrides endpoints and transport, mostly for tests.
type ArtworkOptions struct {
	BaseURL    string
	AuthURL    string
	TokenURL   string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// ArtworkService implements [Artwork] with the Spotify search API.
//
// The access token is read from the store on every call and never assumed valid.
type ArtworkService struct {
	config     *oauth2.Config
	baseURL    string
	store      CredentialStore
	httpClient *http.Client
	logger     *log.Logger
}

// NewArtworkService creates an artwork client for the configured OAuth2 application.
func NewArtworkService(cfg shared.SpotifyConfig, store CredentialStore, opts ArtworkOptions) *ArtworkService {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &ArtworkService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		baseURL:    strings.TrimRight(opts.BaseURL, "/") + "/",
		store:      store,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "artwork"),
	}
}

func (s *ArtworkService) Name() string {
	return "Spotify"
}

// OAuthConfig returns the authorization-code flow configuration used by the CLI.
func (s *ArtworkService) OAuthConfig() *oauth2.Config {
	return s.config
}

// AuthURL returns the consent page URL for state.
func (s *ArtworkService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (s *ArtworkService) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *ArtworkService) client(ctx context.Context) (*spotify.Client, error) {
	cred := s.store.Credential()
	if cred.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token", shared.ErrMissingCredentials)
	}

	tokenType := cred.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.AccessToken, TokenType: tokenType})
	return spotify.New(oauth2.NewClient(s.ctx(ctx), src), spotify.WithBaseURL(s.baseURL)), nil
}

// Cover searches for the album first and falls back to the track.
//
// No match is not an error. Any request failure is reported as [shared.ErrArtworkLookup].
func (s *ArtworkService) Cover(ctx context.Context, q CoverQuery) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrArtworkLookup, err)
	}

	albums, err := client.Search(ctx, fmt.Sprintf("album:%s artist:%s", q.Album, q.Artist), spotify.SearchTypeAlbum, spotify.Limit(1))
	if err != nil {
		return "", fmt.Errorf("%w: album search: %w", shared.ErrArtworkLookup, err)
	}
	if albums.Albums != nil && len(albums.Albums.Albums) > 0 {
		return CoverFragment(albums.Albums.Albums[0].Images), nil
	}

	s.logger.Debug("no album match, retrying with track", "album", q.Album, "title", q.Title)
	tracks, err := client.Search(ctx, fmt.Sprintf("track:%s artist:%s", q.Title, q.Artist), spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return "", fmt.Errorf("%w: track search: %w", shared.ErrArtworkLookup, err)
	}
	if tracks.Tracks != nil && len(tracks.Tracks.Tracks) > 0 {
		return CoverFragment(tracks.Tracks.Tracks[0].Album.Images), nil
	}

	return "", nil
}

// CoverFragment returns the last path segment of the first image URL.
func CoverFragment(images []spotify.Image) string {
	if len(images) == 0 || images[0].URL == "" {
		return ""
	}
	frag := path.Base(strings.TrimRight(images[0].URL, "/"))
	if frag == "." || frag == "/" {
		return ""
	}
	return frag
}

// Refresh exchanges the stored refresh token once and writes the result back.
func (s *ArtworkService) Refresh(ctx context.Context) error {
	if s.config.ClientID == "" {
		return fmt.Errorf("%w: %w: spotify client_id", shared.ErrRefreshFailed, shared.ErrMissingCredentials)
	}

	cred := s.store.Credential()
	if cred.RefreshToken == "" {
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, shared.ErrNoRefreshToken)
	}

	tok, err := s.config.TokenSource(s.ctx(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	if err := s.Save(tok); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	s.logger.Info("refreshed access token", "expires_at", tok.Expiry.Format(time.RFC3339))
	return nil
}

// Exchange trades an authorization code for a token and stores it.
func (s *ArtworkService) Exchange(ctx context.Context, code string) error {
	tok, err := s.config.Exchange(s.ctx(ctx), code)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return s.Save(tok)
}

// Save writes tok's fields to the credential store.
func (s *ArtworkService) Save(tok *oauth2.Token) error {
	return s.store.SaveCredential(models.Credential{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		ExpiresAt:    tok.Expiry,
		RefreshToken: tok.RefreshToken,
	})
}
