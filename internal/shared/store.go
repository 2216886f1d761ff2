package shared

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/desertthunder/dzrpc/internal/models"
)

// Store keys recognised by [Store.Get] and [Store.Set].
const (
	KeyUseListeningTo      = "use_listening_to"
	KeyOnlyShowIfPlaying   = "only_show_if_playing"
	KeySpotifyAccessToken  = "spotify_access_token"
	KeySpotifyTokenType    = "spotify_token_type"
	KeySpotifyExpiresAt    = "spotify_expires_at"
	KeySpotifyRefreshToken = "spotify_refresh_token"
)

// Keys lists every key the store accepts, in display order.
var Keys = []string{
	KeyUseListeningTo,
	KeyOnlyShowIfPlaying,
	KeySpotifyAccessToken,
	KeySpotifyTokenType,
	KeySpotifyExpiresAt,
	KeySpotifyRefreshToken,
}

// Store is the process-wide settings store backed by the TOML config file.
//
// Reads and writes are serialised. Writes are persisted immediately when a path is set,
// and only the keys the store owns are written back.
type Store struct {
	mu     sync.RWMutex
	path   string
	config *Config
}

// NewStore wraps config. An empty path keeps the store in memory.
func NewStore(path string, config *Config) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	return &Store{path: path, config: config}
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.config
}

// Get returns the string form of key.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp := s.config.Credentials.Spotify
	switch key {
	case KeyUseListeningTo:
		return strconv.FormatBool(s.config.Presence.UseListeningTo), nil
	case KeyOnlyShowIfPlaying:
		return strconv.FormatBool(s.config.Presence.OnlyShowIfPlaying), nil
	case KeySpotifyAccessToken:
		return sp.AccessToken, nil
	case KeySpotifyTokenType:
		return sp.TokenType, nil
	case KeySpotifyExpiresAt:
		if sp.ExpiresAt.IsZero() {
			return "", nil
		}
		return strconv.FormatInt(sp.ExpiresAt.UnixMilli(), 10), nil
	case KeySpotifyRefreshToken:
		return sp.RefreshToken, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set parses value for key and persists the result.
//
// Booleans accept anything [strconv.ParseBool] does. spotify_expires_at is epoch milliseconds.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := &s.config.Credentials.Spotify
	switch key {
	case KeyUseListeningTo, KeyOnlyShowIfPlaying:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidArgument, key)
		}
		if key == KeyUseListeningTo {
			s.config.Presence.UseListeningTo = b
		} else {
			s.config.Presence.OnlyShowIfPlaying = b
		}
	case KeySpotifyAccessToken:
		sp.AccessToken = value
	case KeySpotifyTokenType:
		sp.TokenType = value
	case KeySpotifyExpiresAt:
		if value == "" {
			sp.ExpiresAt = time.Time{}
			break
		}
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be epoch milliseconds", ErrInvalidArgument, key)
		}
		sp.ExpiresAt = time.UnixMilli(ms).UTC()
	case KeySpotifyRefreshToken:
		sp.RefreshToken = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	return s.persist()
}

// ListeningMode reports whether presence uses the "listening to" activity.
func (s *Store) ListeningMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Presence.UseListeningTo
}

// OnlyShowIfPlaying reports whether presence is cleared while paused.
func (s *Store) OnlyShowIfPlaying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Presence.OnlyShowIfPlaying
}

// Credential returns the stored artwork service token.
func (s *Store) Credential() models.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp := s.config.Credentials.Spotify
	return models.Credential{
		AccessToken:  sp.AccessToken,
		TokenType:    sp.TokenType,
		ExpiresAt:    sp.ExpiresAt,
		RefreshToken: sp.RefreshToken,
	}
}

// SaveCredential writes the token fields back and persists them.
//
// An empty refresh token keeps the stored one.
func (s *Store) SaveCredential(c models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := &s.config.Credentials.Spotify
	sp.AccessToken = c.AccessToken
	sp.TokenType = c.TokenType
	sp.ExpiresAt = c.ExpiresAt.UTC()
	if c.RefreshToken != "" {
		sp.RefreshToken = c.RefreshToken
	}

	return s.persist()
}

// persist writes the store-owned keys into the file as it is on disk, so values
// overridden from the environment never reach it.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	onDisk, err := LoadConfig(s.path)
	if err != nil {
		onDisk = DefaultConfig()
	}
	onDisk.Presence.UseListeningTo = s.config.Presence.UseListeningTo
	onDisk.Presence.OnlyShowIfPlaying = s.config.Presence.OnlyShowIfPlaying

	sp, disk := s.config.Credentials.Spotify, &onDisk.Credentials.Spotify
	disk.AccessToken = sp.AccessToken
	disk.TokenType = sp.TokenType
	disk.ExpiresAt = sp.ExpiresAt
	disk.RefreshToken = sp.RefreshToken

	return WriteConfig(s.path, onDisk)
}
