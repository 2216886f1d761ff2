package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/dzrpc/internal/models"
)

func TestStore(t *testing.T) {
	t.Run("Get and Set booleans", func(t *testing.T) {
		store := NewStore("", nil)

		if err := store.Set(KeyUseListeningTo, "true"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		if !store.ListeningMode() {
			t.Error("expected listening mode after set")
		}

		got, err := store.Get(KeyUseListeningTo)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got != "true" {
			t.Errorf("expected true, got %s", got)
		}

		if err := store.Set(KeyOnlyShowIfPlaying, "maybe"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		store := NewStore("", nil)
		if _, err := store.Get("volume"); !errors.Is(err, ErrUnknownKey) {
			t.Errorf("expected ErrUnknownKey, got %v", err)
		}
		if err := store.Set("volume", "11"); !errors.Is(err, ErrUnknownKey) {
			t.Errorf("expected ErrUnknownKey, got %v", err)
		}
	})

	t.Run("expires_at is epoch milliseconds", func(t *testing.T) {
		store := NewStore("", nil)
		at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

		if err := store.Set(KeySpotifyExpiresAt, "1777636800000"); err != nil {
			t.Fatalf("failed to set expires_at: %v", err)
		}
		if got := store.Credential().ExpiresAt; !got.Equal(at) {
			t.Errorf("expected %v, got %v", at, got)
		}

		got, _ := store.Get(KeySpotifyExpiresAt)
		if got != "1777636800000" {
			t.Errorf("expected round trip, got %s", got)
		}
	})

	t.Run("SaveCredential persists and keeps refresh token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.RefreshToken = "keep-me"
		store := NewStore(path, config)

		expires := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
		err := store.SaveCredential(models.Credential{AccessToken: "new", TokenType: "Bearer", ExpiresAt: expires})
		if err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		sp := loaded.Credentials.Spotify
		if sp.AccessToken != "new" {
			t.Errorf("expected access token new, got %s", sp.AccessToken)
		}
		if sp.RefreshToken != "keep-me" {
			t.Errorf("expected refresh token to be kept, got %s", sp.RefreshToken)
		}
		if !sp.ExpiresAt.Equal(expires) {
			t.Errorf("expected expires_at %v, got %v", expires, sp.ExpiresAt)
		}
	})

	t.Run("persisting keeps environment secrets out of the file", func(t *testing.T) {
		t.Setenv("DZRPC_SPOTIFY_CLIENT_SECRET", "env-only-secret")
		t.Setenv("DZRPC_DISCORD_CLIENT_ID", "1234567890")

		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}
		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		config.ApplyEnv()
		store := NewStore(path, config)

		if err := store.Set(KeyUseListeningTo, "true"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		if err := store.SaveCredential(models.Credential{AccessToken: "BQDtoken", TokenType: "Bearer"}); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read config: %v", err)
		}
		for _, secret := range []string{"env-only-secret", "1234567890"} {
			if strings.Contains(string(data), secret) {
				t.Errorf("expected %q to stay out of the file:\n%s", secret, data)
			}
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if !loaded.Presence.UseListeningTo || loaded.Credentials.Spotify.AccessToken != "BQDtoken" {
			t.Errorf("expected store keys to be written, got %+v", loaded.Presence)
		}
		if store.Config().Credentials.Spotify.ClientSecret != "env-only-secret" {
			t.Error("expected the in-memory config to keep the environment value")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		store := NewStore("", nil)
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = store.SaveCredential(models.Credential{AccessToken: "token", TokenType: "Bearer"})
			}()
			go func() {
				defer wg.Done()
				_ = store.Credential()
				_, _ = store.Get(Keys[i%len(Keys)])
			}()
		}
		wg.Wait()

		if store.Credential().AccessToken != "token" {
			t.Error("expected token after concurrent writes")
		}
	})
}
