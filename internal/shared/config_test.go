package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./dzrpc.db" {
			t.Errorf("expected database path ./dzrpc.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 5671 {
			t.Errorf("expected server port 5671, got %d", config.Server.Port)
		}

		if config.Catalog.BaseURL != "https://api.deezer.com" {
			t.Errorf("expected catalog base url https://api.deezer.com, got %s", config.Catalog.BaseURL)
		}

		if config.Bridge.SeekSelector != ".slider-track-input.mousetrap" {
			t.Errorf("unexpected seek selector %s", config.Bridge.SeekSelector)
		}

		if config.Presence.UseListeningTo || config.Presence.OnlyShowIfPlaying {
			t.Error("presence toggles should default to false")
		}
	})

	t.Run("Engine durations", func(t *testing.T) {
		config := DefaultConfig()
		if got := config.Engine.Interval(); got != time.Second {
			t.Errorf("expected 1s interval, got %v", got)
		}
		if got := config.Engine.Timeout(); got != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", got)
		}
		if got := config.Engine.Delay(); got != 5*time.Second {
			t.Errorf("expected 5s probe delay, got %v", got)
		}

		bad := EngineConfig{PollInterval: "soon", ResolveTimeout: "-3s"}
		if got := bad.Interval(); got != time.Second {
			t.Errorf("expected fallback interval, got %v", got)
		}
		if got := bad.Timeout(); got != 10*time.Second {
			t.Errorf("expected fallback timeout, got %v", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); err != nil {
			t.Fatalf("default config should validate: %v", err)
		}

		config.Server.Port = 0
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for port 0, got %v", err)
		}

		config = DefaultConfig()
		config.Presence.UseListeningTo = true
		config.Credentials.Spotify.ClientID = ""
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("DZRPC_SPOTIFY_CLIENT_ID", "env_client")
		t.Setenv("DZRPC_DISCORD_CLIENT_ID", "env_discord")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "env_client" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Presence.ClientID != "env_discord" {
			t.Errorf("expected env discord id, got %s", config.Presence.ClientID)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for missing keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[presence]
client_id = "123"
use_listening_to = true

[server]
port = 8080

[credentials.spotify]
client_id = "test_client_id"
refresh_token = "rt"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Server.Host != "127.0.0.1" {
			t.Errorf("expected default host, got %s", config.Server.Host)
		}
		if !config.Presence.UseListeningTo {
			t.Error("expected use_listening_to to be true")
		}
		if config.Credentials.Spotify.RefreshToken != "rt" {
			t.Errorf("expected refresh token rt, got %s", config.Credentials.Spotify.RefreshToken)
		}
		if config.Catalog.Burst != 5 {
			t.Errorf("expected default burst 5, got %d", config.Catalog.Burst)
		}
	})

	t.Run("WriteConfig round trips", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.AccessToken = "at"
		config.Credentials.Spotify.ExpiresAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		if err := WriteConfig(configPath, config); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load written config: %v", err)
		}
		if loaded.Credentials.Spotify.AccessToken != "at" {
			t.Errorf("expected access token at, got %s", loaded.Credentials.Spotify.AccessToken)
		}
		if !loaded.Credentials.Spotify.ExpiresAt.Equal(config.Credentials.Spotify.ExpiresAt) {
			t.Errorf("expected expires_at %v, got %v", config.Credentials.Spotify.ExpiresAt, loaded.Credentials.Spotify.ExpiresAt)
		}
	})
}
