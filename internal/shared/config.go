package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Presence    PresenceConfig    `toml:"presence"`
	Engine      EngineConfig      `toml:"engine"`
	Bridge      BridgeConfig      `toml:"bridge"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// PresenceConfig controls what is published to the chat client.
type PresenceConfig struct {
	ClientID          string `toml:"client_id"`
	UseListeningTo    bool   `toml:"use_listening_to"`
	OnlyShowIfPlaying bool   `toml:"only_show_if_playing"`
	LargeImageKey     string `toml:"large_image_key"`
}

// EngineConfig contains reconciliation loop timings, as Go duration strings.
type EngineConfig struct {
	PollInterval   string `toml:"poll_interval"`
	ResolveTimeout string `toml:"resolve_timeout"`
	ProbeDelay     string `toml:"probe_delay"`
}

// BridgeConfig locates the embedded player page through the shell's remote debugging endpoint.
type BridgeConfig struct {
	DevToolsURL  string `toml:"devtools_url"`
	PageMatch    string `toml:"page_match"`
	SeekSelector string `toml:"seek_selector"`
}

// CatalogConfig contains catalog API settings.
type CatalogConfig struct {
	BaseURL       string  `toml:"base_url"`
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the artwork service OAuth2 client and the current token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	TokenType    string    `toml:"token_type"`
	ExpiresAt    time.Time `toml:"expires_at"`
	RefreshToken string    `toml:"refresh_token"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the local broadcast server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port pair the broadcast server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Interval returns the poll interval, defaulting to one second.
func (e EngineConfig) Interval() time.Duration {
	return parseDuration(e.PollInterval, time.Second)
}

// Timeout returns the upper bound on a single metadata resolution.
func (e EngineConfig) Timeout() time.Duration {
	return parseDuration(e.ResolveTimeout, 10*time.Second)
}

// Delay returns how long to wait after the page loads before installing the seek trigger.
func (e EngineConfig) Delay() time.Duration {
	return parseDuration(e.ProbeDelay, 5*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the settings the engine cannot run without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("%w: catalog base_url is empty", ErrInvalidConfig)
	}
	if c.Bridge.DevToolsURL == "" {
		return fmt.Errorf("%w: bridge devtools_url is empty", ErrInvalidConfig)
	}
	if c.Presence.UseListeningTo && c.Credentials.Spotify.ClientID == "" {
		return fmt.Errorf("%w: use_listening_to requires credentials.spotify.client_id", ErrMissingCredentials)
	}
	return nil
}

// ApplyEnv overrides secrets from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DZRPC_SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("DZRPC_SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("DZRPC_DISCORD_CLIENT_ID"); v != "" {
		c.Presence.ClientID = v
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// WriteConfig encodes config as TOML to path.
func WriteConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
