package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment variable read by [ApplyEnv].
const EnvPrefix = "POPHITS_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig points the client at a PopHits backend.
type APIConfig struct {
	BaseURL         string        `toml:"base_url"`
	GeneratorPrefix string        `toml:"generator_prefix"`
	Timeout         time.Duration `toml:"timeout"`
	RateLimit       float64       `toml:"rate_limit"`
}

// SpotifyConfig contains the implicit grant client settings.
//
// Implicit grant has no client secret.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
}

// SessionConfig controls where the session file lives and whether it is watched for changes.
type SessionConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// DatabaseConfig contains local cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig sets the default level and the file used when the terminal is taken over.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads a TOML file on top of the embedded defaults, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// DefaultConfig returns a Config with defaults loaded from the embedded example config.
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

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv loads a .env file when present and overrides config values from POPHITS_* variables.
func ApplyEnv(c *Config) error {
	_ = godotenv.Load()

	setString(&c.API.BaseURL, "API_BASE_URL")
	setString(&c.API.GeneratorPrefix, "API_GENERATOR_PREFIX")
	setString(&c.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Spotify.RedirectURI, "SPOTIFY_REDIRECT_URI")
	setString(&c.Session.Path, "SESSION_PATH")
	setString(&c.Database.Path, "DATABASE_PATH")
	setString(&c.Server.Host, "SERVER_HOST")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v, ok := lookup("API_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sAPI_TIMEOUT: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.API.Timeout = d
	}

	if v, ok := lookup("API_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sAPI_RATE_LIMIT: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.API.RateLimit = f
	}

	if v, ok := lookup("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sSERVER_PORT: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Server.Port = port
	}

	if v, ok := lookup("SERVER_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate reports configuration that cannot produce a working client.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("%w: api.base_url must be an http(s) URL, got %q", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range: %d", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
