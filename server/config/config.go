// Package config loads the chat server configuration.
//
// Configuration comes from a TOML file, falls back to built-in defaults
// when the file does not exist, and is finally patched from the
// environment:
//
//   - GITHUB_TOKEN      gist access token
//   - GIST_ID           gist holding messages.json
//   - AHADCHAT_BACKEND  storage backend name
//   - AHADCHAT_ADDR     listen address
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendGist   = "gist"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

const (
	DefaultAddr         = ":8080"
	DefaultGistAPIURL   = "https://api.github.com"
	DefaultGistFileName = "messages.json"
	DefaultDisplayLimit = 50
	DefaultMaxMessage   = 2000
)

// Config is the complete server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Chat    ChatConfig    `toml:"chat"`
	Log     LogConfig     `toml:"log"`
	Users   []UserConfig  `toml:"users"`
}

type ServerConfig struct {
	Addr             string `toml:"addr"`
	ReadTimeoutSecs  int    `toml:"read_timeout_secs"`
	WriteTimeoutSecs int    `toml:"write_timeout_secs"`
	// SessionSweepHours drops logged-out sessions idle for longer than this.
	SessionSweepHours int `toml:"session_sweep_hours"`
}

type StorageConfig struct {
	Backend string       `toml:"backend"`
	File    FileConfig   `toml:"file"`
	Gist    GistConfig   `toml:"gist"`
	SQLite  SQLiteConfig `toml:"sqlite"`
	Redis   RedisConfig  `toml:"redis"`
}

type FileConfig struct {
	Path string `toml:"path"`
}

type GistConfig struct {
	Token    string `toml:"token"`
	ID       string `toml:"id"`
	APIURL   string `toml:"api_url"`
	FileName string `toml:"file_name"`
	// RequestsPerSecond caps outgoing gist calls; 0 disables the limit.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSecs       int     `toml:"timeout_secs"`
}

// Configured reports whether both gist credentials are present.
func (g GistConfig) Configured() bool {
	return g.Token != "" && g.ID != ""
}

type SQLiteConfig struct {
	Path string `toml:"path"`
	Key  string `toml:"key"`
}

type RedisConfig struct {
	URL     string `toml:"url"`
	Key     string `toml:"key"`
	MaxIdle int    `toml:"max_idle"`
}

type ChatConfig struct {
	DisplayLimit     int `toml:"display_limit"`
	MaxMessageLength int `toml:"max_message_length"`
	// PollIntervalSecs overrides the backend's default poll interval.
	PollIntervalSecs int `toml:"poll_interval_secs"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// Path of a log file; empty logs to stderr.
	Path string `toml:"path"`
}

type UserConfig struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Password string `toml:"password"`
	IsAdmin  bool   `toml:"is_admin"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              DefaultAddr,
			ReadTimeoutSecs:   15,
			WriteTimeoutSecs:  15,
			SessionSweepHours: 24,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			File:    FileConfig{Path: "messages.json"},
			Gist: GistConfig{
				APIURL:            DefaultGistAPIURL,
				FileName:          DefaultGistFileName,
				RequestsPerSecond: 5,
				TimeoutSecs:       15,
			},
			SQLite: SQLiteConfig{Path: "ahadchat.sqlite3", Key: DefaultGistFileName},
			Redis:  RedisConfig{URL: "redis://localhost:6379/0", Key: "ahadchat:messages", MaxIdle: 5},
		},
		Chat: ChatConfig{
			DisplayLimit:     DefaultDisplayLimit,
			MaxMessageLength: DefaultMaxMessage,
		},
		Log: LogConfig{Level: "info"},
		Users: []UserConfig{
			{ID: "khizar", Name: "Khizar", Password: "khizar123", IsAdmin: true},
			{ID: "ahad", Name: "Ahad", Password: "ahad123"},
		},
	}
}

// Load reads path if it exists, otherwise starts from defaults. Environment
// overrides and validation are applied either way.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg and fills anything left empty.
func LoadTOML(cfg *Config, path string) error {
	// Users replace the defaults wholesale instead of merging by index.
	defaults := cfg.Users
	cfg.Users = nil
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if len(cfg.Users) == 0 {
		cfg.Users = defaults
	}
	fillDefaults(cfg)
	return nil
}

func fillDefaults(cfg *Config) {
	d := Default()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Server.ReadTimeoutSecs <= 0 {
		cfg.Server.ReadTimeoutSecs = d.Server.ReadTimeoutSecs
	}
	if cfg.Server.WriteTimeoutSecs <= 0 {
		cfg.Server.WriteTimeoutSecs = d.Server.WriteTimeoutSecs
	}
	if cfg.Server.SessionSweepHours <= 0 {
		cfg.Server.SessionSweepHours = d.Server.SessionSweepHours
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = d.Storage.Backend
	}
	if cfg.Storage.File.Path == "" {
		cfg.Storage.File.Path = d.Storage.File.Path
	}
	if cfg.Storage.Gist.APIURL == "" {
		cfg.Storage.Gist.APIURL = d.Storage.Gist.APIURL
	}
	if cfg.Storage.Gist.FileName == "" {
		cfg.Storage.Gist.FileName = d.Storage.Gist.FileName
	}
	if cfg.Storage.Gist.TimeoutSecs <= 0 {
		cfg.Storage.Gist.TimeoutSecs = d.Storage.Gist.TimeoutSecs
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = d.Storage.SQLite.Path
	}
	if cfg.Storage.SQLite.Key == "" {
		cfg.Storage.SQLite.Key = d.Storage.SQLite.Key
	}
	if cfg.Storage.Redis.URL == "" {
		cfg.Storage.Redis.URL = d.Storage.Redis.URL
	}
	if cfg.Storage.Redis.Key == "" {
		cfg.Storage.Redis.Key = d.Storage.Redis.Key
	}
	if cfg.Storage.Redis.MaxIdle <= 0 {
		cfg.Storage.Redis.MaxIdle = d.Storage.Redis.MaxIdle
	}

	if cfg.Chat.DisplayLimit <= 0 {
		cfg.Chat.DisplayLimit = d.Chat.DisplayLimit
	}
	if cfg.Chat.MaxMessageLength <= 0 {
		cfg.Chat.MaxMessageLength = d.Chat.MaxMessageLength
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
}

// ApplyEnvOverrides patches the config from environment variables.
func (c *Config) ApplyEnvOverrides() {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.Storage.Gist.Token = token
	}
	if id := os.Getenv("GIST_ID"); id != "" {
		c.Storage.Gist.ID = id
	}
	if backend := os.Getenv("AHADCHAT_BACKEND"); backend != "" {
		c.Storage.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if addr := os.Getenv("AHADCHAT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// Validate checks the config for values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendGist, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Gist.RequestsPerSecond < 0 {
		return errors.New("storage.gist.requests_per_second must not be negative")
	}
	if c.Chat.PollIntervalSecs < 0 {
		return errors.New("chat.poll_interval_secs must not be negative")
	}

	if len(c.Users) != 2 {
		return fmt.Errorf("exactly two users are required, got %d", len(c.Users))
	}
	seen := make(map[string]bool, len(c.Users))
	for i, u := range c.Users {
		if u.ID == "" {
			return fmt.Errorf("user %d has no id", i)
		}
		if u.Password == "" {
			return fmt.Errorf("user %q has no password", u.ID)
		}
		if seen[u.ID] {
			return fmt.Errorf("duplicate user id %q", u.ID)
		}
		seen[u.ID] = true
	}
	return nil
}

// PollInterval returns the configured override, or def when none is set.
func (c *Config) PollInterval(def time.Duration) time.Duration {
	if c.Chat.PollIntervalSecs > 0 {
		return time.Duration(c.Chat.PollIntervalSecs) * time.Second
	}
	return def
}
