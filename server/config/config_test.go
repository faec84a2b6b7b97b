package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ahadchat.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GIST_ID", "")
	t.Setenv("AHADCHAT_BACKEND", "")
	t.Setenv("AHADCHAT_ADDR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "messages.json", cfg.Storage.File.Path)
	assert.Equal(t, DefaultDisplayLimit, cfg.Chat.DisplayLimit)
	require.Len(t, cfg.Users, 2)
	assert.True(t, cfg.Users[0].IsAdmin)
	assert.False(t, cfg.Storage.Gist.Configured())
}

func TestLoad_FileOverridesAndFillsDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GIST_ID", "")
	t.Setenv("AHADCHAT_BACKEND", "")
	t.Setenv("AHADCHAT_ADDR", "")

	path := writeConfig(t, `
[server]
addr = ":9090"

[storage]
backend = "gist"

[storage.gist]
token = "tok"
id = "abc"

[chat]
display_limit = 20

[[users]]
id = "a"
name = "Alice"
password = "pa"
is_admin = true

[[users]]
id = "b"
name = "Bob"
password = "pb"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 15, cfg.Server.ReadTimeoutSecs)
	assert.Equal(t, BackendGist, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Gist.Configured())
	assert.Equal(t, DefaultGistAPIURL, cfg.Storage.Gist.APIURL)
	assert.Equal(t, DefaultGistFileName, cfg.Storage.Gist.FileName)
	assert.Equal(t, 20, cfg.Chat.DisplayLimit)
	assert.Equal(t, DefaultMaxMessage, cfg.Chat.MaxMessageLength)
	require.Len(t, cfg.Users, 2)
	assert.Equal(t, "Alice", cfg.Users[0].Name)
	assert.Equal(t, "b", cfg.Users[1].ID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("GIST_ID", "env-gist")
	t.Setenv("AHADCHAT_BACKEND", " GIST ")
	t.Setenv("AHADCHAT_ADDR", "127.0.0.1:1234")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Storage.Gist.Token)
	assert.Equal(t, "env-gist", cfg.Storage.Gist.ID)
	assert.Equal(t, BackendGist, cfg.Storage.Backend)
	assert.Equal(t, "127.0.0.1:1234", cfg.Server.Addr)
}

func TestLoad_BadTOML(t *testing.T) {
	path := writeConfig(t, "[server\naddr = ")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"one user", func(c *Config) { c.Users = c.Users[:1] }},
		{"three users", func(c *Config) { c.Users = append(c.Users, UserConfig{ID: "x", Password: "y"}) }},
		{"duplicate id", func(c *Config) { c.Users[1].ID = c.Users[0].ID }},
		{"empty id", func(c *Config) { c.Users[0].ID = "" }},
		{"empty password", func(c *Config) { c.Users[1].Password = "" }},
		{"negative rate", func(c *Config) { c.Storage.Gist.RequestsPerSecond = -1 }},
		{"negative poll", func(c *Config) { c.Chat.PollIntervalSecs = -3 }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPollInterval(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3*time.Second, cfg.PollInterval(3*time.Second))

	cfg.Chat.PollIntervalSecs = 10
	assert.Equal(t, 10*time.Second, cfg.PollInterval(3*time.Second))
}
