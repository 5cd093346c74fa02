package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hr-assistant", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
	assert.Equal(t, 120, cfg.Auth.JWTExpireMinute)
	assert.Equal(t, "data/users.db", cfg.SQLite.Path)
	assert.Equal(t, "auth.event.persist", cfg.RabbitMQ.AuthEventQueue)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, 12, cfg.RAG.FetchK)
	assert.InDelta(t, 0.5, cfg.RAG.Lambda, 1e-6)
	assert.Empty(t, cfg.Redis.Addr, "redis is off by default")
	assert.Empty(t, cfg.RabbitMQ.URL, "rabbitmq is off by default")
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
port = 9000
base_url = "https://hr.example.com"

[sqlite]
path = "/var/lib/hr/users.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9443")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load()
	require.NoError(t, err)

	// Env beats file, file beats defaults.
	assert.Equal(t, 9443, cfg.App.Port)
	assert.Equal(t, "https://hr.example.com", cfg.App.BaseURL)
	assert.Equal(t, "/var/lib/hr/users.db", cfg.SQLite.Path)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "hr-assistant", cfg.App.Name)
}

func TestLoad_RAGOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("RAG_TOP_K", "5")
	t.Setenv("RAG_FETCH_K", "20")
	t.Setenv("RAG_LAMBDA", "0.7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, 20, cfg.RAG.FetchK)
	assert.InDelta(t, 0.7, cfg.RAG.Lambda, 1e-6)
}

func TestLoad_BadIntEnvFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
}

func TestHTTPAddr(t *testing.T) {
	cfg := &Config{App: AppConfig{Host: "127.0.0.1", Port: 8081}}
	assert.Equal(t, "127.0.0.1:8081", cfg.HTTPAddr())
}
