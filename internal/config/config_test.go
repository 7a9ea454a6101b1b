package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data/grantiv.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL.Duration)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("nope.toml")
	assert.Error(t, err)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9090"
allowed_origins = ["https://app.grantiv.io"]

[database]
path = "/var/lib/grantiv.db"

[auth]
jwt_secret = "from-file"
token_ttl = "2h"

[cache]
expiration = "30s"
`), 0o644))

	t.Setenv("GRANTIV_JWT_SECRET", "from-env")
	t.Setenv("GRANTIV_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/grantiv.db", cfg.Database.Path)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL.Duration)
	assert.Equal(t, 30*time.Second, cfg.Cache.Expiration.Duration)
	assert.Equal(t, 10*time.Minute, cfg.Cache.Cleanup.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GRANTIV_DB_PATH=dotenv.db\n"), 0o644))
	t.Setenv("GRANTIV_DB_PATH", "")
	os.Unsetenv("GRANTIV_DB_PATH")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())
	cfg.Auth.JWTSecret = "s"
	assert.NoError(t, cfg.Validate())
}

func TestWriteExample_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "grantiv.toml")

	require.NoError(t, WriteExample(path))
	assert.Error(t, WriteExample(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Client.Timeout, cfg.Client.Timeout)
}
