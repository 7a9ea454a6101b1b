// Package config loads grantiv settings from an optional TOML file, a .env
// file and GRANTIV_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"grantiv/internal/util"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "grantiv.toml"

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Cache    CacheConfig    `toml:"cache"`
	Client   ClientConfig   `toml:"client"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	StaticDir      string   `toml:"static_dir"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	JWTSecret string   `toml:"jwt_secret"`
	TokenTTL  Duration `toml:"token_ttl"`
}

// CacheConfig tunes the client-side application list cache.
type CacheConfig struct {
	Expiration Duration `toml:"expiration"`
	Cleanup    Duration `toml:"cleanup"`
}

// ClientConfig configures CLI commands that call the API.
type ClientConfig struct {
	BaseURL string   `toml:"base_url"`
	Token   string   `toml:"token"`
	OrgID   string   `toml:"org_id"`
	UserID  string   `toml:"user_id"`
	Timeout Duration `toml:"timeout"`
}

// Duration decodes TOML strings such as "15m".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080", StaticDir: "web/dist"},
		Database: DatabaseConfig{Path: "data/grantiv.db"},
		Auth:     AuthConfig{TokenTTL: Duration{24 * time.Hour}},
		Cache:    CacheConfig{Expiration: Duration{5 * time.Minute}, Cleanup: Duration{10 * time.Minute}},
		Client:   ClientConfig{BaseURL: "http://localhost:8080", Timeout: Duration{15 * time.Second}},
	}
}

// Load reads path (missing files are fine unless the path was explicit),
// then applies .env and environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = util.EnvOrDefault("GRANTIV_ADDR", cfg.Server.Addr)
	cfg.Server.StaticDir = util.EnvOrDefault("GRANTIV_STATIC_DIR", cfg.Server.StaticDir)
	cfg.Server.AllowedOrigins = util.EnvList("GRANTIV_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Database.Path = util.EnvOrDefault("GRANTIV_DB_PATH", cfg.Database.Path)
	cfg.Auth.JWTSecret = util.EnvOrDefault("GRANTIV_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL.Duration = util.EnvDuration("GRANTIV_TOKEN_TTL", cfg.Auth.TokenTTL.Duration)
	cfg.Client.BaseURL = util.EnvOrDefault("GRANTIV_API_URL", cfg.Client.BaseURL)
	cfg.Client.Token = util.EnvOrDefault("GRANTIV_TOKEN", cfg.Client.Token)
	cfg.Client.OrgID = util.EnvOrDefault("GRANTIV_ORG_ID", cfg.Client.OrgID)
	cfg.Client.UserID = util.EnvOrDefault("GRANTIV_USER_ID", cfg.Client.UserID)
}

// Validate checks settings the server cannot run without.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or GRANTIV_JWT_SECRET) is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// WriteExample writes a commented starter config if path does not exist.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "# grantiv configuration"); err != nil {
		return err
	}
	return toml.NewEncoder(f).Encode(Default())
}
