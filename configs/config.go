package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type R2 struct {
	AccountID  string `env:"R2_ACCOUNT_ID"`
	AccessKey  string `env:"R2_ACCESS_KEY"`
	SecretKey  string `env:"R2_SECRET_KEY"`
	BucketName string `env:"R2_BUCKET_NAME"`
	// PublicURL is the base URL objects in the bucket are served from.
	PublicURL string `env:"R2_PUBLIC_URL"`
}

func (r R2) Enabled() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != ""
}

// OAuthClient is one provider's client registration.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type Config struct {
	InstagramClientID     string `env:"INSTAGRAM_CLIENT_ID"`
	InstagramClientSecret string `env:"INSTAGRAM_CLIENT_SECRET"`
	InstagramRedirectURI  string `env:"INSTAGRAM_REDIRECT_URI"`
	TwitterClientID       string `env:"TWITTER_CLIENT_ID"`
	TwitterClientSecret   string `env:"TWITTER_CLIENT_SECRET"`
	TwitterRedirectURI    string `env:"TWITTER_REDIRECT_URI"`
	TiktokClientKey       string `env:"TIKTOK_CLIENT_KEY"`
	TiktokClientSecret    string `env:"TIKTOK_CLIENT_SECRET"`
	TiktokRedirectURI     string `env:"TIKTOK_REDIRECT_URI"`
	FacebookClientID      string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret  string `env:"FACEBOOK_CLIENT_SECRET"`
	FacebookRedirectURI   string `env:"FACEBOOK_REDIRECT_URI"`
	GoogleClientID        string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI     string `env:"GOOGLE_REDIRECT_URI"`
	LinkedinClientID      string `env:"LINKEDIN_CLIENT_ID"`
	LinkedinClientSecret  string `env:"LINKEDIN_CLIENT_SECRET"`
	LinkedinRedirectURI   string `env:"LINKEDIN_REDIRECT_URI"`

	PostgresURI    string `env:"POSTGRES_URI"`
	RedisURI       string `env:"REDIS_URI" envDefault:"localhost:6379"`
	HandshakeStore string `env:"HANDSHAKE_STORE" envDefault:"memory"`

	HandshakeTTL    time.Duration `env:"HANDSHAKE_TTL" envDefault:"10m"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":3000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	SecretKey   string `env:"SECRET_KEY"`
	CookieName  string `env:"COOKIE_NAME" envDefault:"session"`

	R2 R2
}

// LoadConfig reads .env when present and parses the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}
	return ParseConfig()
}

// ParseConfig parses the process environment without reading .env.
func ParseConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.HandshakeStore = strings.ToLower(strings.TrimSpace(c.HandshakeStore))
	switch c.HandshakeStore {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.PostgresURI == "" {
			return fmt.Errorf("config: HANDSHAKE_STORE=postgres requires POSTGRES_URI")
		}
	default:
		return fmt.Errorf("config: unknown HANDSHAKE_STORE %q", c.HandshakeStore)
	}

	if c.HandshakeTTL <= 0 {
		return fmt.Errorf("config: HANDSHAKE_TTL must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("config: PROVIDER_TIMEOUT must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("config: SWEEP_INTERVAL must be positive")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("config: SECRET_KEY is required")
	}
	return nil
}

// OAuthClients returns the client registrations keyed by provider id.
func (c *Config) OAuthClients() map[string]OAuthClient {
	return map[string]OAuthClient{
		"instagram": {c.InstagramClientID, c.InstagramClientSecret, c.InstagramRedirectURI},
		"twitter":   {c.TwitterClientID, c.TwitterClientSecret, c.TwitterRedirectURI},
		"tiktok":    {c.TiktokClientKey, c.TiktokClientSecret, c.TiktokRedirectURI},
		"facebook":  {c.FacebookClientID, c.FacebookClientSecret, c.FacebookRedirectURI},
		"youtube":   {c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURI},
		"linkedin":  {c.LinkedinClientID, c.LinkedinClientSecret, c.LinkedinRedirectURI},
	}
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
