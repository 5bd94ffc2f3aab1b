package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env       string `yaml:"env" env:"NODE_ENV" env-default:"development"`
	Server    Server
	Database  Database
	Auth      Auth
	Instagram Instagram
	TikTok    TikTok
	Publisher Publisher
	R2        R2
	CORS      CORS
	Media     Media
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"PORT" env-default:"3000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"150s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Database holds database configuration
type Database struct {
	DSN          string        `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MinConns     int           `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"DB_CONN_LIFETIME" env-default:"5m"`
}

// Auth holds OIDC token verification configuration
type Auth struct {
	IssuerDomain string `yaml:"issuer_domain" env:"AUTH_ISSUER_DOMAIN"`
	Audience     string `yaml:"audience" env:"AUTH_AUDIENCE"`
	Issuer       string `yaml:"issuer" env:"AUTH_ISSUER"`
}

// JWKSURL returns the issuer's JWKS endpoint
func (a Auth) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", a.IssuerDomain)
}

// Instagram holds Instagram Graph API configuration
type Instagram struct {
	APIURL        string        `yaml:"api_url" env:"INSTAGRAM_API_URL" env-default:"https://graph.facebook.com/v21.0"`
	MediaWaitTime time.Duration `yaml:"media_wait_time" env:"INSTAGRAM_MEDIA_WAIT_TIME" env-default:"5s"`
	VideoWaitTime time.Duration `yaml:"video_wait_time" env:"INSTAGRAM_VIDEO_WAIT_TIME" env-default:"30s"`
}

// TikTok holds TikTok Content Posting API configuration
type TikTok struct {
	APIURL        string        `yaml:"api_url" env:"TIKTOK_API_URL" env-default:"https://open.tiktokapis.com/v2"`
	ClientKey     string        `yaml:"client_key" env:"TIKTOK_CLIENT_KEY"`
	ClientSecret  string        `yaml:"client_secret" env:"TIKTOK_CLIENT_SECRET"`
	CallbackURL   string        `yaml:"callback_url" env:"TIKTOK_CALLBACK_URL"`
	CallTimeout   time.Duration `yaml:"call_timeout" env:"TIKTOK_CALL_TIMEOUT" env-default:"30s"`
	UploadTimeout time.Duration `yaml:"upload_timeout" env:"TIKTOK_UPLOAD_TIMEOUT" env-default:"120s"`
}

// Publisher holds dispatcher configuration
type Publisher struct {
	Schedule    time.Duration `yaml:"schedule" env:"CRON_PUBLISHER_SCHEDULE" env-default:"30s"`
	BatchSize   int           `yaml:"batch_size" env:"CRON_BATCH_SIZE" env-default:"10"`
	Workers     int           `yaml:"workers" env:"CRON_PUBLISHER_WORKERS" env-default:"1"`
	ItemTimeout time.Duration `yaml:"item_timeout" env:"CRON_PUBLISHER_TIMEOUT" env-default:"120s"`
}

// R2 holds Cloudflare R2 object storage configuration
type R2 struct {
	AccountID       string `yaml:"account_id" env:"R2_ACCOUNT_ID"`
	Bucket          string `yaml:"bucket" env:"R2_BUCKET_NAME"`
	AccessKeyID     string `yaml:"access_key_id" env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"R2_SECRET_ACCESS_KEY"`
	PublicDomain    string `yaml:"public_domain" env:"R2_PUBLIC_DOMAIN"`
}

// Endpoint returns the account-scoped S3-compatible endpoint
func (r R2) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.AccountID)
}

// CORS holds allowed origins configuration
type CORS struct {
	Origins string `yaml:"origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
}

// AllowedOrigins splits the comma-separated origin list
func (c CORS) AllowedOrigins() []string {
	parts := strings.Split(c.Origins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Media holds media upload policy configuration
type Media struct {
	MaxPerContent int `yaml:"max_per_content" env:"MAX_MEDIA_PER_CONTENT" env-default:"10"`
}

// IsProduction reports whether the app runs with production settings
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks required configuration and returns warnings for
// optional platform credentials that are absent.
func (c Config) Validate() ([]string, error) {
	var missing []string
	if c.Database.DSN == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.IssuerDomain == "" {
		missing = append(missing, "AUTH_ISSUER_DOMAIN")
	}
	if c.Auth.Audience == "" {
		missing = append(missing, "AUTH_AUDIENCE")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	var warnings []string
	if c.TikTok.ClientKey == "" || c.TikTok.ClientSecret == "" {
		warnings = append(warnings, "TikTok credentials not set; TikTok publishing disabled")
	}
	if c.R2.AccountID == "" || c.R2.AccessKeyID == "" {
		warnings = append(warnings, "R2 credentials not set; media uploads disabled")
	}
	return warnings, nil
}

// Load loads configuration from environment, reading .env first if present
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}
