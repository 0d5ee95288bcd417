package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// StoreBackend is memory, postgres or firebase
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL  string `env:"DATABASE_URL"`

	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseDatabaseURL     string `env:"FIREBASE_DATABASE_URL"`
	FirebaseStorageBucket   string `env:"FIREBASE_STORAGE_BUCKET"`
	FirebaseWebAPIKey       string `env:"FIREBASE_WEB_API_KEY"`

	// AuthBackend is local or firebase
	AuthBackend   string        `env:"AUTH_BACKEND" envDefault:"local"`
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"true"`

	// CacheBackend is lru or redis
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"lru"`
	RedisAddr    string        `env:"REDIS_ADDR"`
	RedisPass    string        `env:"REDIS_PASSWORD"`
	CacheSize    int           `env:"CACHE_SIZE" envDefault:"10000"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	FeedConcurrency   int    `env:"FEED_CONCURRENCY" envDefault:"1"`
	FeedRecencyOrder  bool   `env:"FEED_RECENCY_ORDER" envDefault:"false"`
	EdgeWriteMode     string `env:"EDGE_WRITE_MODE"`
	PushNotifications bool   `env:"PUSH_NOTIFICATIONS" envDefault:"false"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	MediaBaseURL   string   `env:"MEDIA_BASE_URL" envDefault:"http://localhost:8080/media"`
	MaxUploadBytes int64    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	MaxImageWidth  int      `env:"MAX_IMAGE_WIDTH" envDefault:"2048"`
	MaxImageHeight int      `env:"MAX_IMAGE_HEIGHT" envDefault:"2048"`
	CORSOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads .env if present, then parses the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to read .env: %v", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment and validates it
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.AuthBackend = strings.ToLower(strings.TrimSpace(c.AuthBackend))
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	c.EdgeWriteMode = strings.ToLower(strings.TrimSpace(c.EdgeWriteMode))
	c.MediaBaseURL = strings.TrimSuffix(c.MediaBaseURL, "/")
}

// Validate rejects unknown backends and combinations missing their settings
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case "firebase":
		if c.FirebaseDatabaseURL == "" {
			errs = append(errs, errors.New("FIREBASE_DATABASE_URL is required for the firebase store"))
		}
		if c.FirebaseStorageBucket == "" {
			errs = append(errs, errors.New("FIREBASE_STORAGE_BUCKET is required for the firebase store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.AuthBackend {
	case "local":
		if len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters for local auth"))
		}
	case "firebase":
		if c.FirebaseWebAPIKey == "" {
			errs = append(errs, errors.New("FIREBASE_WEB_API_KEY is required for firebase auth"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_BACKEND %q", c.AuthBackend))
	}

	switch c.CacheBackend {
	case "lru":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend))
	}

	switch c.EdgeWriteMode {
	case "", "atomic", "await", "detached":
	default:
		errs = append(errs, fmt.Errorf("unknown EDGE_WRITE_MODE %q", c.EdgeWriteMode))
	}

	if c.PushNotifications && c.FirebaseCredentialsFile == "" && c.StoreBackend != "firebase" {
		errs = append(errs, errors.New("PUSH_NOTIFICATIONS needs Firebase credentials"))
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 characters"))
	}
	if c.FeedConcurrency < 1 {
		errs = append(errs, errors.New("FEED_CONCURRENCY must be at least 1"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// UsesFirebase reports whether any component needs the Firebase app
func (c *Config) UsesFirebase() bool {
	return c.StoreBackend == "firebase" || c.AuthBackend == "firebase" || c.PushNotifications
}

// Addr is the listen address
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
