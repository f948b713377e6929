package server

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/matzehuels/superviolin/pkg/errors"
)

// Environment variables read by LoadConfig.
const (
	EnvAddr          = "SUPERVIOLIN_ADDR"
	EnvMaxUploadMB   = "SUPERVIOLIN_MAX_UPLOAD_MB"
	EnvRedisURL      = "SUPERVIOLIN_REDIS_URL"
	EnvCacheTTL      = "SUPERVIOLIN_CACHE_TTL"
	defaultAddr      = ":8080"
	defaultMaxUpload = 10
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MaxUploadBytes caps the size of a request body.
	MaxUploadBytes int64

	// RedisURL selects a shared Redis cache. Empty disables caching.
	RedisURL string

	// CacheTTL overrides the lifetime of cached artifacts. Zero keeps the
	// cache package defaults.
	CacheTTL time.Duration
}

// DefaultConfig returns the settings used when no environment is set.
func DefaultConfig() Config {
	return Config{
		Addr:           defaultAddr,
		MaxUploadBytes: defaultMaxUpload << 20,
	}
}

// LoadConfig reads settings from the process environment after loading the
// given .env files (".env" when none are given). Missing .env files are
// ignored; variables already set in the environment win over file values.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", f)
		}
	}

	cfg := DefaultConfig()
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvMaxUploadMB); v != "" {
		mb, err := strconv.Atoi(v)
		if err != nil || mb <= 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s must be a positive integer, got %q", EnvMaxUploadMB, v)
		}
		cfg.MaxUploadBytes = int64(mb) << 20
	}
	cfg.RedisURL = os.Getenv(EnvRedisURL)
	if v := os.Getenv(EnvCacheTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl < 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s must be a duration such as 24h, got %q", EnvCacheTTL, v)
		}
		cfg.CacheTTL = ttl
	}
	return cfg, nil
}
