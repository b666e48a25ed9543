package jwtmw

import (
	"os"
	"time"
)

const (
	// EnvKeyJWTSecret names the HMAC signing secret variable.
	EnvKeyJWTSecret = "JWT_SECRET"
	// EnvKeyJWTExpiration names the token lifetime variable (Go duration syntax).
	EnvKeyJWTExpiration = "JWT_EXPIRATION"

	defaultExpiration = 24 * time.Hour
)

// Config holds token signing settings.
type Config struct {
	Secret     string
	Expiration time.Duration
}

// LoadConfigFromEnv reads JWT settings. An unparsable or non-positive
// expiration falls back to 24h.
func LoadConfigFromEnv() Config {
	cfg := Config{Secret: os.Getenv(EnvKeyJWTSecret), Expiration: defaultExpiration}
	if v := os.Getenv(EnvKeyJWTExpiration); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Expiration = d
		}
	}
	return cfg
}
